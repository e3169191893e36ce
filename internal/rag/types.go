package rag

import (
	"context"
	"fmt"

	"github.com/jgrady/notekb/internal/corpus"
)

// BackendKind identifies which similarity-search implementation an Index uses.
type BackendKind string

const (
	// BackendLexical is the sparse TF-IDF backend.
	BackendLexical BackendKind = "lexical"
	// BackendDense is the embedding backend.
	BackendDense BackendKind = "dense"
)

// ScoredEntry is one retrieved knowledge-base row with its similarity score.
// RowID is the row's position in the loaded corpus; it is stable only for the
// lifetime of the index that produced it.
type ScoredEntry struct {
	Entry corpus.Entry
	Score float64
	RowID int
}

// Result is an ordered retrieval result, highest similarity first, ties
// broken by corpus order. It is produced fresh per query and never cached.
type Result []ScoredEntry

// Citations returns one short citation string per retrieved row, in rank
// order, suitable for injecting into a downstream prompt alongside the
// formatted context.
func (r Result) Citations() []string {
	if len(r) == 0 {
		return nil
	}
	out := make([]string, len(r))
	for i, s := range r {
		if s.Entry.Title != "" {
			out[i] = fmt.Sprintf("kb_%d: %s", s.RowID, s.Entry.Title)
		} else {
			out[i] = fmt.Sprintf("kb_%d", s.RowID)
		}
	}
	return out
}

// Index is a built, read-only retrieval index. Implementations are immutable
// after construction and safe for concurrent queries.
type Index interface {
	// Retrieve returns up to topK corpus rows ranked by similarity to query.
	Retrieve(ctx context.Context, query string, topK int) (Result, error)
	// Len reports the number of corpus rows in the index.
	Len() int
	// Dim reports the vector dimensionality of the index (vocabulary size
	// for lexical, encoder hidden size for dense).
	Dim() int
	// Kind reports which backend built the index.
	Kind() BackendKind
}
