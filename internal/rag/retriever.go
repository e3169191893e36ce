package rag

import (
	"context"
	"fmt"

	"github.com/jgrady/notekb/internal/logging"
)

// Retrieve returns the topK corpus rows most similar to query, dispatching to
// whichever backend built the index. Callers with a disabled (nil) index must
// skip retrieval instead of calling this.
func Retrieve(ctx context.Context, idx Index, query string, topK int) (Result, error) {
	if idx == nil {
		return nil, fmt.Errorf("retrieve: index is nil")
	}
	return idx.Retrieve(ctx, query, topK)
}

// Augment is the caller-side enrichment policy: retrieve context for a note
// and format it within the character budget. A nil index (retrieval
// disabled) or a per-query failure yields an empty string so the surrounding
// batch keeps processing; the failure is logged, never propagated. Retrieval
// is an enrichment, not a hard dependency.
func Augment(ctx context.Context, idx Index, query string, topK, maxChars int) string {
	if idx == nil {
		return ""
	}
	results, err := idx.Retrieve(ctx, query, topK)
	if err != nil {
		logging.LogEvent("[RAG] retrieval failed, continuing without context: %v", err)
		return ""
	}
	return FormatContext(results, maxChars)
}
