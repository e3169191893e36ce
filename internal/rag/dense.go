package rag

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jgrady/notekb/internal/corpus"
)

// DenseOptions configure how the dense index encodes its corpus.
type DenseOptions struct {
	// BatchSize is how many corpus rows are encoded per request.
	BatchSize int
	// Normalize scales every corpus and query vector to unit L2 norm, which
	// makes the dot-product query exactly cosine similarity. When false the
	// raw dot product ranks instead.
	Normalize bool
}

// DenseIndex is the embedding backend. The corpus matrix is built once, in
// corpus order, and is read-only afterwards. Queries go through the same
// encoder with the same options the build used.
type DenseIndex struct {
	entries   []corpus.Entry
	enc       Encoder
	normalize bool
	matrix    [][]float32
	dim       int
}

// BuildDenseIndex encodes the corpus in batches and stacks the vectors into
// the index matrix. Any encoder failure aborts the build: a partly encoded
// index must never serve queries.
func BuildDenseIndex(ctx context.Context, entries []corpus.Entry, enc Encoder, opts DenseOptions) (*DenseIndex, error) {
	idx := &DenseIndex{
		entries:   entries,
		enc:       enc,
		normalize: opts.Normalize,
	}
	if len(entries) == 0 {
		return idx, nil
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	idx.matrix = make([][]float32, 0, len(entries))
	for start := 0; start < len(entries); start += batchSize {
		end := start + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		texts := make([]string, 0, end-start)
		for _, e := range entries[start:end] {
			texts = append(texts, e.Text)
		}

		vecs, err := enc.EncodeBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: encode rows %d-%d: %v", ErrModelLoad, start, end-1, err)
		}
		for _, vec := range vecs {
			if idx.dim == 0 {
				idx.dim = len(vec)
			}
			if len(vec) != idx.dim {
				return nil, fmt.Errorf("%w: inconsistent vector dims %d vs %d", ErrModelLoad, len(vec), idx.dim)
			}
			if idx.normalize {
				l2normalize(vec)
			}
			idx.matrix = append(idx.matrix, vec)
		}
	}
	if len(idx.matrix) != len(entries) {
		return nil, fmt.Errorf("%w: encoded %d vectors for %d rows", ErrModelLoad, len(idx.matrix), len(entries))
	}
	return idx, nil
}

// Retrieve encodes the query through the build pipeline and ranks every
// corpus row by dot product against the matrix. Ranking, tie-breaking, and
// topK handling mirror the lexical backend.
func (idx *DenseIndex) Retrieve(ctx context.Context, query string, topK int) (Result, error) {
	if len(idx.entries) == 0 || topK <= 0 {
		return Result{}, nil
	}

	vecs, err := idx.enc.EncodeBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("encode query: got %d vectors", len(vecs))
	}
	qvec := vecs[0]
	if len(qvec) != idx.dim {
		return nil, fmt.Errorf("encode query: dim %d does not match index dim %d", len(qvec), idx.dim)
	}
	if idx.normalize {
		l2normalize(qvec)
	}

	scored := make(Result, len(idx.entries))
	for i, row := range idx.matrix {
		scored[i] = ScoredEntry{
			Entry: idx.entries[i],
			Score: dotDense(qvec, row),
			RowID: i,
		}
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })
	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

// Len reports the number of indexed corpus rows.
func (idx *DenseIndex) Len() int { return len(idx.entries) }

// Dim reports the encoder hidden dimension, 0 for an empty corpus.
func (idx *DenseIndex) Dim() int { return idx.dim }

// Kind reports the dense backend tag.
func (idx *DenseIndex) Kind() BackendKind { return BackendDense }

func dotDense(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// l2normalize scales v to unit length in place. The zero vector stays zero.
func l2normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range v {
		v[i] /= norm
	}
}
