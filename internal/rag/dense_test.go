package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/jgrady/notekb/internal/corpus"
)

// stubEncoder returns canned vectors per text and records batch sizes.
type stubEncoder struct {
	vectors map[string][]float32
	batches []int
	failAt  int // fail on the nth call (1-based), 0 = never
	calls   int
}

func (s *stubEncoder) EncodeBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.failAt > 0 && s.calls >= s.failAt {
		return nil, errors.New("encoder unavailable")
	}
	s.batches = append(s.batches, len(texts))
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := s.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no canned vector for %q", text)
		}
		out[i] = append([]float32(nil), vec...)
	}
	return out, nil
}

func (s *stubEncoder) ModelID() string { return "stub-encoder" }

func denseCorpus() []corpus.Entry {
	return []corpus.Entry{
		{Title: "cardio", Text: "heart"},
		{Title: "renal", Text: "kidney"},
		{Title: "mixed", Text: "both"},
	}
}

func denseEncoder() *stubEncoder {
	return &stubEncoder{vectors: map[string][]float32{
		"heart":  {1, 0},
		"kidney": {0, 1},
		"both":   {3, 3},
		"pump":   {1, 0.1},
	}}
}

func TestDenseBuildAndRetrieveNormalized(t *testing.T) {
	ctx := context.Background()
	idx, err := BuildDenseIndex(ctx, denseCorpus(), denseEncoder(), DenseOptions{BatchSize: 2, Normalize: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if idx.Len() != 3 || idx.Dim() != 2 {
		t.Fatalf("unexpected index shape: len=%d dim=%d", idx.Len(), idx.Dim())
	}

	res, err := idx.Retrieve(ctx, "pump", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res))
	}
	// "pump" is nearly parallel to "heart"; with unit vectors its cosine to
	// row 0 beats the diagonal "both" row.
	if res[0].RowID != 0 {
		t.Fatalf("expected heart row first, got row %d", res[0].RowID)
	}
	if res[0].Score <= res[1].Score || res[1].Score < res[2].Score {
		t.Fatalf("results not sorted by descending similarity: %v", res)
	}
	if res[0].Score > 1.0+1e-9 {
		t.Fatalf("normalized similarity should not exceed 1.0, got %v", res[0].Score)
	}
}

func TestDenseNormalizeDisabledChangesRanking(t *testing.T) {
	ctx := context.Background()
	entries := []corpus.Entry{
		{Title: "long vector", Text: "both"},   // (3,3), large magnitude
		{Title: "unit vector", Text: "kidney"}, // (0,1)
	}

	raw, err := BuildDenseIndex(ctx, entries, denseEncoder(), DenseOptions{BatchSize: 8, Normalize: false})
	if err != nil {
		t.Fatalf("build raw: %v", err)
	}
	res, err := raw.Retrieve(ctx, "kidney", 2)
	if err != nil {
		t.Fatalf("retrieve raw: %v", err)
	}
	// Unnormalized dot product: (3,3)·(0,1)=3 beats (0,1)·(0,1)=1.
	if res[0].RowID != 0 {
		t.Fatalf("raw dot product should favor the large-magnitude row, got row %d", res[0].RowID)
	}

	cos, err := BuildDenseIndex(ctx, entries, denseEncoder(), DenseOptions{BatchSize: 8, Normalize: true})
	if err != nil {
		t.Fatalf("build normalized: %v", err)
	}
	res, err = cos.Retrieve(ctx, "kidney", 2)
	if err != nil {
		t.Fatalf("retrieve normalized: %v", err)
	}
	// Cosine: the exact match wins regardless of magnitude.
	if res[0].RowID != 1 {
		t.Fatalf("cosine should favor the exact-direction row, got row %d", res[0].RowID)
	}
	if math.Abs(res[0].Score-1.0) > 1e-6 {
		t.Fatalf("expected self-direction similarity 1.0, got %v", res[0].Score)
	}
}

func TestDenseBatching(t *testing.T) {
	enc := denseEncoder()
	entries := []corpus.Entry{
		{Text: "heart"}, {Text: "kidney"}, {Text: "both"}, {Text: "heart"}, {Text: "kidney"},
	}
	if _, err := BuildDenseIndex(context.Background(), entries, enc, DenseOptions{BatchSize: 2, Normalize: true}); err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []int{2, 2, 1}
	if len(enc.batches) != len(want) {
		t.Fatalf("expected %v batches, got %v", want, enc.batches)
	}
	for i := range want {
		if enc.batches[i] != want[i] {
			t.Fatalf("expected %v batches, got %v", want, enc.batches)
		}
	}
}

func TestDenseEmptyCorpus(t *testing.T) {
	enc := denseEncoder()
	idx, err := BuildDenseIndex(context.Background(), nil, enc, DenseOptions{BatchSize: 4, Normalize: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if idx.Len() != 0 || idx.Dim() != 0 {
		t.Fatalf("expected zero-row index, got len=%d dim=%d", idx.Len(), idx.Dim())
	}

	res, err := idx.Retrieve(context.Background(), "heart", 4)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("expected empty result, got %d", len(res))
	}
	if enc.calls != 0 {
		t.Fatalf("degenerate index must not touch the encoder, saw %d calls", enc.calls)
	}
}

func TestDenseBuildFailureIsModelLoadError(t *testing.T) {
	enc := denseEncoder()
	enc.failAt = 1
	_, err := BuildDenseIndex(context.Background(), denseCorpus(), enc, DenseOptions{BatchSize: 2, Normalize: true})
	if !errors.Is(err, ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad, got %v", err)
	}
}

func TestDenseInconsistentDimensions(t *testing.T) {
	enc := &stubEncoder{vectors: map[string][]float32{
		"heart":  {1, 0},
		"kidney": {0, 1, 2},
	}}
	entries := []corpus.Entry{{Text: "heart"}, {Text: "kidney"}}
	_, err := BuildDenseIndex(context.Background(), entries, enc, DenseOptions{BatchSize: 8, Normalize: false})
	if !errors.Is(err, ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad for inconsistent dims, got %v", err)
	}
}

func TestDenseQueryDimensionMismatch(t *testing.T) {
	enc := &stubEncoder{vectors: map[string][]float32{
		"heart": {1, 0},
		"wide":  {1, 0, 0},
	}}
	idx, err := BuildDenseIndex(context.Background(), []corpus.Entry{{Text: "heart"}}, enc, DenseOptions{BatchSize: 1, Normalize: false})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := idx.Retrieve(context.Background(), "wide", 1); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestDenseQueryEncodeFailure(t *testing.T) {
	enc := denseEncoder()
	idx, err := BuildDenseIndex(context.Background(), denseCorpus(), enc, DenseOptions{BatchSize: 8, Normalize: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	enc.failAt = enc.calls + 1
	if _, err := idx.Retrieve(context.Background(), "heart", 2); err == nil {
		t.Fatal("expected query encode error")
	}
}
