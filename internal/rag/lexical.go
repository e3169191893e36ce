package rag

import (
	"context"
	"math"
	"sort"
	"unicode"

	"github.com/jgrady/notekb/internal/corpus"
)

// LexicalIndex is the sparse TF-IDF backend. Building is deterministic:
// the same corpus always yields the same vocabulary, weights, and scores.
type LexicalIndex struct {
	entries []corpus.Entry
	vocab   map[string]int // term -> column in the fitted vector space
	idf     []float64      // aligned with vocab columns
	rows    []sparseVec    // one L2-normalized TF-IDF vector per entry
}

// sparseVec maps vocabulary column to weight. Terms absent from the map
// carry weight zero.
type sparseVec map[int]float64

// BuildLexicalIndex fits a TF-IDF vector space over the corpus body text.
// Weighting is the smoothed form idf(t) = ln((1+N)/(1+df)) + 1 with raw term
// counts, and every document vector is scaled to unit L2 norm, so the dot
// product of two transformed vectors is their cosine similarity and a
// verbatim self-match scores 1.0.
func BuildLexicalIndex(entries []corpus.Entry) *LexicalIndex {
	idx := &LexicalIndex{
		entries: entries,
		vocab:   make(map[string]int),
	}

	docTokens := make([][]string, len(entries))
	df := make(map[string]int)
	for i, e := range entries {
		tokens := tokenize(e.Text)
		docTokens[i] = tokens
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	// Assign vocabulary columns in deterministic (sorted) term order.
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	idx.idf = make([]float64, len(terms))
	n := float64(len(entries))
	for col, term := range terms {
		idx.vocab[term] = col
		idx.idf[col] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	idx.rows = make([]sparseVec, len(entries))
	for i, tokens := range docTokens {
		idx.rows[i] = idx.transform(tokens)
	}
	return idx
}

// transform maps tokens into the fitted vector space and L2-normalizes the
// result. Out-of-vocabulary tokens are ignored.
func (idx *LexicalIndex) transform(tokens []string) sparseVec {
	vec := make(sparseVec)
	for _, tok := range tokens {
		col, ok := idx.vocab[tok]
		if !ok {
			continue
		}
		vec[col]++
	}
	var sumSq float64
	for col, tf := range vec {
		w := tf * idx.idf[col]
		vec[col] = w
		sumSq += w * w
	}
	if sumSq > 0 {
		norm := math.Sqrt(sumSq)
		for col, w := range vec {
			vec[col] = w / norm
		}
	}
	return vec
}

// Retrieve ranks every corpus row by cosine similarity to the query and
// returns the topK best, ties broken by corpus order. An empty or fully
// out-of-vocabulary query transforms to the zero vector, every similarity is
// 0.0, and the first topK rows come back in corpus order.
func (idx *LexicalIndex) Retrieve(_ context.Context, query string, topK int) (Result, error) {
	if len(idx.entries) == 0 || topK <= 0 {
		return Result{}, nil
	}

	qvec := idx.transform(tokenize(query))
	scored := make(Result, len(idx.entries))
	for i, row := range idx.rows {
		scored[i] = ScoredEntry{
			Entry: idx.entries[i],
			Score: dotSparse(qvec, row),
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
func (idx *LexicalIndex) Len() int { return len(idx.entries) }

// Dim reports the fitted vocabulary size.
func (idx *LexicalIndex) Dim() int { return len(idx.vocab) }

// Kind reports the lexical backend tag.
func (idx *LexicalIndex) Kind() BackendKind { return BackendLexical }

func dotSparse(a, b sparseVec) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for col, w := range a {
		dot += w * b[col]
	}
	return dot
}

// tokenize lowercases the text and splits it into alphanumeric word tokens,
// dropping single-character tokens and English stop words.
func tokenize(text string) []string {
	var tokens []string
	var current []rune
	flush := func() {
		if len(current) < 2 {
			current = current[:0]
			return
		}
		tok := string(current)
		current = current[:0]
		if _, stop := englishStopWords[tok]; stop {
			return
		}
		tokens = append(tokens, tok)
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current = append(current, unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return tokens
}
