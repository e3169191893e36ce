// internal/corpus/corpus.go
// Package corpus loads the knowledge-base table backing the retrieval engine.
package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load errors. ErrMissingColumn is a configuration problem (the table exists
// but lacks the configured columns); ErrCorpusLoad covers I/O and parse
// failures. Both are fatal at startup.
var (
	ErrCorpusLoad    = errors.New("corpus load failed")
	ErrMissingColumn = errors.New("corpus is missing a required column")
)

// Entry is one knowledge-base record. Its row id is its position in the
// loaded corpus; that id is stable for one index lifetime only and must not
// be treated as a durable identifier across rebuilds.
type Entry struct {
	Title string
	Text  string
}

// Load reads the knowledge-base CSV at path, which is either a local file
// path or an s3://bucket/key URI, and returns its rows in file order. The
// header row must contain titleCol and textCol; missing cell values become
// empty strings so downstream string assembly never deals with nulls.
func Load(ctx context.Context, path, titleCol, textCol string) ([]Entry, error) {
	reader, err := open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorpusLoad, path, err)
	}
	defer reader.Close()

	entries, err := parseCSV(reader, titleCol, textCol)
	if err != nil {
		if errors.Is(err, ErrMissingColumn) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorpusLoad, path, err)
	}
	return entries, nil
}

func open(ctx context.Context, path string) (io.ReadCloser, error) {
	if strings.HasPrefix(path, "s3://") {
		return fetchS3(ctx, path)
	}
	return os.Open(path)
}

func parseCSV(r io.Reader, titleCol, textCol string) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty table", ErrMissingColumn)
	}
	if err != nil {
		return nil, err
	}

	titleIdx, textIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case titleCol:
			titleIdx = i
		case textCol:
			textIdx = i
		}
	}
	if titleIdx < 0 || textIdx < 0 {
		return nil, fmt.Errorf("%w: need %q and %q, found %v", ErrMissingColumn, titleCol, textCol, header)
	}

	var entries []Entry
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Title: field(record, titleIdx),
			Text:  field(record, textIdx),
		})
	}
	return entries, nil
}

// field returns the cell at idx, or "" for short rows.
func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}
