package rag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jgrady/notekb/internal/appconfig"
)

func writeKB(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kb.csv")
	if err := os.WriteFile(path, []byte(rows), 0o644); err != nil {
		t.Fatalf("write kb: %v", err)
	}
	return path
}

func TestBuildIndexDisabledSkipsCorpus(t *testing.T) {
	// The path is deliberately bogus: a disabled build must not read it.
	cfg := &appconfig.Config{
		RagEnabled: false,
		RagKBPath:  "/nonexistent/kb.csv",
		RagBackend: "lexical",
	}
	idx, err := BuildIndex(context.Background(), cfg)
	if err != nil {
		t.Fatalf("disabled build should not fail: %v", err)
	}
	if idx != nil {
		t.Fatal("disabled build must return a nil index")
	}
}

func TestBuildIndexNilConfig(t *testing.T) {
	_, err := BuildIndex(context.Background(), nil)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestBuildIndexMissingKBPath(t *testing.T) {
	cfg := &appconfig.Config{RagEnabled: true, RagBackend: "lexical"}
	_, err := BuildIndex(context.Background(), cfg)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestBuildIndexUnknownBackend(t *testing.T) {
	cfg := &appconfig.Config{
		RagEnabled: true,
		RagKBPath:  writeKB(t, "title,text\na,b\n"),
		RagBackend: "faiss",
	}
	_, err := BuildIndex(context.Background(), cfg)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestBuildIndexLexical(t *testing.T) {
	cfg := &appconfig.Config{
		RagEnabled: true,
		RagKBPath: writeKB(t, "title,text\n"+
			"Hypertension,elevated blood pressure monitoring\n"+
			"Asthma,inhaler technique review\n"),
		RagBackend: "lexical",
	}

	idx, err := BuildIndex(context.Background(), cfg)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if idx.Kind() != BackendLexical || idx.Len() != 2 {
		t.Fatalf("unexpected index: kind=%s len=%d", idx.Kind(), idx.Len())
	}

	res, err := idx.Retrieve(context.Background(), "blood pressure", 1)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(res) != 1 || res[0].Entry.Title != "Hypertension" {
		t.Fatalf("unexpected result: %v", res)
	}
}

func TestBuildIndexEmptyCorpus(t *testing.T) {
	cfg := &appconfig.Config{
		RagEnabled: true,
		RagKBPath:  writeKB(t, "title,text\n"),
		RagBackend: "lexical",
	}

	idx, err := BuildIndex(context.Background(), cfg)
	if err != nil {
		t.Fatalf("an empty knowledge base is still a valid index: %v", err)
	}
	res, err := idx.Retrieve(context.Background(), "anything", 4)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("expected no results from empty corpus, got %d", len(res))
	}
}

func TestBuildIndexDense(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		vecs := make([][]float32, len(req.Input))
		for i := range req.Input {
			vecs[i] = []float32{float32(len(req.Input[i])), 1}
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: vecs})
	}))
	defer server.Close()

	cfg := &appconfig.Config{
		RagEnabled:   true,
		RagKBPath:    writeKB(t, "title,text\na,short note\nb,a much longer clinical note\n"),
		RagBackend:   "dense",
		EmbedModelID: "all-minilm",
		EmbedHost:    server.URL,
	}

	idx, err := BuildIndex(context.Background(), cfg)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if idx.Kind() != BackendDense || idx.Len() != 2 || idx.Dim() != 2 {
		t.Fatalf("unexpected index: kind=%s len=%d dim=%d", idx.Kind(), idx.Len(), idx.Dim())
	}

	res, err := idx.Retrieve(context.Background(), "short note", 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
}

func TestBuildIndexDenseEncoderUnreachable(t *testing.T) {
	cfg := &appconfig.Config{
		RagEnabled:   true,
		RagKBPath:    writeKB(t, "title,text\na,b\n"),
		RagBackend:   "dense",
		EmbedModelID: "all-minilm",
		EmbedHost:    "http://127.0.0.1:1",
	}
	_, err := BuildIndex(context.Background(), cfg)
	if !errors.Is(err, ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad, got %v", err)
	}
}
