// internal/appconfig/appconfig_test.go
package appconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoad verifies that Load handles valid configurations, invalid JSON,
// invalid retrieval settings, and missing files.
func TestLoad(t *testing.T) {
	validConfig := `{
        "ragEnabled": true,
        "ragKBPath": "testdata/kb.csv",
        "ragBackend": "lexical"
    }`
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if !cfg.RagEnabled {
		t.Fatal("expected ragEnabled to be true")
	}
	if cfg.Backend() != BackendLexical {
		t.Fatalf("expected lexical backend, got %s", cfg.Backend())
	}
	if cfg.RequestTimeout() != 120*time.Second {
		t.Fatalf("expected default request timeout of 120s, got %v", cfg.RequestTimeout())
	}

	if _, err := Load(writeConfig(t, `{ "ragEnabled": [`)); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}

	missingPath := `{ "ragEnabled": true }`
	if _, err := Load(writeConfig(t, missingPath)); !errors.Is(err, ErrMissingKBPath) {
		t.Fatalf("Load() without KB path: expected ErrMissingKBPath, got %v", err)
	}

	if _, err := Load("nonexistent.json"); err == nil {
		t.Fatal("Load() with nonexistent file should have failed")
	}
}

// TestDefaults verifies the fall-back values for every optional knob.
func TestDefaults(t *testing.T) {
	var cfg Config
	if got := cfg.TitleColumn(); got != "title" {
		t.Fatalf("TitleColumn default = %q", got)
	}
	if got := cfg.TextColumn(); got != "text" {
		t.Fatalf("TextColumn default = %q", got)
	}
	if got := cfg.Backend(); got != BackendLexical {
		t.Fatalf("Backend default = %q", got)
	}
	if got := cfg.Device(); got != DeviceAuto {
		t.Fatalf("Device default = %q", got)
	}
	if got := cfg.MaxLength(); got != 256 {
		t.Fatalf("MaxLength default = %d", got)
	}
	if got := cfg.BatchSize(); got != 32 {
		t.Fatalf("BatchSize default = %d", got)
	}
	if !cfg.Normalize() {
		t.Fatal("Normalize default should be true")
	}
	if got := cfg.RetrievalTopK(); got != 4 {
		t.Fatalf("RetrievalTopK default = %d", got)
	}
	if got := cfg.ContextBudget(); got != 2500 {
		t.Fatalf("ContextBudget default = %d", got)
	}
	if got := cfg.LogFilePath(); got != "notekb.log" {
		t.Fatalf("LogFilePath default = %q", got)
	}
}

func TestNormalizeExplicitFalse(t *testing.T) {
	off := false
	cfg := Config{EmbedNormalize: &off}
	if cfg.Normalize() {
		t.Fatal("expected Normalize() to honor explicit false")
	}
}

// TestValidate covers the startup-fatal configuration errors.
func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"disabled is always valid", Config{RagBackend: "bogus"}, nil},
		{"enabled without path", Config{RagEnabled: true}, ErrMissingKBPath},
		{"unknown backend", Config{RagEnabled: true, RagKBPath: "kb.csv", RagBackend: "bm25"}, ErrInvalidBackend},
		{"dense without model", Config{RagEnabled: true, RagKBPath: "kb.csv", RagBackend: "dense", EmbedHost: "http://localhost:11434"}, ErrMissingEmbedModel},
		{"dense without host", Config{RagEnabled: true, RagKBPath: "kb.csv", RagBackend: "dense", EmbedModelID: "all-minilm"}, ErrMissingEmbedHost},
		{"dense bad device", Config{RagEnabled: true, RagKBPath: "kb.csv", RagBackend: "dense", EmbedModelID: "all-minilm", EmbedHost: "http://localhost:11434", EmbedDevice: "tpu"}, ErrInvalidDevice},
		{"lexical ok", Config{RagEnabled: true, RagKBPath: "kb.csv", RagBackend: "lexical"}, nil},
		{"dense ok", Config{RagEnabled: true, RagKBPath: "kb.csv", RagBackend: "dense", EmbedModelID: "all-minilm", EmbedHost: "http://localhost:11434"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestBackendNormalization(t *testing.T) {
	cfg := Config{RagBackend: "  Dense "}
	if got := cfg.Backend(); got != BackendDense {
		t.Fatalf("expected normalized backend, got %q", got)
	}
}

func TestShowConfigDense(t *testing.T) {
	normalize := false
	cfg := Config{
		RagEnabled:   true,
		RagKBPath:    "s3://kb-bucket/kb.csv",
		RagBackend:   "dense",
		EmbedModelID: "all-minilm",
		EmbedHost:    "http://localhost:11434",
		EmbedNormalize: &normalize,
	}
	var b strings.Builder
	ShowConfig(&b, "config/config.json", &cfg, Config{})
	out := b.String()
	for _, want := range []string{"s3://kb-bucket/kb.csv", "dense", "all-minilm", "Embed Normalize:  false"} {
		if !strings.Contains(out, want) {
			t.Fatalf("ShowConfig output missing %q:\n%s", want, out)
		}
	}
}
