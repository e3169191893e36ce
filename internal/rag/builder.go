package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/jgrady/notekb/internal/appconfig"
	"github.com/jgrady/notekb/internal/corpus"
	"github.com/jgrady/notekb/internal/logging"
)

// Build-time errors. Both are fatal: the process either starts with a fully
// built index or with retrieval cleanly disabled, never with a silently
// degraded one.
var (
	ErrConfiguration = errors.New("retrieval configuration invalid")
	ErrModelLoad     = errors.New("embedding model load failed")
)

// BuildIndex constructs the process-lifetime retrieval index described by the
// configuration, or returns (nil, nil) when retrieval is disabled. A disabled
// configuration is cheap: no corpus read, no encoder construction. All build
// failures propagate; callers must treat them as fatal startup errors.
func BuildIndex(ctx context.Context, cfg *appconfig.Config) (Index, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConfiguration)
	}
	if !cfg.RagEnabled {
		logging.LogEvent("[RAG] retrieval disabled, skipping index build")
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	entries, err := corpus.Load(ctx, cfg.RagKBPath, cfg.TitleColumn(), cfg.TextColumn())
	if err != nil {
		return nil, err
	}
	logging.LogEvent("[RAG] building index: backend=%s kb_rows=%d title_col=%s text_col=%s kb_path=%s",
		cfg.Backend(), len(entries), cfg.TitleColumn(), cfg.TextColumn(), cfg.RagKBPath)

	switch cfg.Backend() {
	case appconfig.BackendLexical:
		idx := BuildLexicalIndex(entries)
		logging.LogRetrieval("build", string(BackendLexical), "tfidf",
			fmt.Sprintf("kb_rows=%d vocab=%d", idx.Len(), idx.Dim()))
		return idx, nil

	case appconfig.BackendDense:
		enc := NewHTTPEncoder(cfg)
		idx, err := BuildDenseIndex(ctx, entries, enc, DenseOptions{
			BatchSize: cfg.BatchSize(),
			Normalize: cfg.Normalize(),
		})
		if err != nil {
			return nil, err
		}
		logging.LogRetrieval("build", string(BackendDense), enc.ModelID(),
			fmt.Sprintf("kb_rows=%d dim=%d device=%s batch=%d maxlen=%d normalize=%v",
				idx.Len(), idx.Dim(), cfg.Device(), cfg.BatchSize(), cfg.MaxLength(), cfg.Normalize()))
		return idx, nil
	}

	return nil, fmt.Errorf("%w: unknown backend %q", ErrConfiguration, cfg.RagBackend)
}
