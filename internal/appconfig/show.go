package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config, fallback Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	fmt.Fprintln(out, "Current configuration:")
	if cfg == nil {
		cfg = &fallback
	}

	fmt.Fprintf(out, "  Debug:            %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:         %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Retrieval:        %v\n", cfg.RagEnabled)
	if !cfg.RagEnabled {
		return
	}

	fmt.Fprintf(out, "  KB Path:          %s\n", cfg.RagKBPath)
	fmt.Fprintf(out, "  Title Column:     %s\n", cfg.TitleColumn())
	fmt.Fprintf(out, "  Text Column:      %s\n", cfg.TextColumn())
	fmt.Fprintf(out, "  Backend:          %s\n", cfg.Backend())
	fmt.Fprintf(out, "  Top K:            %d\n", cfg.RetrievalTopK())
	fmt.Fprintf(out, "  Context Budget:   %d chars\n", cfg.ContextBudget())
	if cfg.Backend() == BackendDense {
		fmt.Fprintf(out, "  Embed Model:      %s\n", cfg.EmbedModelID)
		fmt.Fprintf(out, "  Embed Host:       %s\n", cfg.EmbedHost)
		fmt.Fprintf(out, "  Embed Device:     %s\n", cfg.Device())
		fmt.Fprintf(out, "  Embed Max Length: %d tokens\n", cfg.MaxLength())
		fmt.Fprintf(out, "  Embed Batch Size: %d\n", cfg.BatchSize())
		fmt.Fprintf(out, "  Embed Normalize:  %v\n", cfg.Normalize())
		fmt.Fprintf(out, "  Request Timeout:  %s\n", cfg.RequestTimeout())
	}
}
