// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default timeout for embedding HTTP requests.
	defaultRequestTimeout = 120 * time.Second

	// DefaultTitleColumn is the knowledge-base column holding entry titles.
	DefaultTitleColumn = "title"
	// DefaultTextColumn is the knowledge-base column holding indexed body text.
	DefaultTextColumn = "text"
	// DefaultTopK is the number of ranked entries a retrieval call returns.
	DefaultTopK = 4
	// DefaultMaxContextChars caps the formatted context block handed to the prompt.
	DefaultMaxContextChars = 2500
	// DefaultEmbedMaxLength is the token truncation length for the dense encoder.
	DefaultEmbedMaxLength = 256
	// DefaultEmbedBatchSize is how many corpus rows are encoded per request.
	DefaultEmbedBatchSize = 32
)

// Backend identifiers accepted in Config.RagBackend.
const (
	BackendLexical = "lexical"
	BackendDense   = "dense"
)

// Device preferences accepted in Config.EmbedDevice.
const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// Validation errors surfaced by Config.Validate. Builds must not proceed past
// any of these: a half-configured index is worse than a loud startup failure.
var (
	ErrMissingKBPath      = errors.New("ragKBPath is required when ragEnabled is true")
	ErrInvalidBackend     = errors.New("ragBackend must be \"lexical\" or \"dense\"")
	ErrInvalidDevice      = errors.New("embedDevice must be \"auto\", \"cpu\", or \"cuda\"")
	ErrMissingEmbedModel  = errors.New("embedModelID is required for the dense backend")
	ErrMissingEmbedHost   = errors.New("embedHost is required for the dense backend")
	ErrInvalidMaxLength   = errors.New("embedMaxLength must be zero or greater")
	ErrInvalidBatchSize   = errors.New("embedBatchSize must be zero or greater")
	ErrInvalidTopK        = errors.New("topK must be zero or greater")
	ErrInvalidContextSize = errors.New("maxContextChars must be zero or greater")
)

// Config represents the top-level application configuration.
type Config struct {
	RagEnabled      bool   `json:"ragEnabled"`
	RagKBPath       string `json:"ragKBPath,omitempty"`
	RagTitleColumn  string `json:"ragTitleColumn,omitempty"`
	RagTextColumn   string `json:"ragTextColumn,omitempty"`
	RagBackend      string `json:"ragBackend,omitempty"`
	EmbedModelID    string `json:"embedModelID,omitempty"`
	EmbedHost       string `json:"embedHost,omitempty"`
	EmbedDevice     string `json:"embedDevice,omitempty"`
	EmbedMaxLength  int    `json:"embedMaxLength,omitempty"`
	EmbedBatchSize  int    `json:"embedBatchSize,omitempty"`
	EmbedNormalize  *bool  `json:"embedNormalize,omitempty"`
	TopK            int    `json:"topK,omitempty"`
	MaxContextChars int    `json:"maxContextChars,omitempty"`
	TimeoutSeconds  int    `json:"timeout,omitempty"`
	LogFile         string `json:"logFile,omitempty"`
	Debug           bool   `json:"debug"`
	ConfigPath      string `json:"-"`
}

// RequestTimeout returns the timeout duration for embedding HTTP requests,
// falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "notekb.log"
}

// TitleColumn returns the configured title column name or its default.
func (c Config) TitleColumn() string {
	if col := strings.TrimSpace(c.RagTitleColumn); col != "" {
		return col
	}
	return DefaultTitleColumn
}

// TextColumn returns the configured text column name or its default.
func (c Config) TextColumn() string {
	if col := strings.TrimSpace(c.RagTextColumn); col != "" {
		return col
	}
	return DefaultTextColumn
}

// Backend returns the normalized retrieval backend name, defaulting to lexical.
func (c Config) Backend() string {
	b := strings.ToLower(strings.TrimSpace(c.RagBackend))
	if b == "" {
		return BackendLexical
	}
	return b
}

// Device returns the normalized encoder device preference, defaulting to auto.
func (c Config) Device() string {
	d := strings.ToLower(strings.TrimSpace(c.EmbedDevice))
	if d == "" {
		return DeviceAuto
	}
	return d
}

// MaxLength returns the encoder truncation length or its default.
func (c Config) MaxLength() int {
	if c.EmbedMaxLength <= 0 {
		return DefaultEmbedMaxLength
	}
	return c.EmbedMaxLength
}

// BatchSize returns the encoder batch size or its default.
func (c Config) BatchSize() int {
	if c.EmbedBatchSize <= 0 {
		return DefaultEmbedBatchSize
	}
	return c.EmbedBatchSize
}

// Normalize reports whether dense vectors are scaled to unit L2 norm. Unset
// means true: with normalization on, the dot-product query is exactly cosine
// similarity, which is what callers expect by default.
func (c Config) Normalize() bool {
	if c.EmbedNormalize == nil {
		return true
	}
	return *c.EmbedNormalize
}

// RetrievalTopK returns the per-query result cap or its default.
func (c Config) RetrievalTopK() int {
	if c.TopK <= 0 {
		return DefaultTopK
	}
	return c.TopK
}

// ContextBudget returns the formatted-context character budget or its default.
func (c Config) ContextBudget() int {
	if c.MaxContextChars <= 0 {
		return DefaultMaxContextChars
	}
	return c.MaxContextChars
}

// Validate checks the configuration for values the retrieval engine cannot
// start with and returns the first problem found. A disabled configuration is
// always valid: retrieval is simply off for the process lifetime.
func (c Config) Validate() error {
	if !c.RagEnabled {
		return nil
	}
	if strings.TrimSpace(c.RagKBPath) == "" {
		return ErrMissingKBPath
	}
	switch c.Backend() {
	case BackendLexical:
	case BackendDense:
		if strings.TrimSpace(c.EmbedModelID) == "" {
			return ErrMissingEmbedModel
		}
		if strings.TrimSpace(c.EmbedHost) == "" {
			return ErrMissingEmbedHost
		}
		switch c.Device() {
		case DeviceAuto, DeviceCPU, DeviceCUDA:
		default:
			return fmt.Errorf("%w: got %q", ErrInvalidDevice, c.EmbedDevice)
		}
		if c.EmbedMaxLength < 0 {
			return ErrInvalidMaxLength
		}
		if c.EmbedBatchSize < 0 {
			return ErrInvalidBatchSize
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidBackend, c.RagBackend)
	}
	if c.TopK < 0 {
		return ErrInvalidTopK
	}
	if c.MaxContextChars < 0 {
		return ErrInvalidContextSize
	}
	return nil
}

// Load reads the application configuration from the specified path and
// validates it.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err != nil {
		return Config{}, err
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	config.ConfigPath = path
	return config, nil
}

func loadFromPath(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var config Config
	if err := json.Unmarshal(raw, &config); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}
