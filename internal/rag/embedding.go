package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jgrady/notekb/internal/appconfig"
)

// Encoder turns texts into fixed-size vectors. The encoder owns tokenization,
// truncation, and mean pooling over token states; the dense index owns
// batching, optional normalization, and matrix assembly. Implementations must
// encode queries through the identical pipeline used for corpus rows.
type Encoder interface {
	// EncodeBatch returns one vector per input text, in input order.
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
	// ModelID identifies the underlying encoder model.
	ModelID() string
}

// HTTPEncoder encodes text through an Ollama-compatible embedding server.
// The model, truncation length, and device preference are fixed at
// construction and reused for every call, so corpus and query vectors always
// come from the same pipeline.
type HTTPEncoder struct {
	client    *http.Client
	baseURL   string
	model     string
	maxLength int
	device    string
	timeout   time.Duration
}

// NewHTTPEncoder builds an encoder from the dense-backend configuration.
func NewHTTPEncoder(cfg *appconfig.Config) *HTTPEncoder {
	timeout := cfg.RequestTimeout()
	return &HTTPEncoder{
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(cfg.EmbedHost, "/"),
		model:     cfg.EmbedModelID,
		maxLength: cfg.MaxLength(),
		device:    cfg.Device(),
		timeout:   timeout,
	}
}

// ModelID returns the pinned embedding model identifier.
func (e *HTTPEncoder) ModelID() string { return e.model }

type embedRequest struct {
	Model    string         `json:"model"`
	Input    []string       `json:"input"`
	Truncate bool           `json:"truncate"`
	Options  map[string]any `json:"options,omitempty"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EncodeBatch posts one embedding request for the whole batch. Inputs are
// truncated server-side at the configured token length; the device
// preference maps onto the server's layer-offload option (cpu pins all
// compute on the CPU, cuda requests full offload, auto lets the server pick).
func (e *HTTPEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if strings.TrimSpace(e.model) == "" {
		return nil, fmt.Errorf("embedding model is empty")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	options := map[string]any{"num_ctx": e.maxLength}
	switch e.device {
	case appconfig.DeviceCPU:
		options["num_gpu"] = 0
	case appconfig.DeviceCUDA:
		options["num_gpu"] = 999
	}

	body, err := json.Marshal(embedRequest{
		Model:    e.model,
		Input:    texts,
		Truncate: true,
		Options:  options,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}

	var parsed embedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding response returned %d vectors for %d inputs", len(parsed.Embeddings), len(texts))
	}
	for i, vec := range parsed.Embeddings {
		if len(vec) == 0 {
			return nil, fmt.Errorf("embedding response returned empty vector at position %d", i)
		}
	}

	return parsed.Embeddings, nil
}
