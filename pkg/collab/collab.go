// Package collab defines the external collaborator contracts the ingest
// pipeline suspends on: embedding generation and breach lookups, plus
// in-memory stubs for tests and HTTP-backed implementations for an Ollama
// embedding endpoint and the HaveIBeenPwned breach API.
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jeleniel/breachcorpus/pkg/store"
)

// Embedder produces a vector embedding for an address's plaintext form.
// Implementations are expected to be called under a bounded context and to
// return a wrapped error (never panic) on failure; the pipeline logs and
// continues rather than failing the row.
type Embedder interface {
	Embed(ctx context.Context, plaintextEmail string) ([]float32, error)
}

// BreachLookup retrieves known breaches an address has appeared in.
type BreachLookup interface {
	Lookup(ctx context.Context, plaintextEmail string) ([]store.BreachRecord, error)
}

// MemoryEmbedder is a deterministic in-memory Embedder for tests and
// offline runs; it never calls out to a network service.
type MemoryEmbedder struct {
	Vectors map[string][]float32
}

// NewMemoryEmbedder builds an empty MemoryEmbedder.
func NewMemoryEmbedder() *MemoryEmbedder {
	return &MemoryEmbedder{Vectors: make(map[string][]float32)}
}

// Embed returns the preloaded vector for plaintextEmail, or a zero vector
// of length 8 if none was preloaded.
func (m *MemoryEmbedder) Embed(_ context.Context, plaintextEmail string) ([]float32, error) {
	if v, ok := m.Vectors[plaintextEmail]; ok {
		return v, nil
	}
	return make([]float32, 8), nil
}

// MemoryBreachLookup is an in-memory BreachLookup for tests and offline
// runs.
type MemoryBreachLookup struct {
	Breaches map[string][]store.BreachRecord
}

// NewMemoryBreachLookup builds an empty MemoryBreachLookup.
func NewMemoryBreachLookup() *MemoryBreachLookup {
	return &MemoryBreachLookup{Breaches: make(map[string][]store.BreachRecord)}
}

// Lookup returns the preloaded breach records for plaintextEmail, or nil
// if none were preloaded.
func (m *MemoryBreachLookup) Lookup(_ context.Context, plaintextEmail string) ([]store.BreachRecord, error) {
	return m.Breaches[plaintextEmail], nil
}

// OllamaEmbedder calls a local Ollama server's /api/embeddings endpoint.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaEmbedder builds an OllamaEmbedder pointed at baseURL (e.g.
// "http://localhost:11434") using model for embedding generation.
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed requests an embedding for plaintextEmail from the Ollama server.
func (o *OllamaEmbedder) Embed(ctx context.Context, plaintextEmail string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: o.model, Prompt: plaintextEmail})
	if err != nil {
		return nil, fmt.Errorf("collab: marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("collab: build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("collab: ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("collab: ollama returned status %d", resp.StatusCode)
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("collab: decode ollama response: %w", err)
	}
	return out.Embedding, nil
}

// HIBPClient calls the HaveIBeenPwned breached-account API.
type HIBPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHIBPClient builds a HIBPClient authenticated with apiKey.
func NewHIBPClient(apiKey string) *HIBPClient {
	return &HIBPClient{
		baseURL: "https://haveibeenpwned.com/api/v3",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type hibpBreach struct {
	Name         string `json:"Name"`
	Title        string `json:"Title"`
	Domain       string `json:"Domain"`
	BreachDate   string `json:"BreachDate"`
	PwnCount     int64  `json:"PwnCount"`
	Description  string `json:"Description"`
	IsVerified   bool   `json:"IsVerified"`
	IsFabricated bool   `json:"IsFabricated"`
	IsSensitive  bool   `json:"IsSensitive"`
	IsRetired    bool   `json:"IsRetired"`
}

// Lookup queries HIBP for breaches associated with plaintextEmail. A 404
// response means no breaches are known and is not an error.
func (h *HIBPClient) Lookup(ctx context.Context, plaintextEmail string) ([]store.BreachRecord, error) {
	url := fmt.Sprintf("%s/breachedaccount/%s?truncateResponse=false", h.baseURL, plaintextEmail)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("collab: build hibp request: %w", err)
	}
	req.Header.Set("hibp-api-key", h.apiKey)
	req.Header.Set("User-Agent", "breachcorpus-ingest")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("collab: hibp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("collab: hibp returned status %d", resp.StatusCode)
	}

	var breaches []hibpBreach
	if err := json.NewDecoder(resp.Body).Decode(&breaches); err != nil {
		return nil, fmt.Errorf("collab: decode hibp response: %w", err)
	}

	records := make([]store.BreachRecord, 0, len(breaches))
	for _, b := range breaches {
		pwnCount := b.PwnCount
		rec := store.BreachRecord{
			BreachName:  b.Name,
			Title:       b.Title,
			Domain:      b.Domain,
			PwnCount:    &pwnCount,
			Description: b.Description,
			Flags: store.BreachFlags{
				Verified:   b.IsVerified,
				Fabricated: b.IsFabricated,
				Sensitive:  b.IsSensitive,
				Retired:    b.IsRetired,
			},
		}
		if t, err := time.Parse("2006-01-02", b.BreachDate); err == nil {
			rec.Date = &t
		}
		records = append(records, rec)
	}
	return records, nil
}
