package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

// ollamaEngine talks to a local Ollama instance's /api/embeddings endpoint.
type ollamaEngine struct {
	endpoint string
	model    string
	client   *http.Client

	dims int
}

func newOllamaEngine(settings domain.EmbeddingSettings) *ollamaEngine {
	endpoint := strings.TrimSuffix(settings.Endpoint, "/")
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	model := settings.ModelID
	if model == "" {
		model = "nomic-embed-text"
	}
	return &ollamaEngine{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *ollamaEngine) Name() string { return "ollama/" + e.model }

// Dimensions reports the vector width of the last successful call, 0 before
// any call has succeeded.
func (e *ollamaEngine) Dimensions() int { return e.dims }

func (e *ollamaEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]string{
		"model":  e.model,
		"prompt": text,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.endpoint+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding request: status %d", resp.StatusCode)
	}

	var parsed struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding for model %s", e.model)
	}

	vec := make([]float32, len(parsed.Embedding))
	for i, v := range parsed.Embedding {
		vec[i] = float32(v)
	}
	e.dims = len(vec)
	return vec, nil
}

var _ ports.EmbeddingEngine = (*ollamaEngine)(nil)
