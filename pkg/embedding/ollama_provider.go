package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "nomic-embed-text"
)

// OllamaProvider implements EmbeddingProvider for local Ollama models (e.g., nomic-embed-text)
type OllamaProvider struct {
	BaseURL   string
	ModelName string
	client    *http.Client
}

func NewOllamaProvider(baseURL string, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ModelName: model,
		client:    &http.Client{},
	}
}

func (p *OllamaProvider) Model() string {
	return p.ModelName
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Generate ignores taskType; nomic style models take no task hint
func (p *OllamaProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	var out ollamaEmbeddingResponse
	err := PostJSON(ctx, p.client, p.BaseURL+"/api/embeddings", nil,
		ollamaEmbeddingRequest{Model: p.ModelName, Prompt: text}, &out)
	if err != nil {
		return nil, fmt.Errorf("ollama embedding %s: %w", p.ModelName, err)
	}

	values := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		values[i] = float32(v)
	}
	res, err := NewResponse(values)
	if err != nil {
		return nil, fmt.Errorf("ollama embedding %s: %w", p.ModelName, err)
	}
	return res, nil
}
