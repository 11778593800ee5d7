package jina

import (
	"context"
	"fmt"
	"net/http"

	"ai-query-router-be/pkg/embedding"
)

const (
	defaultURL   = "https://api.jina.ai/v1/embeddings"
	defaultModel = "jina-embeddings-v3"
)

type JinaProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ embedding.EmbeddingProvider = &JinaProvider{}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
	Task  string   `json:"task,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func NewJinaProvider(apiKey string) *JinaProvider {
	return &JinaProvider{
		apiKey:  apiKey,
		baseURL: defaultURL,
		model:   defaultModel,
		client:  &http.Client{},
	}
}

func (p *JinaProvider) Model() string {
	return p.model
}

func (p *JinaProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	body := embeddingRequest{
		Model: p.model,
		Input: []string{text},
		Task:  jinaTask(taskType),
	}

	var out embeddingResponse
	if err := embedding.PostJSON(ctx, p.client, p.baseURL, map[string]string{"Authorization": "Bearer " + p.apiKey}, body, &out); err != nil {
		return nil, fmt.Errorf("jina embedding: %w", err)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("jina embedding: %w", embedding.ErrEmptyEmbedding)
	}

	res, err := embedding.NewResponse(out.Data[0].Embedding)
	if err != nil {
		return nil, fmt.Errorf("jina embedding: %w", err)
	}
	return res, nil
}

// jinaTask maps the shared task hints onto jina-embeddings-v3 LoRA adapters
func jinaTask(taskType string) string {
	switch taskType {
	case embedding.TaskQuery:
		return "retrieval.query"
	case embedding.TaskDocument:
		return "retrieval.passage"
	default:
		return ""
	}
}
