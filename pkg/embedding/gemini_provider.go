package embedding

import (
	"context"
	"fmt"
	"net/http"
)

const (
	geminiModel   = "text-embedding-004"
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1"
)

type GeminiProvider struct {
	ApiKey  string
	BaseURL string
	client  *http.Client
}

func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{
		ApiKey:  apiKey,
		BaseURL: geminiBaseURL,
		client:  &http.Client{},
	}
}

func (p *GeminiProvider) Model() string {
	return geminiModel
}

// Generate passes taskType through; Gemini embeds queries and documents asymmetrically
func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	body := EmbeddingRequest{
		Model:    "models/" + geminiModel,
		Content:  EmbeddingRequestContent{Parts: []EmbeddingRequestContentPart{{Text: text}}},
		TaskType: taskType,
	}

	var out EmbeddingResponse
	endpoint := fmt.Sprintf("%s/models/%s:embedContent", p.BaseURL, geminiModel)
	if err := PostJSON(ctx, p.client, endpoint, map[string]string{"x-goog-api-key": p.ApiKey}, body, &out); err != nil {
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}

	res, err := NewResponse(out.Embedding.Values)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}
	return res, nil
}
