package factory

import (
	"fmt"

	"ai-query-router-be/pkg/embedding"
	"ai-query-router-be/pkg/embedding/jina"
	"ai-query-router-be/pkg/embedding/openai"
)

type Settings struct {
	OllamaBaseURL string
	OllamaModel   string
	GeminiAPIKey  string
	JinaAPIKey    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

func NewEmbeddingProvider(providerType string, s Settings) (embedding.EmbeddingProvider, error) {
	switch providerType {
	case "ollama":
		return embedding.NewOllamaProvider(s.OllamaBaseURL, s.OllamaModel), nil
	case "gemini":
		if s.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini embedding requires GOOGLE_GEMINI_API_KEY")
		}
		return embedding.NewGeminiProvider(s.GeminiAPIKey), nil
	case "jina":
		if s.JinaAPIKey == "" {
			return nil, fmt.Errorf("jina embedding requires JINA_API_KEY")
		}
		return jina.NewJinaProvider(s.JinaAPIKey), nil
	case "openai":
		if s.OpenAIAPIKey == "" && s.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("openai embedding requires OPENAI_API_KEY")
		}
		return openai.NewOpenAIProvider(s.OpenAIAPIKey, s.OpenAIBaseURL, s.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
