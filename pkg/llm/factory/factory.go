package factory

import (
	"fmt"
	"sync"

	"ai-query-router-be/pkg/llm"
	"ai-query-router-be/pkg/llm/huggingface"
	"ai-query-router-be/pkg/llm/ollama"
	"ai-query-router-be/pkg/llm/openai"
)

const (
	ProviderOllama      = "ollama"
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
)

// Settings carries the endpoints and credentials of every supported backend
type Settings struct {
	DefaultProvider    string
	DefaultModel       string
	OllamaBaseURL      string
	HuggingFaceBaseURL string
	HuggingFaceAPIKey  string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
}

func NewLLMProvider(providerType, modelName string, s Settings) (llm.LLMProvider, error) {
	switch providerType {
	case ProviderOllama:
		baseURL := s.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case ProviderHuggingFace:
		return huggingface.NewHuggingFaceProvider(s.HuggingFaceAPIKey, s.HuggingFaceBaseURL, modelName), nil
	case ProviderOpenAI:
		if s.OpenAIAPIKey == "" && s.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return openai.NewOpenAIProvider(s.OpenAIAPIKey, s.OpenAIBaseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

// Pool hands out one client per (provider, model) pair, created on first use
type Pool struct {
	settings Settings

	mu      sync.Mutex
	clients map[string]llm.LLMProvider
}

func NewPool(s Settings) *Pool {
	return &Pool{
		settings: s,
		clients:  make(map[string]llm.LLMProvider),
	}
}

// Get resolves empty provider or model to the pool defaults
func (p *Pool) Get(providerType, modelName string) (llm.LLMProvider, error) {
	if providerType == "" {
		providerType = p.settings.DefaultProvider
	}
	if modelName == "" {
		modelName = p.settings.DefaultModel
	}
	key := providerType + "/" + modelName

	p.mu.Lock()
	defer p.mu.Unlock()

	if client, ok := p.clients[key]; ok {
		return client, nil
	}
	client, err := NewLLMProvider(providerType, modelName, p.settings)
	if err != nil {
		return nil, err
	}
	p.clients[key] = client
	return client, nil
}

// Register installs a prebuilt client, used for tests and custom backends
func (p *Pool) Register(providerType, modelName string, client llm.LLMProvider) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients[providerType+"/"+modelName] = client
}
