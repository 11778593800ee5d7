package handler

import (
	"context"
	"fmt"
	"strings"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/pkg/logger"
	"ai-query-router-be/pkg/llm"
)

// PromptHandler sends the category instructions, the conversation and the query to an LLM
type PromptHandler struct {
	category     entity.Category
	llmProvider  llm.LLMProvider
	instructions string
	logger       logger.ILogger
}

func NewPromptHandler(cfg entity.HandlerConfiguration, deps Dependencies) (Handler, error) {
	client, err := resolveLLM(cfg, deps)
	if err != nil {
		return nil, err
	}
	return &PromptHandler{
		category:     cfg.Category,
		llmProvider:  client,
		instructions: strings.TrimSpace(cfg.Instructions),
		logger:       loggerOrNop(deps),
	}, nil
}

func (h *PromptHandler) Category() entity.Category {
	return h.category
}

func (h *PromptHandler) Validate(req *Request) error {
	return ValidateRequest(req)
}

func (h *PromptHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	messages := buildMessages(h.systemPrompt(req), req)

	reply, err := h.llmProvider.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%s: llm call failed: %w", h.category, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return &Response{Success: false, Error: "model returned an empty reply"}, nil
	}

	h.logger.Debug("Handler", "Prompt handler replied", map[string]interface{}{
		"category": string(h.category),
		"messages": len(messages),
	})

	return &Response{
		Success:  true,
		Text:     reply,
		Metadata: map[string]string{"category": string(h.category)},
	}, nil
}

func (h *PromptHandler) systemPrompt(req *Request) string {
	parts := make([]string, 0, 3)
	if h.instructions != "" {
		parts = append(parts, h.instructions)
	}
	if note := roleNote(req); note != "" {
		parts = append(parts, note)
	}
	if note := fallbackNote(req); note != "" {
		parts = append(parts, note)
	}
	return strings.Join(parts, "\n\n")
}

// buildMessages lays out system prompt, history and the current query in chat order
func buildMessages(system string, req *Request) []llm.Message {
	messages := make([]llm.Message, 0, len(req.Context)+2)
	if system != "" {
		messages = append(messages, llm.Message{
			Role:    constant.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, req.Context...)
	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleUser,
		Content: boundedQuery(req.QueryText),
	})
	return messages
}
