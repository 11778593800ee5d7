package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/pkg/logger"
	"ai-query-router-be/pkg/llm"
	"ai-query-router-be/pkg/utils"
)

var ErrInvalidRequest = errors.New("handler: invalid request")

// Request is what every handler receives, whatever its implementation
type Request struct {
	QueryID   uuid.UUID
	QueryText string
	UserID    string
	SessionID string
	// Role is an optional specialisation hint from the caller, empty when unset
	Role string
	// Context holds prior conversation turns, oldest first
	Context  []llm.Message
	Metadata map[string]string
}

type roleKey struct{}

// WithRole attaches a role hint that the router copies onto every handler request
func WithRole(ctx context.Context, role string) context.Context {
	role = strings.TrimSpace(role)
	if role == "" {
		return ctx
	}
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFromContext returns the hint set by WithRole, or ""
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}

// Response is a handler answer. Success=false with a nil error is a handler reported failure.
type Response struct {
	Success  bool
	Text     string
	Sources  []string
	Metadata map[string]string
	Error    string
}

// Handler is the single capability contract the registry and router depend on
type Handler interface {
	Category() entity.Category
	Validate(req *Request) error
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// LLMResolver hands out generation clients by provider and model
type LLMResolver interface {
	Get(providerType, modelName string) (llm.LLMProvider, error)
}

type Dependencies struct {
	LLM    LLMResolver
	Logger logger.ILogger
}

// Factory builds a handler for one category configuration
type Factory func(cfg entity.HandlerConfiguration, deps Dependencies) (Handler, error)

// Builtins maps implementation identifiers to their factories
func Builtins() map[string]Factory {
	return map[string]Factory{
		constant.ImplementationPrompt:    NewPromptHandler,
		constant.ImplementationKnowledge: NewKnowledgeHandler,
		constant.ImplementationStatic:    NewStaticHandler,
	}
}

// ValidateRequest holds the checks shared by all built-in handlers
func ValidateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.QueryText) == "" {
		return fmt.Errorf("%w: empty query text", ErrInvalidRequest)
	}
	return nil
}

// boundedQuery re-applies the word ceiling; queries normally arrive already truncated
func boundedQuery(text string) string {
	bounded, _ := utils.TruncateWords(text, constant.MaxQueryWords)
	return bounded
}

func resolveLLM(cfg entity.HandlerConfiguration, deps Dependencies) (llm.LLMProvider, error) {
	if deps.LLM == nil {
		return nil, fmt.Errorf("%s: no LLM resolver available", cfg.Category)
	}
	client, err := deps.LLM.Get(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Category, err)
	}
	return client, nil
}

func loggerOrNop(deps Dependencies) logger.ILogger {
	if deps.Logger == nil {
		return logger.NewNopLogger()
	}
	return deps.Logger
}

// roleNote asks the model to answer in the caller's requested capacity
func roleNote(req *Request) string {
	role := strings.TrimSpace(req.Role)
	if role == "" {
		return ""
	}
	return fmt.Sprintf("Answer as a %s.", utils.TruncateRunes(role, 64))
}

// fallbackNote tells the model it is answering on behalf of a failed specialist
func fallbackNote(req *Request) string {
	reason, ok := req.Metadata[constant.MetadataFallbackReason]
	if !ok {
		return ""
	}
	original := req.Metadata[constant.MetadataOriginalCategory]
	return fmt.Sprintf("The %s specialist could not answer (%s). Help the user as well as you can and be upfront about any limits.",
		original, utils.TruncateLog(reason, 200))
}
