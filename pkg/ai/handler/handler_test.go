package handler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/pkg/llm"
)

type recordingLLM struct {
	reply   string
	err     error
	history []llm.Message
}

func (r *recordingLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	r.history = history
	return r.reply, r.err
}

func (r *recordingLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return r.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

type staticResolver struct {
	client llm.LLMProvider
	err    error
	asked  []string
}

func (s *staticResolver) Get(providerType, modelName string) (llm.LLMProvider, error) {
	s.asked = append(s.asked, providerType+"/"+modelName)
	return s.client, s.err
}

func baseConfig(category entity.Category, impl string) entity.HandlerConfiguration {
	return entity.HandlerConfiguration{
		Category:       category,
		Implementation: impl,
		Provider:       "ollama",
		Model:          "llama3",
		Timeout:        time.Second,
		Enabled:        true,
		Resources:      map[string]string{},
	}
}

func TestBuiltins(t *testing.T) {
	b := Builtins()
	assert.Len(t, b, 3)
	for _, id := range []string{constant.ImplementationPrompt, constant.ImplementationKnowledge, constant.ImplementationStatic} {
		assert.Contains(t, b, id)
	}
}

func TestValidateRequest(t *testing.T) {
	assert.ErrorIs(t, ValidateRequest(nil), ErrInvalidRequest)
	assert.ErrorIs(t, ValidateRequest(&Request{QueryText: " "}), ErrInvalidRequest)
	assert.NoError(t, ValidateRequest(&Request{QueryText: "hi"}))
}

func TestPromptHandlerBuildsConversation(t *testing.T) {
	fake := &recordingLLM{reply: "  Here is the plan.  "}
	resolver := &staticResolver{client: fake}
	cfg := baseConfig(entity.CategoryProblemSolving, constant.ImplementationPrompt)
	cfg.Instructions = "Think step by step."

	h, err := NewPromptHandler(cfg, Dependencies{LLM: resolver})
	require.NoError(t, err)
	assert.Equal(t, entity.CategoryProblemSolving, h.Category())
	assert.Equal(t, []string{"ollama/llama3"}, resolver.asked)

	resp, err := h.Handle(context.Background(), &Request{
		QueryID:   uuid.New(),
		QueryText: "why does the build fail",
		Context: []llm.Message{
			{Role: "user", Content: "earlier question"},
			{Role: "assistant", Content: "earlier answer"},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Here is the plan.", resp.Text)

	require.Len(t, fake.history, 4)
	assert.Equal(t, "system", fake.history[0].Role)
	assert.Equal(t, "Think step by step.", fake.history[0].Content)
	assert.Equal(t, "earlier question", fake.history[1].Content)
	assert.Equal(t, "why does the build fail", fake.history[3].Content)
}

func TestPromptHandlerFallbackContext(t *testing.T) {
	fake := &recordingLLM{reply: "ok"}
	h, err := NewPromptHandler(baseConfig(entity.CategoryGeneralChat, constant.ImplementationPrompt), Dependencies{LLM: &staticResolver{client: fake}})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), &Request{
		QueryText: "what is our travel policy",
		Metadata: map[string]string{
			constant.MetadataFallbackReason:   "handler timed out",
			constant.MetadataOriginalCategory: "DOMAIN_KNOWLEDGE",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "system", fake.history[0].Role)
	assert.Contains(t, fake.history[0].Content, "DOMAIN_KNOWLEDGE")
	assert.Contains(t, fake.history[0].Content, "handler timed out")
}

func TestPromptHandlerRoleHint(t *testing.T) {
	fake := &recordingLLM{reply: "ok"}
	cfg := baseConfig(entity.CategoryProblemSolving, constant.ImplementationPrompt)
	cfg.Instructions = "Think step by step."
	h, err := NewPromptHandler(cfg, Dependencies{LLM: &staticResolver{client: fake}})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), &Request{QueryText: "why is the queue backing up", Role: "  site reliability engineer "})
	require.NoError(t, err)
	assert.Equal(t, "Think step by step.\n\nAnswer as a site reliability engineer.", fake.history[0].Content)

	_, err = h.Handle(context.Background(), &Request{QueryText: "why is the queue backing up"})
	require.NoError(t, err)
	assert.Equal(t, "Think step by step.", fake.history[0].Content, "no role, no hint")
}

func TestRoleContext(t *testing.T) {
	ctx := WithRole(context.Background(), " analyst ")
	assert.Equal(t, "analyst", RoleFromContext(ctx))

	blank := context.Background()
	assert.Equal(t, blank, WithRole(blank, "   "))
	assert.Empty(t, RoleFromContext(blank))
}

func TestPromptHandlerTruncatesLongQuery(t *testing.T) {
	fake := &recordingLLM{reply: "ok"}
	h, err := NewPromptHandler(baseConfig(entity.CategoryGeneralChat, constant.ImplementationPrompt), Dependencies{LLM: &staticResolver{client: fake}})
	require.NoError(t, err)

	long := strings.Repeat("word ", 1200)
	_, err = h.Handle(context.Background(), &Request{QueryText: long})
	require.NoError(t, err)
	assert.Len(t, strings.Fields(fake.history[len(fake.history)-1].Content), 1000)
}

func TestPromptHandlerFailures(t *testing.T) {
	h, err := NewPromptHandler(baseConfig(entity.CategoryGeneralChat, constant.ImplementationPrompt),
		Dependencies{LLM: &staticResolver{client: &recordingLLM{err: errors.New("boom")}}})
	require.NoError(t, err)
	_, err = h.Handle(context.Background(), &Request{QueryText: "hi"})
	assert.ErrorContains(t, err, "boom")

	h, err = NewPromptHandler(baseConfig(entity.CategoryGeneralChat, constant.ImplementationPrompt),
		Dependencies{LLM: &staticResolver{client: &recordingLLM{reply: "   "}}})
	require.NoError(t, err)
	resp, err := h.Handle(context.Background(), &Request{QueryText: "hi"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)

	_, err = NewPromptHandler(baseConfig(entity.CategoryGeneralChat, constant.ImplementationPrompt),
		Dependencies{LLM: &staticResolver{err: errors.New("unsupported LLM provider: bard")}})
	assert.ErrorContains(t, err, "unsupported LLM provider")

	_, err = NewPromptHandler(baseConfig(entity.CategoryGeneralChat, constant.ImplementationPrompt), Dependencies{})
	assert.Error(t, err)
}

func TestStaticHandler(t *testing.T) {
	cfg := baseConfig(entity.CategoryAutomation, constant.ImplementationStatic)
	_, err := NewStaticHandler(cfg, Dependencies{})
	assert.Error(t, err)

	cfg.Resources[constant.ResourceReply] = "Automation requests go to the ops queue."
	h, err := NewStaticHandler(cfg, Dependencies{})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), &Request{QueryText: "run the backup"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Automation requests go to the ops queue.", resp.Text)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Handle(ctx, &Request{QueryText: "run the backup"})
	assert.ErrorIs(t, err, context.Canceled)
}

const handbook = `# Leave

Full-time employees accrue 20 days of paid vacation per calendar year.

Parental leave is 16 weeks at full pay.

# Expenses

Expenses up to 500 EUR are approved by the direct manager.
Anything above requires finance approval.
`

func writeKnowledgeBase(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "handbook.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestKnowledgeHandlerGroundsAnswer(t *testing.T) {
	fake := &recordingLLM{reply: "Managers approve up to 500 EUR (Expenses)."}
	cfg := baseConfig(entity.CategoryDomainKnowledge, constant.ImplementationKnowledge)
	cfg.Resources[constant.ResourceKnowledgeBase] = writeKnowledgeBase(t, handbook)

	h, err := NewKnowledgeHandler(cfg, Dependencies{LLM: &staticResolver{client: fake}})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), &Request{QueryText: "who approves expenses above 500?"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"handbook.md#Expenses"}, resp.Sources)

	system := fake.history[0].Content
	assert.Contains(t, system, "<reference_material>")
	assert.Contains(t, system, "finance approval")
	assert.NotContains(t, system, "Parental leave")
}

func TestKnowledgeHandlerNoMatch(t *testing.T) {
	fake := &recordingLLM{reply: "unused"}
	cfg := baseConfig(entity.CategoryDomainKnowledge, constant.ImplementationKnowledge)
	cfg.Resources[constant.ResourceKnowledgeBase] = writeKnowledgeBase(t, handbook)

	h, err := NewKnowledgeHandler(cfg, Dependencies{LLM: &staticResolver{client: fake}})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), &Request{QueryText: "quantum chromodynamics"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Nil(t, fake.history, "the model is not called without grounding")
}

func TestKnowledgeHandlerConstruction(t *testing.T) {
	cfg := baseConfig(entity.CategoryDomainKnowledge, constant.ImplementationKnowledge)
	deps := Dependencies{LLM: &staticResolver{client: &recordingLLM{}}}

	_, err := NewKnowledgeHandler(cfg, deps)
	assert.ErrorContains(t, err, "knowledge_base")

	cfg.Resources[constant.ResourceKnowledgeBase] = filepath.Join(t.TempDir(), "missing.md")
	_, err = NewKnowledgeHandler(cfg, deps)
	assert.ErrorContains(t, err, "read knowledge base")

	cfg.Resources[constant.ResourceKnowledgeBase] = writeKnowledgeBase(t, "\n\n# Only a heading\n\n")
	_, err = NewKnowledgeHandler(cfg, deps)
	assert.ErrorContains(t, err, "empty")
}
