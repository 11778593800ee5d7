package handler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/pkg/logger"
	"ai-query-router-be/pkg/llm"
	"ai-query-router-be/pkg/utils"
)

const maxGroundingPassages = 3

type passage struct {
	section string
	text    string
	terms   map[string]struct{}
}

// KnowledgeHandler grounds answers in a local knowledge base file
type KnowledgeHandler struct {
	category     entity.Category
	llmProvider  llm.LLMProvider
	instructions string
	source       string
	passages     []passage
	logger       logger.ILogger
}

// NewKnowledgeHandler reads the knowledge base once; a missing or empty file fails construction
func NewKnowledgeHandler(cfg entity.HandlerConfiguration, deps Dependencies) (Handler, error) {
	path, ok := cfg.Resource(constant.ResourceKnowledgeBase)
	if !ok {
		return nil, fmt.Errorf("%s: knowledge handler needs resources.%s", cfg.Category, constant.ResourceKnowledgeBase)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: read knowledge base: %w", cfg.Category, err)
	}
	passages := splitPassages(string(raw))
	if len(passages) == 0 {
		return nil, fmt.Errorf("%s: knowledge base %s is empty", cfg.Category, path)
	}

	client, err := resolveLLM(cfg, deps)
	if err != nil {
		return nil, err
	}

	return &KnowledgeHandler{
		category:     cfg.Category,
		llmProvider:  client,
		instructions: strings.TrimSpace(cfg.Instructions),
		source:       filepath.Base(path),
		passages:     passages,
		logger:       loggerOrNop(deps),
	}, nil
}

func (h *KnowledgeHandler) Category() entity.Category {
	return h.category
}

func (h *KnowledgeHandler) Validate(req *Request) error {
	return ValidateRequest(req)
}

func (h *KnowledgeHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	query := boundedQuery(req.QueryText)
	selected := h.selectPassages(query)
	if len(selected) == 0 {
		return &Response{Success: false, Error: "no relevant passage in " + h.source}, nil
	}

	messages := buildMessages(h.systemPrompt(req, selected), req)
	reply, err := h.llmProvider.Chat(ctx, messages, llm.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("%s: llm call failed: %w", h.category, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return &Response{Success: false, Error: "model returned an empty reply"}, nil
	}

	sources := make([]string, 0, len(selected))
	seen := make(map[string]bool, len(selected))
	for _, p := range selected {
		src := h.source
		if p.section != "" {
			src += "#" + p.section
		}
		if !seen[src] {
			seen[src] = true
			sources = append(sources, src)
		}
	}

	h.logger.Debug("Handler", "Knowledge handler grounded answer", map[string]interface{}{
		"category": string(h.category),
		"passages": len(selected),
	})

	return &Response{
		Success:  true,
		Text:     reply,
		Sources:  sources,
		Metadata: map[string]string{"category": string(h.category)},
	}, nil
}

func (h *KnowledgeHandler) systemPrompt(req *Request, selected []passage) string {
	var prompt strings.Builder

	if h.instructions != "" {
		prompt.WriteString(h.instructions)
		prompt.WriteString("\n\n")
	}

	prompt.WriteString("<reference_material>\n")
	for i, p := range selected {
		if p.section != "" {
			prompt.WriteString(fmt.Sprintf("[%d] %s: %s\n", i+1, p.section, p.text))
		} else {
			prompt.WriteString(fmt.Sprintf("[%d] %s\n", i+1, p.text))
		}
	}
	prompt.WriteString("</reference_material>\n\n")

	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer strictly on the reference material provided\n")
	prompt.WriteString("2. Mention the section you used\n")
	prompt.WriteString("3. If the material doesn't contain what's being asked, say so honestly\n")
	prompt.WriteString("</guidelines>")

	if note := fallbackNote(req); note != "" {
		prompt.WriteString("\n\n")
		prompt.WriteString(note)
	}
	return prompt.String()
}

// selectPassages ranks passages by how many distinct query terms they contain
func (h *KnowledgeHandler) selectPassages(query string) []passage {
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	type scored struct {
		idx   int
		score int
	}
	var hits []scored
	for i, p := range h.passages {
		score := 0
		for term := range queryTerms {
			if _, ok := p.terms[term]; ok {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{idx: i, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > maxGroundingPassages {
		hits = hits[:maxGroundingPassages]
	}

	out := make([]passage, len(hits))
	for i, hit := range hits {
		out[i] = h.passages[hit.idx]
	}
	return out
}

// splitPassages turns markdown into paragraphs labelled with their nearest heading
func splitPassages(text string) []passage {
	var passages []passage
	section := ""
	for _, para := range utils.SplitParagraphs(text) {
		lines := strings.Split(para, "\n")
		var body []string
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "#") {
				section = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
				continue
			}
			body = append(body, trimmed)
		}
		content := strings.TrimSpace(strings.Join(body, " "))
		if content == "" {
			continue
		}
		passages = append(passages, passage{
			section: section,
			text:    content,
			terms:   tokenize(content + " " + section),
		})
	}
	return passages
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "our": {}, "what": {}, "who": {}, "how": {},
	"does": {}, "with": {}, "this": {}, "that": {}, "you": {}, "get": {}, "can": {}, "any": {},
	"from": {}, "have": {}, "many": {}, "much": {},
}

func tokenize(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if len([]rune(w)) < 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		terms[w] = struct{}{}
	}
	return terms
}
