package router

import (
	"strings"

	"ai-query-router-be/internal/entity"
)

// PrefixCategory forces a category: "/category:AUTOMATION run the nightly export"
const PrefixCategory = "/category:"

// ParsedPrompt contains routing information extracted from a prompt
type ParsedPrompt struct {
	OriginalPrompt string           // Full original prompt
	CleanPrompt    string           // Prompt without the recognised prefix
	Category       *entity.Category // Set only when the prefix named a known category
}

// Parse extracts a category override from the prompt.
// An unknown category name leaves the prompt untouched so it is classified normally.
func Parse(prompt string) *ParsedPrompt {
	parsed := &ParsedPrompt{
		OriginalPrompt: prompt,
		CleanPrompt:    prompt,
	}

	trimmed := strings.TrimSpace(prompt)
	if !strings.HasPrefix(strings.ToLower(trimmed), PrefixCategory) {
		return parsed
	}

	key, rest := extractKeyAndPrompt(trimmed[len(PrefixCategory):])
	category, err := entity.ParseCategory(key)
	if err != nil {
		return parsed
	}

	parsed.Category = &category
	parsed.CleanPrompt = rest
	return parsed
}

// extractKeyAndPrompt splits "key prompt" into (key, prompt)
func extractKeyAndPrompt(rest string) (string, string) {
	spaceIdx := strings.IndexAny(rest, " \t\n")
	if spaceIdx == -1 {
		return rest, ""
	}
	return rest[:spaceIdx], strings.TrimSpace(rest[spaceIdx+1:])
}

// IsOverride reports whether the prompt forced a category
func (p *ParsedPrompt) IsOverride() bool {
	return p.Category != nil
}
