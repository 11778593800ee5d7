package entity

import (
	"fmt"
	"sort"
	"strings"
)

// Category is the intent class a query is routed to
type Category string

const (
	CategoryInformationRetrieval Category = "INFORMATION_RETRIEVAL"
	CategoryProblemSolving       Category = "PROBLEM_SOLVING"
	CategoryReportGeneration     Category = "REPORT_GENERATION"
	CategoryAutomation           Category = "AUTOMATION"
	CategoryDomainKnowledge      Category = "DOMAIN_KNOWLEDGE"
	CategoryDataOperations       Category = "DATA_OPERATIONS"
	CategoryGeneralChat          Category = "GENERAL_CHAT"
)

// CategoryInfo carries the static metadata of a category.
// Priority 1 is the most specific intent; GENERAL_CHAT has the lowest priority.
type CategoryInfo struct {
	Category    Category
	Priority    int
	Description string
}

var categoryCatalog = map[Category]CategoryInfo{
	CategoryInformationRetrieval: {
		Category:    CategoryInformationRetrieval,
		Priority:    1,
		Description: "Looking up facts, definitions, documents or current information",
	},
	CategoryProblemSolving: {
		Category:    CategoryProblemSolving,
		Priority:    2,
		Description: "Troubleshooting, debugging, planning or reasoning through a problem",
	},
	CategoryReportGeneration: {
		Category:    CategoryReportGeneration,
		Priority:    3,
		Description: "Producing summaries, reports, charts or structured documents",
	},
	CategoryAutomation: {
		Category:    CategoryAutomation,
		Priority:    4,
		Description: "Scheduling, triggering or scripting repetitive tasks and workflows",
	},
	CategoryDomainKnowledge: {
		Category:    CategoryDomainKnowledge,
		Priority:    5,
		Description: "Questions answered from the organisation's own knowledge base",
	},
	CategoryDataOperations: {
		Category:    CategoryDataOperations,
		Priority:    6,
		Description: "Querying, transforming, importing or exporting datasets",
	},
	CategoryGeneralChat: {
		Category:    CategoryGeneralChat,
		Priority:    7,
		Description: "Greetings, small talk and anything that fits no other category",
	},
}

// AllCategories returns every category ordered by priority
func AllCategories() []CategoryInfo {
	infos := make([]CategoryInfo, 0, len(categoryCatalog))
	for _, info := range categoryCatalog {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Priority < infos[j].Priority
	})
	return infos
}

// ParseCategory accepts the canonical tag in any case, with '-' or ' ' in place of '_'
func ParseCategory(s string) (Category, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	c := Category(normalized)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := categoryCatalog[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

func (c Category) Info() CategoryInfo {
	return categoryCatalog[c]
}

// Priority returns the rank of the category, 0 when the category is unknown
func (c Category) Priority() int {
	return categoryCatalog[c].Priority
}

func (c Category) Description() string {
	return categoryCatalog[c].Description
}

// RequiresKnowledgeResource reports whether a handler for the category must declare a knowledge base
func (c Category) RequiresKnowledgeResource() bool {
	return c == CategoryDomainKnowledge
}
