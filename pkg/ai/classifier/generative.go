package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/pkg/logger"
	"ai-query-router-be/pkg/llm"
	"ai-query-router-be/pkg/utils"
)

const examplesPerCategoryInPrompt = 3

type GenerativeOptions struct {
	Threshold float64
	Examples  map[entity.Category][]string
	Logger    logger.ILogger
}

// GenerativeClassifier asks a text generation model to pick the category
type GenerativeClassifier struct {
	llmProvider llm.LLMProvider
	examples    map[entity.Category][]string
	threshold   float64
	logger      logger.ILogger
}

func NewGenerativeClassifier(llmProvider llm.LLMProvider, opts GenerativeOptions) *GenerativeClassifier {
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	return &GenerativeClassifier{
		llmProvider: llmProvider,
		examples:    opts.Examples,
		threshold:   resolveThreshold(opts.Threshold),
		logger:      opts.Logger,
	}
}

func (c *GenerativeClassifier) Name() string {
	return StrategyGenerative
}

type generativeAnswer struct {
	Category            string   `json:"category"`
	Confidence          float64  `json:"confidence"`
	SecondaryCategory   string   `json:"secondary_category"`
	SecondaryConfidence *float64 `json:"secondary_confidence"`
	Reasoning           string   `json:"reasoning"`
}

func (c *GenerativeClassifier) Classify(ctx context.Context, in Input) (entity.RoutingDecision, error) {
	if strings.TrimSpace(in.Text) == "" {
		return entity.RoutingDecision{}, ErrEmptyText
	}
	started := time.Now()

	prompt := c.buildPrompt(in)

	// Temperature 0 keeps the classification deterministic
	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0), llm.WithMaxTokens(200), llm.WithJSONMode())
	if err != nil {
		c.logger.Warn("Classifier", "Generative classification failed, using fallback category", map[string]interface{}{
			"query_id": in.QueryID.String(),
			"error":    err.Error(),
		})
		return fallbackDecision(in, c.threshold, started, err), nil
	}

	answer, err := parseAnswer(response)
	if err != nil {
		c.logger.Warn("Classifier", "Unparseable classification output, using fallback category", map[string]interface{}{
			"query_id": in.QueryID.String(),
			"error":    err.Error(),
			"response": utils.TruncateLog(response, 200),
		})
		return fallbackDecision(in, c.threshold, started, err), nil
	}

	primary, _ := entity.ParseCategory(answer.Category)
	confidence := normalizeConfidence(answer.Confidence)

	decision := entity.DecisionInput{
		QueryId:           in.QueryID,
		PrimaryCategory:   primary,
		PrimaryConfidence: confidence,
		Reasoning:         BuildReasoning(primary, confidence, c.threshold, answer.Reasoning),
		CreatedAt:         time.Now(),
	}
	if answer.SecondaryCategory != "" && answer.SecondaryConfidence != nil {
		if secondary, err := entity.ParseCategory(answer.SecondaryCategory); err == nil {
			score := normalizeConfidence(*answer.SecondaryConfidence)
			decision.SecondaryCategory = &secondary
			decision.SecondaryConfidence = &score
		}
	}
	decision.ClassificationLatencyMs = time.Since(started).Milliseconds()

	return entity.NewRoutingDecision(decision), nil
}

func (c *GenerativeClassifier) buildPrompt(in Input) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are a query classifier. Your ONLY job is to decide which category a user query belongs to.\n")
	prompt.WriteString("You do NOT answer the query.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<categories>\n")
	for _, info := range entity.AllCategories() {
		prompt.WriteString(fmt.Sprintf("%s: %s\n", info.Category, info.Description))
		examples := c.examples[info.Category]
		if len(examples) > examplesPerCategoryInPrompt {
			examples = examples[:examplesPerCategoryInPrompt]
		}
		for _, ex := range examples {
			prompt.WriteString(fmt.Sprintf("  - e.g. \"%s\"\n", ex))
		}
	}
	prompt.WriteString("If nothing else fits, use GENERAL_CHAT.\n")
	prompt.WriteString("</categories>\n\n")

	if in.PreviousCategory != nil {
		prompt.WriteString("<conversation_state>\n")
		prompt.WriteString(fmt.Sprintf("The previous query in this conversation was routed to %s.\n", *in.PreviousCategory))
		prompt.WriteString("Short follow-ups such as 'and for last month?' usually keep that category.\n")
		prompt.WriteString("</conversation_state>\n\n")
	}

	prompt.WriteString("<user_query>\n")
	prompt.WriteString(in.Text)
	prompt.WriteString("\n</user_query>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"category\": \"ONE_OF_THE_CATEGORIES\",\n")
	prompt.WriteString("  \"confidence\": 0.9,\n")
	prompt.WriteString("  \"secondary_category\": \"SECOND_BEST_OR_EMPTY\",\n")
	prompt.WriteString("  \"secondary_confidence\": 0.4,\n")
	prompt.WriteString("  \"reasoning\": \"Brief explanation\"\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func parseAnswer(response string) (*generativeAnswer, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var answer generativeAnswer
	if err := json.Unmarshal([]byte(jsonContent), &answer); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}
	if _, err := entity.ParseCategory(answer.Category); err != nil {
		return nil, fmt.Errorf("model chose %w", err)
	}
	return &answer, nil
}

// normalizeConfidence accepts both 0-1 and percentage answers
func normalizeConfidence(v float64) float64 {
	if v > 1 && v <= 100 {
		v = v / 100
	}
	return entity.ClampConfidence(v)
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
