package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-query-router-be/internal/entity"
	"ai-query-router-be/pkg/embedding"
	"ai-query-router-be/pkg/llm"
)

// fakeEmbedder returns fixed vectors per text
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
	failOn  map[string]bool
}

func (f *fakeEmbedder) Model() string { return "fake-embed" }

func (f *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOn[text] {
		return nil, errors.New("embedding backend unavailable")
	}
	vec, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: vec}}, nil
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		vectors: map[string][]float32{
			"schedule a nightly backup":  {1, 0, 0},
			"run the cleanup every hour": {0.9, 0.1, 0},
			"hello there":                {0, 1, 0},
			"export the table to csv":    {0, 0, 1},
			"backup my files each night": {0.95, 0.05, 0},
			"hi":                         {0.1, 0.99, 0},
			"automate csv exports":       {0.7, 0, 0.7},
			"something odd":              {-1, -1, -1},
		},
		failOn: map[string]bool{},
	}
}

func testExamples() map[entity.Category][]string {
	return map[entity.Category][]string{
		entity.CategoryAutomation:     {"schedule a nightly backup", "run the cleanup every hour"},
		entity.CategoryGeneralChat:    {"hello there"},
		entity.CategoryDataOperations: {"export the table to csv", "   "},
	}
}

func newSimilarity(t *testing.T, e *fakeEmbedder, store ExampleStore) *SimilarityClassifier {
	t.Helper()
	c, err := NewSimilarityClassifier(context.Background(), e, testExamples(), SimilarityOptions{Threshold: 0.7, Store: store})
	require.NoError(t, err)
	return c
}

func TestSimilarityClassifyPicksBestExample(t *testing.T) {
	c := newSimilarity(t, newFakeEmbedder(), nil)
	queryID := uuid.New()

	d, err := c.Classify(context.Background(), Input{Text: "backup my files each night", QueryID: queryID})
	require.NoError(t, err)

	assert.Equal(t, queryID, d.QueryId)
	assert.Equal(t, entity.CategoryAutomation, d.PrimaryCategory)
	assert.Greater(t, d.PrimaryConfidence, 0.99)
	assert.False(t, d.HasSecondary(), "other categories score under the secondary floor")
	assert.Contains(t, d.Reasoning, "AUTOMATION")
	assert.Contains(t, d.Reasoning, "%")
	assert.NotContains(t, d.Reasoning, "clarification")
	assert.GreaterOrEqual(t, d.ClassificationLatencyMs, int64(0))
}

func TestSimilarityTieBreaksOnPriority(t *testing.T) {
	c := newSimilarity(t, newFakeEmbedder(), nil)

	d, err := c.Classify(context.Background(), Input{Text: "automate csv exports", QueryID: uuid.New()})
	require.NoError(t, err)

	// cos = 0.7071 for both AUTOMATION and DATA_OPERATIONS; the tie goes to the higher priority category
	assert.Equal(t, entity.CategoryAutomation, d.PrimaryCategory)
	assert.InDelta(t, 0.7071, d.PrimaryConfidence, 1e-3)
	assert.False(t, d.HasSecondary(), "a secondary equal to the primary is dropped")
	assert.NotContains(t, d.Reasoning, "clarification")
}

func TestSimilarityClampsNegativeScores(t *testing.T) {
	c := newSimilarity(t, newFakeEmbedder(), nil)

	d, err := c.Classify(context.Background(), Input{Text: "something odd", QueryID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 0.0, d.PrimaryConfidence)
	assert.Equal(t, entity.CategoryAutomation, d.PrimaryCategory, "all zero, highest priority wins")
	assert.Contains(t, d.Reasoning, "clarification")
}

func TestSimilarityEmptyText(t *testing.T) {
	c := newSimilarity(t, newFakeEmbedder(), nil)
	_, err := c.Classify(context.Background(), Input{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestSimilarityEmbeddingFailureFallsBack(t *testing.T) {
	e := newFakeEmbedder()
	c := newSimilarity(t, e, nil)
	e.failOn["hi"] = true

	d, err := c.Classify(context.Background(), Input{Text: "hi", QueryID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, entity.CategoryGeneralChat, d.PrimaryCategory)
	assert.Equal(t, 0.5, d.PrimaryConfidence)
	assert.Contains(t, d.Reasoning, "embedding backend unavailable")
	assert.Contains(t, d.Reasoning, "50.0%")
}

func TestSimilarityConstructionFailsOnExampleError(t *testing.T) {
	e := newFakeEmbedder()
	e.failOn["hello there"] = true

	_, err := NewSimilarityClassifier(context.Background(), e, testExamples(), SimilarityOptions{})
	assert.ErrorContains(t, err, "hello there")
}

func TestSimilarityRejectsUnknownCategory(t *testing.T) {
	_, err := NewSimilarityClassifier(context.Background(), newFakeEmbedder(),
		map[entity.Category][]string{"WEATHER": {"is it raining"}}, SimilarityOptions{})
	assert.ErrorContains(t, err, "WEATHER")
}

type memoryExampleStore struct {
	mu      sync.Mutex
	vectors map[string][]float32
	saves   int
}

func (m *memoryExampleStore) key(model string, c entity.Category, phrase string) string {
	return strings.Join([]string{model, string(c), phrase}, "|")
}

func (m *memoryExampleStore) FindVector(ctx context.Context, model string, c entity.Category, phrase string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vectors[m.key(model, c, phrase)], nil
}

func (m *memoryExampleStore) SaveVector(ctx context.Context, model string, c entity.Category, phrase string, v []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[m.key(model, c, phrase)] = v
	m.saves++
	return nil
}

func TestSimilarityUsesExampleStore(t *testing.T) {
	store := &memoryExampleStore{vectors: map[string][]float32{}}

	first := newFakeEmbedder()
	newSimilarity(t, first, store)
	assert.Equal(t, 4, first.calls)
	assert.Equal(t, 4, store.saves)

	second := newFakeEmbedder()
	newSimilarity(t, second, store)
	assert.Equal(t, 0, second.calls, "cached vectors are reused")
}

// fakeLLM answers every prompt with a canned response
type fakeLLM struct {
	response    string
	err         error
	lastPrompt  string
	lastOptions llm.Options
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.Generate(ctx, history[len(history)-1].Content, options...)
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.lastPrompt = prompt
	f.lastOptions = llm.Apply(llm.Options{}, options...)
	return f.response, f.err
}

func TestGenerativeClassify(t *testing.T) {
	tests := []struct {
		name           string
		response       string
		err            error
		wantCategory   entity.Category
		wantConfidence float64
		wantSecondary  bool
		wantReasoning  string
	}{
		{
			name:           "well formed",
			response:       `Sure! {"category":"DATA_OPERATIONS","confidence":0.92,"secondary_category":"REPORT_GENERATION","secondary_confidence":0.6,"reasoning":"asks for a csv export"}`,
			wantCategory:   entity.CategoryDataOperations,
			wantConfidence: 0.92,
			wantSecondary:  true,
			wantReasoning:  "92.0%",
		},
		{
			name:           "percentage confidence",
			response:       `{"category":"automation","confidence":85,"reasoning":"schedule"}`,
			wantCategory:   entity.CategoryAutomation,
			wantConfidence: 0.85,
			wantReasoning:  "85.0%",
		},
		{
			name:           "low secondary dropped",
			response:       `{"category":"PROBLEM_SOLVING","confidence":0.8,"secondary_category":"GENERAL_CHAT","secondary_confidence":0.3}`,
			wantCategory:   entity.CategoryProblemSolving,
			wantConfidence: 0.8,
		},
		{
			name:           "low confidence asks for clarification",
			response:       `{"category":"PROBLEM_SOLVING","confidence":0.4}`,
			wantCategory:   entity.CategoryProblemSolving,
			wantConfidence: 0.4,
			wantReasoning:  "clarification",
		},
		{
			name:           "malformed output",
			response:       "I think this is about automation",
			wantCategory:   entity.CategoryGeneralChat,
			wantConfidence: 0.5,
			wantReasoning:  "no JSON found",
		},
		{
			name:           "unknown category",
			response:       `{"category":"WEATHER","confidence":0.99}`,
			wantCategory:   entity.CategoryGeneralChat,
			wantConfidence: 0.5,
			wantReasoning:  "WEATHER",
		},
		{
			name:           "call failure",
			err:            errors.New("connection refused"),
			wantCategory:   entity.CategoryGeneralChat,
			wantConfidence: 0.5,
			wantReasoning:  "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewGenerativeClassifier(&fakeLLM{response: tt.response, err: tt.err}, GenerativeOptions{Threshold: 0.7})
			d, err := c.Classify(context.Background(), Input{Text: "export the table", QueryID: uuid.New()})
			require.NoError(t, err)

			assert.Equal(t, tt.wantCategory, d.PrimaryCategory)
			assert.InDelta(t, tt.wantConfidence, d.PrimaryConfidence, 1e-9)
			assert.Equal(t, tt.wantSecondary, d.HasSecondary())
			assert.Contains(t, d.Reasoning, string(tt.wantCategory))
			if tt.wantReasoning != "" {
				assert.Contains(t, d.Reasoning, tt.wantReasoning)
			}
		})
	}
}

func TestGenerativePromptCarriesContext(t *testing.T) {
	fake := &fakeLLM{response: `{"category":"REPORT_GENERATION","confidence":0.9}`}
	c := NewGenerativeClassifier(fake, GenerativeOptions{
		Examples: map[entity.Category][]string{
			entity.CategoryReportGeneration: {"weekly status report", "a", "b", "not shown"},
		},
	})
	prev := entity.CategoryReportGeneration

	_, err := c.Classify(context.Background(), Input{Text: "and for last month?", PreviousCategory: &prev})
	require.NoError(t, err)

	assert.Contains(t, fake.lastPrompt, "and for last month?")
	assert.Contains(t, fake.lastPrompt, "weekly status report")
	assert.NotContains(t, fake.lastPrompt, "not shown")
	assert.True(t, fake.lastOptions.JSONMode)
	require.NotNil(t, fake.lastOptions.Temperature)
	assert.Zero(t, *fake.lastOptions.Temperature)
	assert.Contains(t, fake.lastPrompt, "previous query in this conversation was routed to REPORT_GENERATION")
	for _, info := range entity.AllCategories() {
		assert.Contains(t, fake.lastPrompt, string(info.Category))
	}
}

func TestBuildReasoning(t *testing.T) {
	r := BuildReasoning(entity.CategoryAutomation, 0.834, 0.7, "")
	assert.Equal(t, "Classified as AUTOMATION with 83.4% confidence.", r)

	r = BuildReasoning(entity.CategoryAutomation, 0.69, 0.7, "weak match")
	assert.Contains(t, r, "(weak match)")
	assert.Contains(t, r, "requesting clarification")
}

func TestBuildReasoningJustBelowThreshold(t *testing.T) {
	r := BuildReasoning(entity.CategoryAutomation, 0.695, 0.7, "")

	assert.Equal(t, "Classified as AUTOMATION with 69.5% confidence. Below the 70.0% threshold, requesting clarification.", r)
	assert.NotContains(t, r, "with 70.0%")
}

func TestSimilarityClassifyIsIdempotent(t *testing.T) {
	texts := []string{"backup my files each night", "hi", "automate csv exports", "something odd"}

	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			c := newSimilarity(t, newFakeEmbedder(), nil)
			first, err := c.Classify(context.Background(), Input{Text: text, QueryID: uuid.New()})
			require.NoError(t, err)

			for i := 0; i < 25; i++ {
				// a fresh classifier rebuilds its category maps, so ties meet a new iteration order
				other := c
				if i%5 == 0 {
					other = newSimilarity(t, newFakeEmbedder(), nil)
				}
				d, err := other.Classify(context.Background(), Input{Text: text, QueryID: uuid.New()})
				require.NoError(t, err)

				assert.Equal(t, first.PrimaryCategory, d.PrimaryCategory, "run %d", i)
				assert.Equal(t, first.PrimaryConfidence, d.PrimaryConfidence, "run %d", i)
				assert.Equal(t, first.HasSecondary(), d.HasSecondary(), "run %d", i)
				if first.HasSecondary() && d.HasSecondary() {
					assert.Equal(t, *first.SecondaryCategory, *d.SecondaryCategory, "run %d", i)
					assert.Equal(t, *first.SecondaryConfidence, *d.SecondaryConfidence, "run %d", i)
				}
			}
		})
	}
}

func TestSimilarityTieAlwaysGoesToHigherPriority(t *testing.T) {
	for i := 0; i < 20; i++ {
		c := newSimilarity(t, newFakeEmbedder(), nil)
		d, err := c.Classify(context.Background(), Input{Text: "automate csv exports", QueryID: uuid.New()})
		require.NoError(t, err)

		require.Less(t, entity.CategoryAutomation.Priority(), entity.CategoryDataOperations.Priority())
		assert.Equal(t, entity.CategoryAutomation, d.PrimaryCategory, "run %d", i)
	}
}

func TestGenerativeDecisionsStayInBounds(t *testing.T) {
	responses := []string{
		`{"category":"AUTOMATION","confidence":1.7}`,
		`{"category":"AUTOMATION","confidence":150}`,
		`{"category":"AUTOMATION","confidence":-0.4}`,
		`{"category":"AUTOMATION","confidence":0.6,"secondary_category":"DATA_OPERATIONS","secondary_confidence":0.9}`,
		`{"category":"AUTOMATION","confidence":0.8,"secondary_category":"DATA_OPERATIONS","secondary_confidence":0.8}`,
		`{"category":"AUTOMATION","confidence":0.8,"secondary_category":"AUTOMATION","secondary_confidence":0.6}`,
		`{"category":"AUTOMATION","confidence":0.8,"secondary_category":"DATA_OPERATIONS","secondary_confidence":0.5}`,
		`{"category":"AUTOMATION","confidence":0.8,"secondary_category":"DATA_OPERATIONS","secondary_confidence":0.49}`,
		`{"category":"AUTOMATION","confidence":0.8,"secondary_category":"DATA_OPERATIONS","secondary_confidence":-2}`,
		`{"category":"AUTOMATION","confidence":"high"}`,
		`not json at all`,
	}

	for _, response := range responses {
		t.Run(response, func(t *testing.T) {
			c := NewGenerativeClassifier(&fakeLLM{response: response}, GenerativeOptions{Threshold: 0.7})
			d, err := c.Classify(context.Background(), Input{Text: "automate csv exports", QueryID: uuid.New()})
			require.NoError(t, err)

			assert.GreaterOrEqual(t, d.PrimaryConfidence, 0.0)
			assert.LessOrEqual(t, d.PrimaryConfidence, 1.0)
			assert.True(t, d.PrimaryCategory.Valid())
			if d.HasSecondary() {
				assert.NotEqual(t, d.PrimaryCategory, *d.SecondaryCategory)
				assert.Less(t, *d.SecondaryConfidence, d.PrimaryConfidence)
				assert.GreaterOrEqual(t, *d.SecondaryConfidence, 0.5)
			}
		})
	}
}
