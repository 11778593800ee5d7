package classifier

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/pkg/logger"
	"ai-query-router-be/pkg/embedding"
)

// ExampleStore caches example phrase vectors between restarts.
// Vectors are keyed by embedding model so a model switch never mixes spaces.
type ExampleStore interface {
	FindVector(ctx context.Context, model string, category entity.Category, phrase string) ([]float32, error)
	SaveVector(ctx context.Context, model string, category entity.Category, phrase string, vector []float32) error
}

type SimilarityOptions struct {
	Threshold   float64
	Store       ExampleStore // optional
	Concurrency int
	Logger      logger.ILogger
}

type exampleVector struct {
	phrase string
	vector []float32
}

type SimilarityClassifier struct {
	embedder  embedding.EmbeddingProvider
	examples  map[entity.Category][]exampleVector
	threshold float64
	logger    logger.ILogger
}

// NewSimilarityClassifier embeds every example phrase up front. Any failure aborts construction.
func NewSimilarityClassifier(
	ctx context.Context,
	embedder embedding.EmbeddingProvider,
	examples map[entity.Category][]string,
	opts SimilarityOptions,
) (*SimilarityClassifier, error) {
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	for category := range examples {
		if !category.Valid() {
			return nil, fmt.Errorf("examples for unknown category %q", category)
		}
	}

	loaded := make(map[entity.Category][]exampleVector, len(examples))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for category, phrases := range examples {
		vectors := make([]exampleVector, 0, len(phrases))
		for _, phrase := range phrases {
			if phrase = strings.TrimSpace(phrase); phrase != "" {
				vectors = append(vectors, exampleVector{phrase: phrase})
			}
		}
		if len(vectors) == 0 {
			continue
		}
		loaded[category] = vectors

		for i := range vectors {
			category, ex := category, &vectors[i]
			g.Go(func() error {
				vec, err := embedExample(gctx, embedder, opts.Store, category, ex.phrase, opts.Logger)
				if err != nil {
					return fmt.Errorf("embed example %q of %s: %w", ex.phrase, category, err)
				}
				ex.vector = vec
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(loaded) == 0 {
		return nil, fmt.Errorf("similarity classifier needs at least one example phrase")
	}

	total := 0
	for _, v := range loaded {
		total += len(v)
	}
	opts.Logger.Info("Classifier", "Example phrases embedded", map[string]interface{}{
		"categories": len(loaded),
		"examples":   total,
		"model":      embedder.Model(),
	})

	return &SimilarityClassifier{
		embedder:  embedder,
		examples:  loaded,
		threshold: resolveThreshold(opts.Threshold),
		logger:    opts.Logger,
	}, nil
}

func embedExample(
	ctx context.Context,
	embedder embedding.EmbeddingProvider,
	store ExampleStore,
	category entity.Category,
	phrase string,
	log logger.ILogger,
) ([]float32, error) {
	if store != nil {
		vec, err := store.FindVector(ctx, embedder.Model(), category, phrase)
		if err != nil {
			log.Warn("Classifier", "Example cache lookup failed", map[string]interface{}{"error": err.Error()})
		} else if len(vec) > 0 {
			return vec, nil
		}
	}

	res, err := embedder.Generate(ctx, phrase, embedding.TaskDocument)
	if err != nil {
		return nil, err
	}
	vec := res.Embedding.Values

	if store != nil {
		if err := store.SaveVector(ctx, embedder.Model(), category, phrase, vec); err != nil {
			log.Warn("Classifier", "Example cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return vec, nil
}

func (c *SimilarityClassifier) Name() string {
	return StrategySimilarity
}

type categoryScore struct {
	category entity.Category
	score    float64
	best     string
}

func (c *SimilarityClassifier) Classify(ctx context.Context, in Input) (entity.RoutingDecision, error) {
	if strings.TrimSpace(in.Text) == "" {
		return entity.RoutingDecision{}, ErrEmptyText
	}
	started := time.Now()

	res, err := c.embedder.Generate(ctx, in.Text, embedding.TaskQuery)
	if err != nil {
		c.logger.Warn("Classifier", "Query embedding failed, using fallback category", map[string]interface{}{
			"query_id": in.QueryID.String(),
			"error":    err.Error(),
		})
		return fallbackDecision(in, c.threshold, started, err), nil
	}

	ranked := c.rank(res.Embedding.Values)
	primary := ranked[0]

	decision := entity.DecisionInput{
		QueryId:           in.QueryID,
		PrimaryCategory:   primary.category,
		PrimaryConfidence: primary.score,
		CreatedAt:         time.Now(),
	}
	if len(ranked) > 1 && ranked[1].score >= constant.SecondaryConfidenceFloor {
		second := ranked[1].category
		score := ranked[1].score
		decision.SecondaryCategory = &second
		decision.SecondaryConfidence = &score
	}
	decision.Reasoning = BuildReasoning(primary.category, primary.score, c.threshold,
		fmt.Sprintf("closest example: %q", primary.best))
	decision.ClassificationLatencyMs = time.Since(started).Milliseconds()

	return entity.NewRoutingDecision(decision), nil
}

// rank scores every category by its best matching example.
// Ties go to the more specific category.
func (c *SimilarityClassifier) rank(query []float32) []categoryScore {
	scores := make([]categoryScore, 0, len(c.examples))
	for category, examples := range c.examples {
		s := categoryScore{category: category}
		for _, ex := range examples {
			sim := entity.ClampConfidence(embedding.CosineSimilarity(query, ex.vector))
			if sim > s.score || s.best == "" {
				s.score = sim
				s.best = ex.phrase
			}
		}
		scores = append(scores, s)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].category.Priority() < scores[j].category.Priority()
	})
	return scores
}
