package contract

import (
	"context"

	"ai-query-router-be/internal/entity"
)

// ExampleEmbeddingRepository persists example phrase vectors per embedding model.
// FindVector returns (nil, nil) on a miss.
type ExampleEmbeddingRepository interface {
	FindVector(ctx context.Context, model string, category entity.Category, phrase string) ([]float32, error)
	SaveVector(ctx context.Context, model string, category entity.Category, phrase string, vector []float32) error
}
