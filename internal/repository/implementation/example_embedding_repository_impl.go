package implementation

import (
	"context"
	"errors"

	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/model"
	"ai-query-router-be/internal/repository/contract"
	"ai-query-router-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExampleEmbeddingRepositoryImpl struct {
	db *gorm.DB
}

func NewExampleEmbeddingRepository(db *gorm.DB) contract.ExampleEmbeddingRepository {
	return &ExampleEmbeddingRepositoryImpl{db: db}
}

func (r *ExampleEmbeddingRepositoryImpl) FindVector(ctx context.Context, modelName string, category entity.Category, phrase string) ([]float32, error) {
	var m model.ExampleEmbedding
	query := specification.ExampleKey{Model: modelName, Category: category, Phrase: phrase}.Apply(r.db.WithContext(ctx))
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m.EmbeddingValue.Slice(), nil
}

// SaveVector upserts on (model, category, phrase)
func (r *ExampleEmbeddingRepositoryImpl) SaveVector(ctx context.Context, modelName string, category entity.Category, phrase string, vector []float32) error {
	m := &model.ExampleEmbedding{
		Model:          modelName,
		Category:       string(category),
		Phrase:         phrase,
		EmbeddingValue: pgvector.NewVector(vector),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "model"}, {Name: "category"}, {Name: "phrase"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding_value", "updated_at"}),
	}).Create(m).Error
}
