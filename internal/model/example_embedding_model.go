package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ExampleEmbedding caches the vector of one classifier example phrase.
// The column has no fixed dimension because each embedding model has its own.
type ExampleEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Model          string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_example_embedding_key"`
	Category       string          `gorm:"type:varchar(40);not null;uniqueIndex:idx_example_embedding_key"`
	Phrase         string          `gorm:"type:text;not null;uniqueIndex:idx_example_embedding_key"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (ExampleEmbedding) TableName() string {
	return "example_embeddings"
}
