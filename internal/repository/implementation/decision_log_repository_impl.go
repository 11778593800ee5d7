package implementation

import (
	"context"
	"time"

	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/mapper"
	"ai-query-router-be/internal/model"
	"ai-query-router-be/internal/repository/contract"
	"ai-query-router-be/internal/repository/specification"

	"gorm.io/gorm"
)

type DecisionLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DecisionLogMapper
}

func NewDecisionLogRepository(db *gorm.DB) contract.DecisionLogRepository {
	return &DecisionLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewDecisionLogMapper(),
	}
}

func (r *DecisionLogRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DecisionLogRepositoryImpl) Record(ctx context.Context, record *entity.DecisionRecord) error {
	return r.db.WithContext(ctx).Create(r.mapper.ToModel(record)).Error
}

func (r *DecisionLogRepositoryImpl) FindSince(ctx context.Context, since time.Time) ([]*entity.DecisionRecord, error) {
	var models []*model.DecisionLog
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.CreatedSince{Since: since},
		specification.OrderBy{Field: "created_at"},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.DecisionRecord, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *DecisionLogRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := r.applySpecifications(r.db.WithContext(ctx), specification.CreatedBefore{Cutoff: cutoff})
	result := query.Delete(&model.DecisionLog{})
	return result.RowsAffected, result.Error
}
