package mysql

import (
	"context"
	"errors"

	"loan-service/internal/domain/application"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApplicationRepository struct{ db *gorm.DB }

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *application.Application) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ApplicationRepository) Save(ctx context.Context, a *application.Application) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uint64) (*application.Application, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *ApplicationRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*application.Application, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *ApplicationRepository) get(q *gorm.DB, id uint64) (*application.Application, error) {
	var out application.Application
	err := q.Where("application_id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
