package mysql

import (
	"context"

	loanDomain "loan-service/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository keeps one counter row per year. The increment is a
// single UPDATE, so two transactions never read the same value.
type SequenceRepository struct{ db *gorm.DB }

func NewSequenceRepository(db *gorm.DB) *SequenceRepository { return &SequenceRepository{db: db} }

func (r *SequenceRepository) Next(ctx context.Context, year int) (int64, error) {
	db := r.db.WithContext(ctx)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&loanDomain.Sequence{Year: year}).Error; err != nil {
		return 0, err
	}

	if err := db.Model(&loanDomain.Sequence{}).
		Where("year = ?", year).
		UpdateColumn("last_value", gorm.Expr("last_value + 1")).Error; err != nil {
		return 0, err
	}

	var seq loanDomain.Sequence
	if err := db.Where("year = ?", year).Take(&seq).Error; err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}
