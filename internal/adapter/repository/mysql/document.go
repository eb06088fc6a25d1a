package mysql

import (
	"context"
	"errors"

	"loan-service/internal/domain/document"

	"gorm.io/gorm"
)

type DocumentRepository struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) *DocumentRepository { return &DocumentRepository{db: db} }

func (r *DocumentRepository) Create(ctx context.Context, d *document.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DocumentRepository) Save(ctx context.Context, d *document.Document) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *DocumentRepository) GetByID(ctx context.Context, loanID, documentID uint64) (*document.Document, error) {
	var out document.Document
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND loan_id = ?", documentID, loanID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, document.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByLoan returns the loan's documents, newest upload first.
func (r *DocumentRepository) ListByLoan(ctx context.Context, loanID uint64) ([]document.Document, error) {
	out := []document.Document{}
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("uploaded_at DESC, document_id DESC").
		Find(&out).Error
	return out, err
}
