package document

import (
	"context"
	"io"
)

type Repository interface {
	Create(ctx context.Context, d *Document) error
	Save(ctx context.Context, d *Document) error

	// Get by document id scoped to its loan
	GetByID(ctx context.Context, loanID, documentID uint64) (*Document, error)

	ListByLoan(ctx context.Context, loanID uint64) ([]Document, error)
}

// BlobStore keeps document bytes outside the database.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
}
