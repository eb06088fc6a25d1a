package documentmock

import (
	"bytes"
	"context"
	"io"
	"sync"

	"loan-service/internal/domain/document"
)

var (
	_ document.Repository = (*Repo)(nil)
	_ document.BlobStore  = (*Blobs)(nil)
)

// Repo is a function-backed mock; unset writes are no-ops, unset reads
// return context.Canceled.
type Repo struct {
	CreateFn     func(ctx context.Context, d *document.Document) error
	SaveFn       func(ctx context.Context, d *document.Document) error
	GetByIDFn    func(ctx context.Context, loanID, documentID uint64) (*document.Document, error)
	ListByLoanFn func(ctx context.Context, loanID uint64) ([]document.Document, error)
}

func (m *Repo) Create(ctx context.Context, d *document.Document) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, d *document.Document) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, d)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, loanID, documentID uint64) (*document.Document, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, loanID, documentID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByLoan(ctx context.Context, loanID uint64) ([]document.Document, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanID)
	}
	return nil, context.Canceled
}

// Blobs keeps uploaded objects in memory.
type Blobs struct {
	PutErr  error
	BaseURL string

	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
}

func (b *Blobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if b.PutErr != nil {
		return "", b.PutErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Objects == nil {
		b.Objects = map[string][]byte{}
	}
	b.Objects[key] = buf.Bytes()
	return b.BaseURL + "/" + key, nil
}

func (b *Blobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.Objects, key)
	b.Deleted = append(b.Deleted, key)
	return nil
}
