package applicationmock

import (
	"context"

	"loan-service/internal/domain/application"
)

var _ application.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn           func(ctx context.Context, a *application.Application) error
	SaveFn             func(ctx context.Context, a *application.Application) error
	GetByIDFn          func(ctx context.Context, id uint64) (*application.Application, error)
	GetByIDForUpdateFn func(ctx context.Context, id uint64) (*application.Application, error)
}

func (m *Repo) Create(ctx context.Context, a *application.Application) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, a *application.Application) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*application.Application, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*application.Application, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}
