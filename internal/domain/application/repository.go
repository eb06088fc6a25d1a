package application

import "context"

type Repository interface {
	Create(ctx context.Context, a *Application) error
	Save(ctx context.Context, a *Application) error
	GetByID(ctx context.Context, id uint64) (*Application, error)
	// Locks the row until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id uint64) (*Application, error)
}
