package uowmock

import (
	"context"
	"errors"

	"loan-service/internal/domain/loan"
	"loan-service/internal/domain/uow"
)

var _ uow.UnitOfWork = (*UoW)(nil)

// ErrUnimplemented is returned by callbacks a test left nil.
var ErrUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed uow.UnitOfWork.
type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, loanID uint64, fn func(r uow.Repos, l *loan.Loan) error) error
}

func New() *UoW { return &UoW{} }

// Passthrough runs every callback against repos with no real transaction.
// WithinLoanTx loads the loan through repos.Loans.GetByIDForUpdate first.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error {
			return fn(repos)
		},
		WithinLoanTxFn: func(ctx context.Context, loanID uint64, fn func(uow.Repos, *loan.Loan) error) error {
			l, err := repos.Loans.GetByIDForUpdate(ctx, loanID)
			if err != nil {
				return err
			}
			return fn(repos, l)
		},
	}
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn == nil {
		return ErrUnimplemented
	}
	return m.WithinTxFn(ctx, fn)
}

func (m *UoW) WithinLoanTx(ctx context.Context, loanID uint64, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinLoanTxFn == nil {
		return ErrUnimplemented
	}
	return m.WithinLoanTxFn(ctx, loanID, fn)
}
