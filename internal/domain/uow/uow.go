package uow

import (
	"context"

	"loan-service/internal/domain/application"
	"loan-service/internal/domain/document"
	"loan-service/internal/domain/loan"
)

// Repos are bound to the same transaction.
type Repos struct {
	Loans        loan.Repository
	Sequences    loan.SequenceRepository
	Documents    document.Repository
	Applications application.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the loan row first, then pass it in
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}
