package loanmock

import (
	"context"
	"time"

	domain "loan-service/internal/domain/loan"

	"github.com/shopspring/decimal"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset writes are no-ops; unset reads return context.Canceled.
type Repo struct {
	CreateFn                func(ctx context.Context, l *domain.Loan) error
	SaveFn                  func(ctx context.Context, l *domain.Loan) error
	GetByIDFn               func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetByIDForUpdateFn      func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetByLoanNumberFn       func(ctx context.Context, loanNumber string) (*domain.Loan, error)
	ListByCustomerFn        func(ctx context.Context, customerID uint64, page domain.Page) ([]domain.Loan, int64, error)
	ListActiveByCustomerFn  func(ctx context.Context, customerID uint64) ([]domain.Loan, error)
	CountActiveByCustomerFn func(ctx context.Context, customerID uint64) (int64, error)
	ListDelinquentFn        func(ctx context.Context) ([]domain.Loan, error)
	ListDefaultedFn         func(ctx context.Context) ([]domain.Loan, error)
	ListUpcomingPaymentsFn  func(ctx context.Context, from, to time.Time) ([]domain.Loan, error)
	ListMaturingFn          func(ctx context.Context, from, to time.Time) ([]domain.Loan, error)
	TotalOutstandingFn      func(ctx context.Context, customerID uint64) (decimal.Decimal, error)
	PortfolioStatisticsFn   func(ctx context.Context) ([]domain.TypeStats, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanNumber(ctx context.Context, loanNumber string) (*domain.Loan, error) {
	if m.GetByLoanNumberFn != nil {
		return m.GetByLoanNumberFn(ctx, loanNumber)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByCustomer(ctx context.Context, customerID uint64, page domain.Page) ([]domain.Loan, int64, error) {
	if m.ListByCustomerFn != nil {
		return m.ListByCustomerFn(ctx, customerID, page)
	}
	return nil, 0, context.Canceled
}

func (m *Repo) ListActiveByCustomer(ctx context.Context, customerID uint64) ([]domain.Loan, error) {
	if m.ListActiveByCustomerFn != nil {
		return m.ListActiveByCustomerFn(ctx, customerID)
	}
	return nil, context.Canceled
}

func (m *Repo) CountActiveByCustomer(ctx context.Context, customerID uint64) (int64, error) {
	if m.CountActiveByCustomerFn != nil {
		return m.CountActiveByCustomerFn(ctx, customerID)
	}
	return 0, context.Canceled
}

func (m *Repo) ListDelinquent(ctx context.Context) ([]domain.Loan, error) {
	if m.ListDelinquentFn != nil {
		return m.ListDelinquentFn(ctx)
	}
	return nil, context.Canceled
}

func (m *Repo) ListDefaulted(ctx context.Context) ([]domain.Loan, error) {
	if m.ListDefaultedFn != nil {
		return m.ListDefaultedFn(ctx)
	}
	return nil, context.Canceled
}

func (m *Repo) ListUpcomingPayments(ctx context.Context, from, to time.Time) ([]domain.Loan, error) {
	if m.ListUpcomingPaymentsFn != nil {
		return m.ListUpcomingPaymentsFn(ctx, from, to)
	}
	return nil, context.Canceled
}

func (m *Repo) ListMaturing(ctx context.Context, from, to time.Time) ([]domain.Loan, error) {
	if m.ListMaturingFn != nil {
		return m.ListMaturingFn(ctx, from, to)
	}
	return nil, context.Canceled
}

func (m *Repo) TotalOutstanding(ctx context.Context, customerID uint64) (decimal.Decimal, error) {
	if m.TotalOutstandingFn != nil {
		return m.TotalOutstandingFn(ctx, customerID)
	}
	return decimal.Zero, context.Canceled
}

func (m *Repo) PortfolioStatistics(ctx context.Context) ([]domain.TypeStats, error) {
	if m.PortfolioStatisticsFn != nil {
		return m.PortfolioStatisticsFn(ctx)
	}
	return nil, context.Canceled
}
