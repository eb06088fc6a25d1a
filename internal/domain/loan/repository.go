package loan

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Repository interface {
	// Writes
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error

	// Lookups; missing rows surface as ErrNotFound.
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	GetByLoanNumber(ctx context.Context, loanNumber string) (*Loan, error)

	// Projections
	ListByCustomer(ctx context.Context, customerID uint64, page Page) ([]Loan, int64, error)
	ListActiveByCustomer(ctx context.Context, customerID uint64) ([]Loan, error)
	CountActiveByCustomer(ctx context.Context, customerID uint64) (int64, error)
	ListDelinquent(ctx context.Context) ([]Loan, error)
	ListDefaulted(ctx context.Context) ([]Loan, error)
	ListUpcomingPayments(ctx context.Context, from, to time.Time) ([]Loan, error)
	ListMaturing(ctx context.Context, from, to time.Time) ([]Loan, error)
	TotalOutstanding(ctx context.Context, customerID uint64) (decimal.Decimal, error)
	PortfolioStatistics(ctx context.Context) ([]TypeStats, error)
}

// SequenceRepository hands out loan-number sequence values. Next must be
// atomic with respect to concurrent callers for the same year.
type SequenceRepository interface {
	Next(ctx context.Context, year int) (int64, error)
}

// Page is a zero-based page request.
type Page struct {
	Number int
	Size   int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int { return p.Number * p.Size }

var ErrCacheMiss = errors.New("loan cache miss")

// Cache holds loans by id. Implementations return ErrCacheMiss for absent
// keys; writers must Invalidate after every committed mutation.
type Cache interface {
	Get(ctx context.Context, id uint64) (*Loan, error)
	Put(ctx context.Context, l *Loan) error
	Invalidate(ctx context.Context, id uint64) error
}

// Disbursed is emitted once a loan becomes active so the payment-schedule
// collaborator can materialize instalments.
type Disbursed struct {
	LoanID           uint64          `json:"loanId"`
	LoanNumber       string          `json:"loanNumber"`
	CustomerID       uint64          `json:"customerId"`
	Amount           decimal.Decimal `json:"amount"`
	MonthlyPayment   decimal.Decimal `json:"monthlyPayment"`
	DisbursementDate time.Time       `json:"disbursementDate"`
	Schedule         []Installment   `json:"schedule"`
	OccurredAt       time.Time       `json:"occurredAt"`
}

type EventPublisher interface {
	PublishDisbursed(ctx context.Context, evt Disbursed) error
}
