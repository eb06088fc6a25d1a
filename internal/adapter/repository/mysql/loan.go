package mysql

import (
	"context"
	"errors"
	"time"

	loanDomain "loan-service/internal/domain/loan"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return loanErr(r.db.WithContext(ctx).Create(l).Error)
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return loanErr(r.db.WithContext(ctx).Save(l).Error)
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := r.db.WithContext(ctx).Where("loan_id = ?", id).First(&out).Error; err != nil {
		return nil, loanErr(err)
	}
	return &out, nil
}

// GetByIDForUpdate takes a row lock (SELECT ... FOR UPDATE). Only meaningful
// inside a transaction.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", id).
		First(&out).Error
	if err != nil {
		return nil, loanErr(err)
	}
	return &out, nil
}

func (r *LoanRepository) GetByLoanNumber(ctx context.Context, loanNumber string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := r.db.WithContext(ctx).Where("loan_number = ?", loanNumber).First(&out).Error; err != nil {
		return nil, loanErr(err)
	}
	return &out, nil
}

func (r *LoanRepository) ListByCustomer(ctx context.Context, customerID uint64, page loanDomain.Page) ([]loanDomain.Loan, int64, error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).Where("customer_id = ?", customerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []loanDomain.Loan{}
	err := q.Order("loan_id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&out).Error
	return out, total, err
}

func (r *LoanRepository) ListActiveByCustomer(ctx context.Context, customerID uint64) ([]loanDomain.Loan, error) {
	out := []loanDomain.Loan{}
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status IN ?", customerID, loanDomain.Servicing).
		Order("loan_id ASC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) CountActiveByCustomer(ctx context.Context, customerID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Where("customer_id = ? AND status IN ?", customerID, loanDomain.Servicing).
		Count(&n).Error
	return n, err
}

// ListDelinquent returns servicing loans with any days past due, worst first.
func (r *LoanRepository) ListDelinquent(ctx context.Context) ([]loanDomain.Loan, error) {
	out := []loanDomain.Loan{}
	err := r.db.WithContext(ctx).
		Where("days_past_due > 0 AND status IN ?", loanDomain.Servicing).
		Order("days_past_due DESC, loan_id ASC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListDefaulted(ctx context.Context) ([]loanDomain.Loan, error) {
	out := []loanDomain.Loan{}
	err := r.db.WithContext(ctx).
		Where("status = ? OR is_defaulted = ?", loanDomain.StatusDefault, true).
		Order("days_past_due DESC, loan_id ASC").
		Find(&out).Error
	return out, err
}

// ListUpcomingPayments returns ACTIVE loans whose next payment falls in
// [from, to], both inclusive.
func (r *LoanRepository) ListUpcomingPayments(ctx context.Context, from, to time.Time) ([]loanDomain.Loan, error) {
	out := []loanDomain.Loan{}
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_payment_date BETWEEN ? AND ?",
			loanDomain.StatusActive, loanDomain.Date(from), loanDomain.Date(to)).
		Order("next_payment_date ASC, loan_id ASC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListMaturing(ctx context.Context, from, to time.Time) ([]loanDomain.Loan, error) {
	out := []loanDomain.Loan{}
	err := r.db.WithContext(ctx).
		Where("status = ? AND maturity_date BETWEEN ? AND ?",
			loanDomain.StatusActive, loanDomain.Date(from), loanDomain.Date(to)).
		Order("maturity_date ASC, loan_id ASC").
		Find(&out).Error
	return out, err
}

// TotalOutstanding sums balances over the customer's servicing loans; zero
// when there are none.
func (r *LoanRepository) TotalOutstanding(ctx context.Context, customerID uint64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Select("COALESCE(SUM(outstanding_balance), 0)").
		Where("customer_id = ? AND status IN ?", customerID, loanDomain.Servicing).
		Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Round(2), nil
}

// PortfolioStatistics breaks servicing loans down by type.
func (r *LoanRepository) PortfolioStatistics(ctx context.Context) ([]loanDomain.TypeStats, error) {
	out := []loanDomain.TypeStats{}
	err := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Select("loan_type, COUNT(*) AS count, " +
			"COALESCE(SUM(loan_amount), 0) AS total_amount, " +
			"COALESCE(SUM(outstanding_balance), 0) AS total_outstanding").
		Where("status IN ?", loanDomain.Servicing).
		Group("loan_type").
		Order("loan_type ASC").
		Scan(&out).Error
	return out, err
}

func loanErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return loanDomain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return loanDomain.ErrConflict
	}
	return err
}
