package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loan-service/internal/domain/loan"
	"loan-service/internal/domain/uow"
	"loan-service/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	DefaultMaxActiveLoans   = 5
	DefaultUpcomingDays     = 7
	DefaultMaturingDays     = 30
	loanNumberFormat        = "LOAN-%d-%06d"
	publishTimeout          = 5 * time.Second
	operationCreate         = "create"
	operationDisburse       = "disburse"
	operationPayment        = "payment"
	operationMarkDelinquent = "mark_delinquent"
	operationClose          = "close"
)

// OperationRecorder counts lifecycle calls by outcome.
type OperationRecorder interface {
	LoanOperation(operation string, err error)
}

type Usecase struct {
	repo      loan.Repository
	uow       uow.UnitOfWork
	cache     loan.Cache
	events    loan.EventPublisher
	recorder  OperationRecorder
	now       func() time.Time
	maxActive int64
}

type Option func(*Usecase)

func WithCache(c loan.Cache) Option { return func(u *Usecase) { u.cache = c } }

func WithPublisher(p loan.EventPublisher) Option { return func(u *Usecase) { u.events = p } }

func WithRecorder(r OperationRecorder) Option { return func(u *Usecase) { u.recorder = r } }

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func WithMaxActiveLoans(n int) Option {
	return func(u *Usecase) {
		if n > 0 {
			u.maxActive = int64(n)
		}
	}
}

// NewUsecase: reads go through repo, every mutation through tx.
func NewUsecase(r loan.Repository, tx uow.UnitOfWork, opts ...Option) *Usecase {
	u := &Usecase{
		repo:      r,
		uow:       tx,
		now:       time.Now,
		maxActive: DefaultMaxActiveLoans,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Create opens an APPROVED loan. The active-loan check, the loan-number
// increment and the insert share one transaction.
func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if !in.LoanAmount.IsPositive() || in.TermMonths <= 0 ||
		in.InterestRate == nil || in.InterestRate.IsNegative() {
		return nil, loan.ErrInvalidAmount
	}
	today := loan.Date(u.now())

	var created *loan.Loan
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		n, err := r.Loans.CountActiveByCustomer(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if n >= u.maxActive {
			return loan.ErrLimitExceeded
		}

		seq, err := r.Sequences.Next(ctx, today.Year())
		if err != nil {
			return fmt.Errorf("next loan number: %w", err)
		}

		l := &loan.Loan{
			CustomerID:            in.CustomerID,
			LoanNumber:            fmt.Sprintf(loanNumberFormat, today.Year(), seq),
			LoanType:              loan.Type(in.LoanType),
			LoanAmount:            in.LoanAmount,
			InterestRate:          *in.InterestRate,
			TermMonths:            in.TermMonths,
			MonthlyPayment:        loan.MonthlyPayment(in.LoanAmount, *in.InterestRate, in.TermMonths),
			OutstandingBalance:    in.LoanAmount,
			TotalInterestPaid:     decimal.Zero,
			TotalPrincipalPaid:    decimal.Zero,
			Status:                loan.StatusApproved,
			ApplicationDate:       today,
			ApprovalDate:          &today,
			LoanPurpose:           in.LoanPurpose,
			ApprovedBy:            in.ApprovedBy,
			ApprovalNotes:         in.ApprovalNotes,
			ApplicationID:         in.ApplicationID,
			CollateralDescription: in.CollateralDescription,
			CollateralValue:       in.CollateralValue,
			LoanToValueRatio:      loan.LoanToValue(in.LoanAmount, in.CollateralValue),
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		created = l
		return nil
	})
	u.record(operationCreate, err)
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("loan created",
		"loan_id", created.ID,
		"loan_number", created.LoanNumber,
		"customer_id", created.CustomerID)
	dto := toDTO(created)
	return &dto, nil
}

// Disburse activates an approved loan and, once committed, hands its
// schedule to the event publisher. A failed publish is logged only.
func (u *Usecase) Disburse(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	now := u.now()
	l, err := u.mutate(ctx, operationDisburse, loanID, func(l *loan.Loan) error {
		return l.Disburse(now)
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("loan disbursed",
		"loan_id", l.ID,
		"first_payment", formatDate(l.FirstPaymentDate))
	u.publishDisbursed(ctx, l, now)

	dto := toDTO(l)
	return &dto, nil
}

func (u *Usecase) publishDisbursed(ctx context.Context, l *loan.Loan, now time.Time) {
	if u.events == nil {
		return
	}
	evt := loan.Disbursed{
		LoanID:           l.ID,
		LoanNumber:       l.LoanNumber,
		CustomerID:       l.CustomerID,
		Amount:           l.LoanAmount,
		MonthlyPayment:   l.MonthlyPayment,
		DisbursementDate: *l.DisbursementDate,
		Schedule:         loan.ScheduleFor(l),
		OccurredAt:       now.UTC(),
	}
	// detached from the request so a client disconnect doesn't drop the event
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := u.events.PublishDisbursed(pctx, evt); err != nil {
		logger.WithContext(ctx).Error("publish disbursed event failed", "loan_id", l.ID, "err", err)
	}
}

// ProcessPayment books a caller-allocated payment. Payments carry no dedup
// key, so submitting the same payment twice deducts twice.
func (u *Usecase) ProcessPayment(ctx context.Context, loanID uint64, in PaymentInput) (*LoanDTO, error) {
	if !in.PaymentAmount.IsPositive() {
		return nil, loan.ErrInvalidAmount
	}
	now := u.now()
	l, err := u.mutate(ctx, operationPayment, loanID, func(l *loan.Loan) error {
		return l.ApplyPayment(in.PrincipalAmount, in.InterestAmount, now)
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("payment processed",
		"loan_id", l.ID,
		"amount", in.PaymentAmount.String(),
		"balance", l.OutstandingBalance.String(),
		"status", l.Status)
	dto := toDTO(l)
	return &dto, nil
}

func (u *Usecase) MarkDelinquent(ctx context.Context, loanID uint64, daysOverdue int) (*LoanDTO, error) {
	logger.WithContext(ctx).Warn("marking loan delinquent", "loan_id", loanID, "days_overdue", daysOverdue)

	l, err := u.mutate(ctx, operationMarkDelinquent, loanID, func(l *loan.Loan) error {
		return l.MarkDelinquent(daysOverdue)
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("loan delinquency updated", "loan_id", l.ID, "status", l.Status)
	dto := toDTO(l)
	return &dto, nil
}

func (u *Usecase) Close(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	now := u.now()
	l, err := u.mutate(ctx, operationClose, loanID, func(l *loan.Loan) error {
		return l.Close(now)
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("loan closed", "loan_id", l.ID)
	dto := toDTO(l)
	return &dto, nil
}

// mutate loads the loan under a row lock, applies fn, saves, and evicts the
// cached copy after commit.
func (u *Usecase) mutate(ctx context.Context, op string, loanID uint64, fn func(l *loan.Loan) error) (*loan.Loan, error) {
	var out *loan.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if err := fn(l); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	u.record(op, err)
	if err != nil {
		return nil, err
	}
	u.evict(ctx, loanID)
	return out, nil
}

func (u *Usecase) record(op string, err error) {
	if u.recorder != nil {
		u.recorder.LoanOperation(op, err)
	}
}

func (u *Usecase) evict(ctx context.Context, loanID uint64) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Invalidate(ctx, loanID); err != nil {
		logger.WithContext(ctx).Warn("loan cache invalidate failed", "loan_id", loanID, "err", err)
	}
}

// load is the read-through path behind Get and Schedule.
func (u *Usecase) load(ctx context.Context, loanID uint64) (*loan.Loan, error) {
	if u.cache != nil {
		l, err := u.cache.Get(ctx, loanID)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, loan.ErrCacheMiss) {
			logger.WithContext(ctx).Warn("loan cache read failed", "loan_id", loanID, "err", err)
		}
	}

	l, err := u.repo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if u.cache != nil {
		if err := u.cache.Put(ctx, l); err != nil {
			logger.WithContext(ctx).Warn("loan cache write failed", "loan_id", loanID, "err", err)
		}
	}
	return l, nil
}

func (u *Usecase) Get(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	l, err := u.load(ctx, loanID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(l)
	return &dto, nil
}

func (u *Usecase) GetByNumber(ctx context.Context, loanNumber string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanNumber(ctx, loanNumber)
	if err != nil {
		return nil, err
	}
	dto := toDTO(l)
	return &dto, nil
}

func (u *Usecase) ListByCustomer(ctx context.Context, customerID uint64, page loan.Page) (*PageDTO, error) {
	page = page.Normalize()
	items, total, err := u.repo.ListByCustomer(ctx, customerID, page)
	if err != nil {
		return nil, err
	}
	pages := int((total + int64(page.Size) - 1) / int64(page.Size))
	return &PageDTO{
		Content:       toDTOs(items),
		Page:          page.Number,
		Size:          page.Size,
		TotalElements: total,
		TotalPages:    pages,
	}, nil
}

func (u *Usecase) ActiveForCustomer(ctx context.Context, customerID uint64) ([]LoanDTO, error) {
	items, err := u.repo.ListActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return toDTOs(items), nil
}

func (u *Usecase) Delinquent(ctx context.Context) ([]LoanDTO, error) {
	items, err := u.repo.ListDelinquent(ctx)
	if err != nil {
		return nil, err
	}
	return toDTOs(items), nil
}

func (u *Usecase) Defaulted(ctx context.Context) ([]LoanDTO, error) {
	items, err := u.repo.ListDefaulted(ctx)
	if err != nil {
		return nil, err
	}
	return toDTOs(items), nil
}

// UpcomingPayments lists ACTIVE loans due within [today, today+withinDays].
func (u *Usecase) UpcomingPayments(ctx context.Context, withinDays int) ([]LoanDTO, error) {
	if withinDays < 0 {
		return nil, loan.ErrInvalidAmount
	}
	today := loan.Date(u.now())
	items, err := u.repo.ListUpcomingPayments(ctx, today, today.AddDate(0, 0, withinDays))
	if err != nil {
		return nil, err
	}
	return toDTOs(items), nil
}

func (u *Usecase) Maturing(ctx context.Context, withinDays int) ([]LoanDTO, error) {
	if withinDays < 0 {
		return nil, loan.ErrInvalidAmount
	}
	today := loan.Date(u.now())
	items, err := u.repo.ListMaturing(ctx, today, today.AddDate(0, 0, withinDays))
	if err != nil {
		return nil, err
	}
	return toDTOs(items), nil
}

func (u *Usecase) TotalBalance(ctx context.Context, customerID uint64) (decimal.Decimal, error) {
	return u.repo.TotalOutstanding(ctx, customerID)
}

func (u *Usecase) PortfolioStatistics(ctx context.Context) (*PortfolioDTO, error) {
	rows, err := u.repo.PortfolioStatistics(ctx)
	if err != nil {
		return nil, err
	}
	out := &PortfolioDTO{ByType: rows, TotalAmount: decimal.Zero, TotalOutstanding: decimal.Zero}
	for _, r := range rows {
		out.TotalLoans += r.Count
		out.TotalAmount = out.TotalAmount.Add(r.TotalAmount)
		out.TotalOutstanding = out.TotalOutstanding.Add(r.TotalOutstanding)
	}
	return out, nil
}

func (u *Usecase) Schedule(ctx context.Context, loanID uint64) (*ScheduleDTO, error) {
	l, err := u.load(ctx, loanID)
	if err != nil {
		return nil, err
	}
	rows := loan.ScheduleFor(l)
	out := &ScheduleDTO{
		LoanID:         l.ID,
		LoanNumber:     l.LoanNumber,
		MonthlyPayment: l.MonthlyPayment,
		TotalInterest:  decimal.Zero,
		Installments:   make([]InstallmentDTO, 0, len(rows)),
	}
	for _, r := range rows {
		out.TotalInterest = out.TotalInterest.Add(r.Interest)
		out.Installments = append(out.Installments, InstallmentDTO{
			Period:           r.Period,
			DueDate:          r.DueDate.UTC().Format(dateLayout),
			Payment:          r.Payment,
			Principal:        r.Principal,
			Interest:         r.Interest,
			RemainingBalance: r.RemainingBalance,
		})
	}
	return out, nil
}
