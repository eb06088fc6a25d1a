package application

import (
	"context"
	"time"

	domain "loan-service/internal/domain/application"
	"loan-service/internal/domain/uow"
	"loan-service/pkg/logger"

	"github.com/shopspring/decimal"
)

type Usecase struct {
	repo domain.Repository
	uow  uow.UnitOfWork
	now  func() time.Time
}

func NewUsecase(r domain.Repository, tx uow.UnitOfWork) *Usecase {
	return &Usecase{repo: r, uow: tx, now: time.Now}
}

// WithClock swaps the time source; tests pin it.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

func (u *Usecase) Submit(ctx context.Context, in SubmitInput) (*ApplicationDTO, error) {
	a := &domain.Application{
		CustomerID:            in.CustomerID,
		LoanType:              in.LoanType,
		RequestedAmount:       in.RequestedAmount,
		PreferredTermMonths:   in.PreferredTermMonths,
		LoanPurpose:           in.LoanPurpose,
		EmploymentInfo:        in.EmploymentInfo,
		AnnualIncome:          in.AnnualIncome,
		MonthlyHousingPayment: in.MonthlyHousingPayment,
		OtherMonthlyDebts:     in.OtherMonthlyDebts,
		CreditScore:           in.CreditScore,
		CreditBureau:          in.CreditBureau,
		CollateralInfo:        in.CollateralInfo,
		FraudCheckCompleted:   in.FraudCheckCompleted,
		FraudCheckScore:       in.FraudCheckScore,
		SubmissionIP:          in.SubmissionIP,
		UserAgent:             in.UserAgent,
	}
	if err := a.Submit(u.now()); err != nil {
		return nil, err
	}
	if err := u.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("loan application submitted",
		"application_id", a.ID,
		"customer_id", a.CustomerID,
		"auto_approval_eligible", a.EligibleForAutoApproval())
	return toDTO(a), nil
}

func (u *Usecase) Get(ctx context.Context, id uint64) (*ApplicationDTO, error) {
	a, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDTO(a), nil
}

func (u *Usecase) StartReview(ctx context.Context, id uint64) (*ApplicationDTO, error) {
	return u.decide(ctx, id, func(a *domain.Application) error {
		return a.StartReview()
	})
}

func (u *Usecase) Approve(ctx context.Context, id uint64, in ApproveInput) (*ApplicationDTO, error) {
	now := u.now()
	rate := decimal.Zero
	if in.ApprovedRate != nil {
		rate = *in.ApprovedRate
	}
	return u.decide(ctx, id, func(a *domain.Application) error {
		return a.Approve(in.ApprovedAmount, rate, in.ApprovedTermMonths, in.ReviewerID, now)
	})
}

func (u *Usecase) Reject(ctx context.Context, id uint64, in RejectInput) (*ApplicationDTO, error) {
	now := u.now()
	return u.decide(ctx, id, func(a *domain.Application) error {
		return a.Reject(in.Reason, in.ReviewerID, now)
	})
}

// decide applies fn to the locked application and saves it in one tx.
func (u *Usecase) decide(ctx context.Context, id uint64, fn func(a *domain.Application) error) (*ApplicationDTO, error) {
	var out *domain.Application
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Applications.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return err
		}
		if err := r.Applications.Save(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("loan application updated", "application_id", out.ID, "status", out.Status)
	return toDTO(out), nil
}
