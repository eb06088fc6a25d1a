package application

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("loan application not found")
	ErrInvalidTransition = errors.New("loan application not in a state that allows this decision")
)

type Status string

const (
	StatusDraft         Status = "DRAFT"
	StatusSubmitted     Status = "SUBMITTED"
	StatusUnderReview   Status = "UNDER_REVIEW"
	StatusInfoRequested Status = "INFO_REQUESTED"
	StatusApproved      Status = "APPROVED"
	StatusRejected      Status = "REJECTED"
	StatusWithdrawn     Status = "WITHDRAWN"
	StatusExpired       Status = "EXPIRED"
)

const (
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
)

// Auto-approval thresholds. Eligibility is reported only; no decision is
// taken on it.
var (
	autoApproveMinScore      = 750
	autoApproveMaxDTI        = decimal.NewFromInt(36)
	autoApproveMinFraudScore = 80
)

// Table: loan_applications
type Application struct {
	ID                    uint64           `gorm:"column:application_id;primaryKey;autoIncrement" json:"applicationId"`
	CustomerID            uint64           `gorm:"column:customer_id;not null;index:idx_app_customer_id" json:"customerId"`
	LoanType              string           `gorm:"column:loan_type;size:20;not null" json:"loanType"`
	RequestedAmount       decimal.Decimal  `gorm:"column:requested_amount;type:decimal(12,2);not null" json:"requestedAmount"`
	PreferredTermMonths   int              `gorm:"column:preferred_term_months;not null" json:"preferredTermMonths"`
	LoanPurpose           string           `gorm:"column:loan_purpose;size:200;not null" json:"loanPurpose"`
	EmploymentInfo        map[string]any   `gorm:"column:employment_info;type:json;serializer:json" json:"employmentInfo,omitempty"`
	AnnualIncome          decimal.Decimal  `gorm:"column:annual_income;type:decimal(12,2);not null" json:"annualIncome"`
	MonthlyHousingPayment *decimal.Decimal `gorm:"column:monthly_housing_payment;type:decimal(10,2)" json:"monthlyHousingPayment"`
	OtherMonthlyDebts     *decimal.Decimal `gorm:"column:other_monthly_debts;type:decimal(10,2)" json:"otherMonthlyDebts"`
	DebtToIncomeRatio     *decimal.Decimal `gorm:"column:debt_to_income_ratio;type:decimal(7,2)" json:"debtToIncomeRatio"`
	CreditScore           *int             `gorm:"column:credit_score" json:"creditScore"`
	CreditBureau          string           `gorm:"column:credit_bureau;size:50" json:"creditBureau"`
	CollateralInfo        map[string]any   `gorm:"column:collateral_info;type:json;serializer:json" json:"collateralInfo,omitempty"`
	Status                Status           `gorm:"column:status;size:20;not null;index:idx_app_status" json:"status"`
	UnderwritingDecision  string           `gorm:"column:underwriting_decision;size:20" json:"underwritingDecision"`
	DecisionNotes         string           `gorm:"column:decision_notes;size:1000" json:"decisionNotes"`
	ApprovedAmount        *decimal.Decimal `gorm:"column:approved_amount;type:decimal(12,2)" json:"approvedAmount"`
	ApprovedRate          *decimal.Decimal `gorm:"column:approved_rate;type:decimal(5,2)" json:"approvedRate"`
	ApprovedTermMonths    *int             `gorm:"column:approved_term_months" json:"approvedTermMonths"`
	ReviewedBy            *uint64          `gorm:"column:reviewed_by" json:"reviewedBy"`
	ApplicationDate       time.Time        `gorm:"column:application_date;not null;index:idx_app_date" json:"applicationDate"`
	ReviewedDate          *time.Time       `gorm:"column:reviewed_date" json:"reviewedDate"`
	LoanID                *uint64          `gorm:"column:loan_id" json:"loanId"`
	SubmissionIP          string           `gorm:"column:submission_ip;size:45" json:"submissionIp"`
	UserAgent             string           `gorm:"column:user_agent;size:500" json:"userAgent"`
	FraudCheckCompleted   bool             `gorm:"column:fraud_check_completed;default:false" json:"fraudCheckCompleted"`
	FraudCheckScore       *int             `gorm:"column:fraud_check_score" json:"fraudCheckScore"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt             time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Application) TableName() string { return "loan_applications" }

// CalculateDTI sets the debt-to-income ratio as a percentage of monthly
// income. It is left untouched when no income is known.
func (a *Application) CalculateDTI() {
	if !a.AnnualIncome.IsPositive() {
		return
	}
	monthlyIncome := a.AnnualIncome.DivRound(decimal.NewFromInt(12), 2)
	debts := decimal.Zero
	if a.MonthlyHousingPayment != nil {
		debts = debts.Add(*a.MonthlyHousingPayment)
	}
	if a.OtherMonthlyDebts != nil {
		debts = debts.Add(*a.OtherMonthlyDebts)
	}
	dti := debts.DivRound(monthlyIncome, 4).Mul(decimal.NewFromInt(100)).Round(2)
	a.DebtToIncomeRatio = &dti
}

func (a *Application) EligibleForAutoApproval() bool {
	return a.CreditScore != nil && *a.CreditScore >= autoApproveMinScore &&
		a.DebtToIncomeRatio != nil && a.DebtToIncomeRatio.LessThanOrEqual(autoApproveMaxDTI) &&
		a.FraudCheckCompleted && a.FraudCheckScore != nil && *a.FraudCheckScore >= autoApproveMinFraudScore
}

func (a *Application) Submit(now time.Time) error {
	if a.Status != "" && a.Status != StatusDraft {
		return ErrInvalidTransition
	}
	a.Status = StatusSubmitted
	a.ApplicationDate = now.UTC()
	a.CalculateDTI()
	return nil
}

func (a *Application) StartReview() error {
	if a.Status != StatusSubmitted {
		return ErrInvalidTransition
	}
	a.Status = StatusUnderReview
	return nil
}

func (a *Application) decidable() bool {
	return a.Status == StatusSubmitted || a.Status == StatusUnderReview
}

func (a *Application) Approve(amount, rate decimal.Decimal, termMonths int, reviewerID uint64, now time.Time) error {
	if !a.decidable() {
		return ErrInvalidTransition
	}
	at := now.UTC()
	a.Status = StatusApproved
	a.ApprovedAmount = &amount
	a.ApprovedRate = &rate
	a.ApprovedTermMonths = &termMonths
	a.ReviewedBy = &reviewerID
	a.ReviewedDate = &at
	a.UnderwritingDecision = DecisionApproved
	return nil
}

func (a *Application) Reject(reason string, reviewerID uint64, now time.Time) error {
	if !a.decidable() {
		return ErrInvalidTransition
	}
	at := now.UTC()
	a.Status = StatusRejected
	a.DecisionNotes = reason
	a.ReviewedBy = &reviewerID
	a.ReviewedDate = &at
	a.UnderwritingDecision = DecisionRejected
	return nil
}
