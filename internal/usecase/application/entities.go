package application

import (
	"time"

	domain "loan-service/internal/domain/application"

	"github.com/shopspring/decimal"
)

type SubmitInput struct {
	CustomerID            uint64           `json:"customerId" validate:"required,gt=0"`
	LoanType              string           `json:"loanType" validate:"required,oneof=PERSONAL AUTO MORTGAGE HOME_EQUITY BUSINESS"`
	RequestedAmount       decimal.Decimal  `json:"requestedAmount" validate:"required,gte=1000,lte=1000000,dec2"`
	PreferredTermMonths   int              `json:"preferredTermMonths" validate:"required,gte=6,lte=360"`
	LoanPurpose           string           `json:"loanPurpose" validate:"required,max=200"`
	EmploymentInfo        map[string]any   `json:"employmentInfo"`
	AnnualIncome          decimal.Decimal  `json:"annualIncome" validate:"required,gte=12000,dec2"`
	MonthlyHousingPayment *decimal.Decimal `json:"monthlyHousingPayment" validate:"omitempty,gte=0,dec2"`
	OtherMonthlyDebts     *decimal.Decimal `json:"otherMonthlyDebts" validate:"omitempty,gte=0,dec2"`
	CreditScore           *int             `json:"creditScore" validate:"omitempty,gte=300,lte=850"`
	CreditBureau          string           `json:"creditBureau" validate:"max=50"`
	CollateralInfo        map[string]any   `json:"collateralInfo"`
	FraudCheckCompleted   bool             `json:"fraudCheckCompleted"`
	FraudCheckScore       *int             `json:"fraudCheckScore" validate:"omitempty,gte=0,lte=100"`

	// filled from the request, not the body
	SubmissionIP string `json:"-"`
	UserAgent    string `json:"-"`
}

type ApproveInput struct {
	ApprovedAmount     decimal.Decimal  `json:"approvedAmount" validate:"required,gte=1000,lte=1000000,dec2"`
	ApprovedRate       *decimal.Decimal `json:"approvedRate" validate:"required,gte=0,lte=36,dec2"`
	ApprovedTermMonths int              `json:"approvedTermMonths" validate:"required,gte=6,lte=360"`
	ReviewerID         uint64           `json:"reviewerId" validate:"required,gt=0"`
}

type RejectInput struct {
	Reason     string `json:"reason" validate:"required,max=1000"`
	ReviewerID uint64 `json:"reviewerId" validate:"required,gt=0"`
}

type ApplicationDTO struct {
	ApplicationID           uint64           `json:"applicationId"`
	CustomerID              uint64           `json:"customerId"`
	LoanType                string           `json:"loanType"`
	RequestedAmount         decimal.Decimal  `json:"requestedAmount"`
	PreferredTermMonths     int              `json:"preferredTermMonths"`
	LoanPurpose             string           `json:"loanPurpose"`
	EmploymentInfo          map[string]any   `json:"employmentInfo,omitempty"`
	AnnualIncome            decimal.Decimal  `json:"annualIncome"`
	MonthlyHousingPayment   *decimal.Decimal `json:"monthlyHousingPayment"`
	OtherMonthlyDebts       *decimal.Decimal `json:"otherMonthlyDebts"`
	DebtToIncomeRatio       *decimal.Decimal `json:"debtToIncomeRatio"`
	CreditScore             *int             `json:"creditScore"`
	CreditBureau            string           `json:"creditBureau,omitempty"`
	CollateralInfo          map[string]any   `json:"collateralInfo,omitempty"`
	Status                  string           `json:"status"`
	UnderwritingDecision    string           `json:"underwritingDecision,omitempty"`
	DecisionNotes           string           `json:"decisionNotes,omitempty"`
	ApprovedAmount          *decimal.Decimal `json:"approvedAmount"`
	ApprovedRate            *decimal.Decimal `json:"approvedRate"`
	ApprovedTermMonths      *int             `json:"approvedTermMonths"`
	ReviewedBy              *uint64          `json:"reviewedBy"`
	ApplicationDate         time.Time        `json:"applicationDate"`
	ReviewedDate            *time.Time       `json:"reviewedDate"`
	LoanID                  *uint64          `json:"loanId"`
	FraudCheckCompleted     bool             `json:"fraudCheckCompleted"`
	FraudCheckScore         *int             `json:"fraudCheckScore"`
	EligibleForAutoApproval bool             `json:"eligibleForAutoApproval"`
}

func toDTO(a *domain.Application) *ApplicationDTO {
	return &ApplicationDTO{
		ApplicationID:           a.ID,
		CustomerID:              a.CustomerID,
		LoanType:                a.LoanType,
		RequestedAmount:         a.RequestedAmount,
		PreferredTermMonths:     a.PreferredTermMonths,
		LoanPurpose:             a.LoanPurpose,
		EmploymentInfo:          a.EmploymentInfo,
		AnnualIncome:            a.AnnualIncome,
		MonthlyHousingPayment:   a.MonthlyHousingPayment,
		OtherMonthlyDebts:       a.OtherMonthlyDebts,
		DebtToIncomeRatio:       a.DebtToIncomeRatio,
		CreditScore:             a.CreditScore,
		CreditBureau:            a.CreditBureau,
		CollateralInfo:          a.CollateralInfo,
		Status:                  string(a.Status),
		UnderwritingDecision:    a.UnderwritingDecision,
		DecisionNotes:           a.DecisionNotes,
		ApprovedAmount:          a.ApprovedAmount,
		ApprovedRate:            a.ApprovedRate,
		ApprovedTermMonths:      a.ApprovedTermMonths,
		ReviewedBy:              a.ReviewedBy,
		ApplicationDate:         a.ApplicationDate,
		ReviewedDate:            a.ReviewedDate,
		LoanID:                  a.LoanID,
		FraudCheckCompleted:     a.FraudCheckCompleted,
		FraudCheckScore:         a.FraudCheckScore,
		EligibleForAutoApproval: a.EligibleForAutoApproval(),
	}
}
