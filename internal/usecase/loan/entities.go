package loan

import (
	"time"

	"loan-service/internal/domain/loan"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type CreateLoanInput struct {
	CustomerID            uint64           `json:"customerId" validate:"required,gt=0"`
	LoanType              string           `json:"loanType" validate:"required,oneof=PERSONAL AUTO MORTGAGE HOME_EQUITY BUSINESS"`
	LoanAmount            decimal.Decimal  `json:"loanAmount" validate:"required,gte=1000,lte=1000000,dec2"`
	InterestRate          *decimal.Decimal `json:"interestRate" validate:"required,gte=0,lte=36,dec2"`
	TermMonths            int              `json:"termMonths" validate:"required,gte=6,lte=360"`
	LoanPurpose           string           `json:"loanPurpose" validate:"required,max=100"`
	ApprovedBy            *uint64          `json:"approvedBy"`
	ApprovalNotes         string           `json:"approvalNotes" validate:"max=500"`
	ApplicationID         *uint64          `json:"applicationId"`
	CollateralDescription string           `json:"collateralDescription" validate:"max=500"`
	CollateralValue       *decimal.Decimal `json:"collateralValue" validate:"omitempty,gte=0,dec2"`
}

type PaymentInput struct {
	PaymentAmount   decimal.Decimal `json:"paymentAmount" validate:"required,gt=0,dec2"`
	PrincipalAmount decimal.Decimal `json:"principalAmount" validate:"gte=0,dec2"`
	InterestAmount  decimal.Decimal `json:"interestAmount" validate:"gte=0,dec2"`
}

// LoanDTO is the API view of a loan: dates as YYYY-MM-DD plus the derived
// repayment figures.
type LoanDTO struct {
	LoanID                uint64           `json:"loanId"`
	CustomerID            uint64           `json:"customerId"`
	LoanNumber            string           `json:"loanNumber"`
	LoanType              string           `json:"loanType"`
	LoanAmount            decimal.Decimal  `json:"loanAmount"`
	InterestRate          decimal.Decimal  `json:"interestRate"`
	TermMonths            int              `json:"termMonths"`
	MonthlyPayment        decimal.Decimal  `json:"monthlyPayment"`
	OutstandingBalance    decimal.Decimal  `json:"outstandingBalance"`
	TotalPrincipalPaid    decimal.Decimal  `json:"totalPrincipalPaid"`
	TotalInterestPaid     decimal.Decimal  `json:"totalInterestPaid"`
	Status                string           `json:"status"`
	ApplicationDate       string           `json:"applicationDate"`
	ApprovalDate          *string          `json:"approvalDate"`
	DisbursementDate      *string          `json:"disbursementDate"`
	FirstPaymentDate      *string          `json:"firstPaymentDate"`
	NextPaymentDate       *string          `json:"nextPaymentDate"`
	MaturityDate          *string          `json:"maturityDate"`
	ClosedDate            *string          `json:"closedDate"`
	DaysPastDue           int              `json:"daysPastDue"`
	MissedPayments        int              `json:"missedPayments"`
	LoanPurpose           string           `json:"loanPurpose"`
	ApprovedBy            *uint64          `json:"approvedBy"`
	ApprovalNotes         string           `json:"approvalNotes,omitempty"`
	ApplicationID         *uint64          `json:"applicationId"`
	CollateralDescription string           `json:"collateralDescription,omitempty"`
	CollateralValue       *decimal.Decimal `json:"collateralValue"`
	LoanToValueRatio      *decimal.Decimal `json:"loanToValueRatio"`
	IsDefaulted           bool             `json:"isDefaulted"`
	IsWrittenOff          bool             `json:"isWrittenOff"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`

	TotalPaid         decimal.Decimal `json:"totalPaid"`
	PercentagePaid    decimal.Decimal `json:"percentagePaid"`
	RemainingPayments int             `json:"remainingPayments"`
	Delinquent        bool            `json:"delinquent"`
}

type PageDTO struct {
	Content       []LoanDTO `json:"content"`
	Page          int       `json:"page"`
	Size          int       `json:"size"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
}

type InstallmentDTO struct {
	Period           int             `json:"period"`
	DueDate          string          `json:"dueDate"`
	Payment          decimal.Decimal `json:"payment"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

type ScheduleDTO struct {
	LoanID         uint64           `json:"loanId"`
	LoanNumber     string           `json:"loanNumber"`
	MonthlyPayment decimal.Decimal  `json:"monthlyPayment"`
	TotalInterest  decimal.Decimal  `json:"totalInterest"`
	Installments   []InstallmentDTO `json:"installments"`
}

type PortfolioDTO struct {
	TotalLoans       int64            `json:"totalLoans"`
	TotalAmount      decimal.Decimal  `json:"totalAmount"`
	TotalOutstanding decimal.Decimal  `json:"totalOutstanding"`
	ByType           []loan.TypeStats `json:"byType"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}

func toDTO(l *loan.Loan) LoanDTO {
	return LoanDTO{
		LoanID:                l.ID,
		CustomerID:            l.CustomerID,
		LoanNumber:            l.LoanNumber,
		LoanType:              string(l.LoanType),
		LoanAmount:            l.LoanAmount,
		InterestRate:          l.InterestRate,
		TermMonths:            l.TermMonths,
		MonthlyPayment:        l.MonthlyPayment,
		OutstandingBalance:    l.OutstandingBalance,
		TotalPrincipalPaid:    l.TotalPrincipalPaid,
		TotalInterestPaid:     l.TotalInterestPaid,
		Status:                string(l.Status),
		ApplicationDate:       l.ApplicationDate.UTC().Format(dateLayout),
		ApprovalDate:          formatDate(l.ApprovalDate),
		DisbursementDate:      formatDate(l.DisbursementDate),
		FirstPaymentDate:      formatDate(l.FirstPaymentDate),
		NextPaymentDate:       formatDate(l.NextPaymentDate),
		MaturityDate:          formatDate(l.MaturityDate),
		ClosedDate:            formatDate(l.ClosedDate),
		DaysPastDue:           l.DaysPastDue,
		MissedPayments:        l.MissedPayments,
		LoanPurpose:           l.LoanPurpose,
		ApprovedBy:            l.ApprovedBy,
		ApprovalNotes:         l.ApprovalNotes,
		ApplicationID:         l.ApplicationID,
		CollateralDescription: l.CollateralDescription,
		CollateralValue:       l.CollateralValue,
		LoanToValueRatio:      l.LoanToValueRatio,
		IsDefaulted:           l.IsDefaulted,
		IsWrittenOff:          l.IsWrittenOff,
		CreatedAt:             l.CreatedAt,
		UpdatedAt:             l.UpdatedAt,
		TotalPaid:             l.TotalPaid(),
		PercentagePaid:        l.PercentagePaid(),
		RemainingPayments:     l.RemainingPayments(),
		Delinquent:            l.Delinquent(),
	}
}

func toDTOs(ls []loan.Loan) []LoanDTO {
	out := make([]LoanDTO, 0, len(ls))
	for i := range ls {
		out = append(out, toDTO(&ls[i]))
	}
	return out
}
