package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound              = errors.New("loan not found")
	ErrInvalidState          = errors.New("operation not permitted in current loan status")
	ErrLimitExceeded         = errors.New("customer has reached maximum active loans limit")
	ErrOutstandingBalance    = errors.New("cannot close loan with outstanding balance")
	ErrPaymentExceedsBalance = errors.New("principal amount exceeds outstanding balance")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrConflict              = errors.New("loan conflicts with an existing record")
)

type Status string

const (
	StatusPending     Status = "PENDING"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusActive      Status = "ACTIVE"
	StatusDelinquent  Status = "DELINQUENT"
	StatusDefault     Status = "DEFAULT"
	StatusClosed      Status = "CLOSED"
	StatusWrittenOff  Status = "WRITTEN_OFF"
	StatusCancelled   Status = "CANCELLED"
)

// Servicing statuses are the ones that count toward the per-customer cap.
var Servicing = []Status{StatusActive, StatusDelinquent}

type Type string

const (
	TypePersonal   Type = "PERSONAL"
	TypeAuto       Type = "AUTO"
	TypeMortgage   Type = "MORTGAGE"
	TypeHomeEquity Type = "HOME_EQUITY"
	TypeBusiness   Type = "BUSINESS"
)

const (
	DelinquentAfterDays = 30
	DefaultAfterDays    = 90
)

// PaidOffThreshold is the balance under which a loan counts as fully paid.
var PaidOffThreshold = decimal.NewFromInt(1)

type Loan struct {
	ID                    uint64           `gorm:"primaryKey;column:loan_id" json:"loanId"`
	CustomerID            uint64           `gorm:"column:customer_id;not null;index:idx_loan_customer_id" json:"customerId"`
	LoanNumber            string           `gorm:"column:loan_number;size:20;uniqueIndex:ux_loans_loan_number" json:"loanNumber"`
	LoanType              Type             `gorm:"column:loan_type;size:20;not null;index:idx_loan_type" json:"loanType"`
	LoanAmount            decimal.Decimal  `gorm:"column:loan_amount;type:decimal(12,2);not null" json:"loanAmount"`
	InterestRate          decimal.Decimal  `gorm:"column:interest_rate;type:decimal(5,2);not null" json:"interestRate"`
	TermMonths            int              `gorm:"column:term_months;not null" json:"termMonths"`
	MonthlyPayment        decimal.Decimal  `gorm:"column:monthly_payment;type:decimal(10,2);not null" json:"monthlyPayment"`
	OutstandingBalance    decimal.Decimal  `gorm:"column:outstanding_balance;type:decimal(12,2);not null" json:"outstandingBalance"`
	TotalInterestPaid     decimal.Decimal  `gorm:"column:total_interest_paid;type:decimal(12,2)" json:"totalInterestPaid"`
	TotalPrincipalPaid    decimal.Decimal  `gorm:"column:total_principal_paid;type:decimal(12,2)" json:"totalPrincipalPaid"`
	Status                Status           `gorm:"column:status;size:20;not null;index:idx_loan_status" json:"status"`
	ApplicationDate       time.Time        `gorm:"column:application_date;type:date;not null" json:"applicationDate"`
	ApprovalDate          *time.Time       `gorm:"column:approval_date;type:date" json:"approvalDate"`
	DisbursementDate      *time.Time       `gorm:"column:disbursement_date;type:date" json:"disbursementDate"`
	MaturityDate          *time.Time       `gorm:"column:maturity_date;type:date" json:"maturityDate"`
	ClosedDate            *time.Time       `gorm:"column:closed_date;type:date" json:"closedDate"`
	FirstPaymentDate      *time.Time       `gorm:"column:first_payment_date;type:date" json:"firstPaymentDate"`
	NextPaymentDate       *time.Time       `gorm:"column:next_payment_date;type:date" json:"nextPaymentDate"`
	DaysPastDue           int              `gorm:"column:days_past_due;default:0" json:"daysPastDue"`
	MissedPayments        int              `gorm:"column:missed_payments;default:0" json:"missedPayments"`
	LoanPurpose           string           `gorm:"column:loan_purpose;size:100" json:"loanPurpose"`
	ApprovedBy            *uint64          `gorm:"column:approved_by" json:"approvedBy"`
	ApprovalNotes         string           `gorm:"column:approval_notes;size:500" json:"approvalNotes"`
	CollateralDescription string           `gorm:"column:collateral_description;size:500" json:"collateralDescription"`
	CollateralValue       *decimal.Decimal `gorm:"column:collateral_value;type:decimal(12,2)" json:"collateralValue"`
	LoanToValueRatio      *decimal.Decimal `gorm:"column:loan_to_value_ratio;type:decimal(7,2)" json:"loanToValueRatio"`
	ApplicationID         *uint64          `gorm:"column:application_id" json:"applicationId"`
	IsDefaulted           bool             `gorm:"column:is_defaulted;default:false" json:"isDefaulted"`
	IsWrittenOff          bool             `gorm:"column:is_written_off;default:false" json:"isWrittenOff"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt             time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt             gorm.DeletedAt   `gorm:"column:deleted_at;index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Date truncates t to midnight UTC; every loan date is stored that way.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves t by n calendar months, clamping to the last day of the
// target month: Jan 31 + 1 month is Feb 28 (29 in leap years).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := firstOfTarget.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	ty, tm, _ := firstOfTarget.Date()
	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// monthsBetween counts calendar months from a to b, ignoring the day.
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// Disburse activates an approved loan and lays out its payment dates.
// The first payment falls 30 days after disbursement and the loan matures
// termMonths-1 months after that.
func (l *Loan) Disburse(now time.Time) error {
	if l.Status != StatusApproved {
		return ErrInvalidState
	}
	today := Date(now)
	first := today.AddDate(0, 0, 30)
	next := first
	maturity := AddMonths(first, l.TermMonths-1)

	l.Status = StatusActive
	l.DisbursementDate = &today
	l.FirstPaymentDate = &first
	l.NextPaymentDate = &next
	l.MaturityDate = &maturity
	return nil
}

// ApplyPayment books a caller-allocated payment. It is not idempotent:
// applying the same split twice deducts twice.
func (l *Loan) ApplyPayment(principal, interest decimal.Decimal, now time.Time) error {
	if l.Status != StatusActive && l.Status != StatusDelinquent {
		return ErrInvalidState
	}
	if principal.IsNegative() || interest.IsNegative() {
		return ErrInvalidAmount
	}
	if principal.GreaterThan(l.OutstandingBalance) {
		return ErrPaymentExceedsBalance
	}

	l.OutstandingBalance = l.OutstandingBalance.Sub(principal)
	l.TotalPrincipalPaid = l.TotalPrincipalPaid.Add(principal)
	l.TotalInterestPaid = l.TotalInterestPaid.Add(interest)
	if l.DaysPastDue > 0 {
		l.DaysPastDue = 0
	}

	if l.OutstandingBalance.LessThan(PaidOffThreshold) {
		closed := Date(now)
		l.Status = StatusClosed
		l.ClosedDate = &closed
		return nil
	}

	// always first due date + k months
	switch {
	case l.FirstPaymentDate != nil && l.NextPaymentDate != nil:
		next := AddMonths(*l.FirstPaymentDate, monthsBetween(*l.FirstPaymentDate, *l.NextPaymentDate)+1)
		l.NextPaymentDate = &next
	case l.NextPaymentDate != nil:
		next := AddMonths(*l.NextPaymentDate, 1)
		l.NextPaymentDate = &next
	}
	return nil
}

// MarkDelinquent records a missed payment whatever the current status.
// 30-89 days moves the loan to DELINQUENT, 90 or more to DEFAULT. Below 30
// days only the counters change.
func (l *Loan) MarkDelinquent(daysOverdue int) error {
	if daysOverdue < 0 {
		return ErrInvalidAmount
	}

	l.DaysPastDue = daysOverdue
	l.MissedPayments++

	switch {
	case daysOverdue >= DefaultAfterDays:
		l.Status = StatusDefault
		l.IsDefaulted = true
	case daysOverdue >= DelinquentAfterDays:
		l.Status = StatusDelinquent
	}
	return nil
}

// Close settles a loan whose balance is at most the paid-off threshold.
func (l *Loan) Close(now time.Time) error {
	if l.OutstandingBalance.GreaterThan(PaidOffThreshold) {
		return ErrOutstandingBalance
	}
	closed := Date(now)
	l.Status = StatusClosed
	l.ClosedDate = &closed
	l.OutstandingBalance = decimal.Zero
	return nil
}

func (l *Loan) TotalPaid() decimal.Decimal {
	return l.TotalPrincipalPaid.Add(l.TotalInterestPaid)
}

// PercentagePaid is principal repaid as a percentage of the loan amount.
func (l *Loan) PercentagePaid() decimal.Decimal {
	if l.LoanAmount.IsZero() {
		return decimal.Zero
	}
	return l.TotalPrincipalPaid.DivRound(l.LoanAmount, 4).Mul(decimal.NewFromInt(100)).Round(2)
}

// RemainingPayments is the number of monthly payments left at the fixed
// instalment, rounded up.
func (l *Loan) RemainingPayments() int {
	if !l.MonthlyPayment.IsPositive() || !l.OutstandingBalance.IsPositive() {
		return 0
	}
	return int(l.OutstandingBalance.Div(l.MonthlyPayment).Ceil().IntPart())
}

func (l *Loan) Delinquent() bool { return l.DaysPastDue > 0 }

// LoanToValue returns amount/collateral*100 rounded to 2 places, or nil when
// there is no positive collateral value.
func LoanToValue(amount decimal.Decimal, collateral *decimal.Decimal) *decimal.Decimal {
	if collateral == nil || !collateral.IsPositive() {
		return nil
	}
	ltv := amount.Mul(decimal.NewFromInt(100)).DivRound(*collateral, 2)
	return &ltv
}

// Sequence is the per-year counter behind loan numbers.
type Sequence struct {
	Year      int   `gorm:"column:year;primaryKey;autoIncrement:false"`
	LastValue int64 `gorm:"column:last_value;not null;default:0"`
}

func (Sequence) TableName() string { return "loan_number_sequences" }

// TypeStats is one row of the portfolio breakdown by loan type.
type TypeStats struct {
	LoanType         Type            `json:"loanType"`
	Count            int64           `json:"count"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
}
