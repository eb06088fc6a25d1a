package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// workingScale is the number of fractional digits kept for intermediate
// results; only the final payment is rounded to cents.
const workingScale = 20

var (
	monthsRatio = decimal.NewFromInt(1200)
	one         = decimal.NewFromInt(1)
)

// MonthlyRate converts an annual percentage rate into a monthly fraction.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.DivRound(monthsRatio, workingScale)
}

// MonthlyPayment returns the fixed instalment that amortizes principal over
// termMonths at annualRatePercent:
//
//	M = P * r(1+r)^n / ((1+r)^n - 1),  r = annual/1200
//
// A zero rate degrades to P/n. The result is rounded half-up to cents.
func MonthlyPayment(principal, annualRatePercent decimal.Decimal, termMonths int) decimal.Decimal {
	if termMonths <= 0 || !principal.IsPositive() {
		return decimal.Zero
	}
	r := MonthlyRate(annualRatePercent)
	if r.IsZero() {
		return principal.DivRound(decimal.NewFromInt(int64(termMonths)), workingScale).Round(2)
	}

	factor := one
	base := one.Add(r)
	for i := 0; i < termMonths; i++ {
		factor = factor.Mul(base).Round(workingScale)
	}
	numerator := principal.Mul(r).Mul(factor)
	return numerator.DivRound(factor.Sub(one), workingScale).Round(2)
}

// Installment is one row of an amortization schedule.
type Installment struct {
	Period           int             `json:"period"`
	DueDate          time.Time       `json:"dueDate"`
	Payment          decimal.Decimal `json:"payment"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// Schedule lays out the fixed-payment plan for a loan starting on
// firstPayment. Interest is charged on the running balance each month and
// the final instalment absorbs rounding so the balance ends at zero.
func Schedule(principal, annualRatePercent decimal.Decimal, termMonths int, payment decimal.Decimal, firstPayment time.Time) []Installment {
	if termMonths <= 0 || !principal.IsPositive() {
		return nil
	}
	r := MonthlyRate(annualRatePercent)
	remaining := principal
	out := make([]Installment, 0, termMonths)

	for period := 1; period <= termMonths; period++ {
		interest := remaining.Mul(r).Round(2)
		principalPart := payment.Sub(interest)
		if period == termMonths || principalPart.GreaterThan(remaining) {
			principalPart = remaining
		}
		remaining = remaining.Sub(principalPart)

		out = append(out, Installment{
			Period:           period,
			DueDate:          AddMonths(firstPayment, period-1),
			Payment:          principalPart.Add(interest),
			Principal:        principalPart,
			Interest:         interest,
			RemainingBalance: remaining,
		})
		if remaining.IsZero() {
			break
		}
	}
	return out
}

// ScheduleFor builds the schedule of l from its first payment date, or from
// one month after application when the loan has not been disbursed yet.
func ScheduleFor(l *Loan) []Installment {
	start := AddMonths(l.ApplicationDate, 1)
	if l.FirstPaymentDate != nil {
		start = *l.FirstPaymentDate
	}
	return Schedule(l.LoanAmount, l.InterestRate, l.TermMonths, l.MonthlyPayment, start)
}
