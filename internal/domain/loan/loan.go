package loan

import (
	"fmt"
	"time"

	"credit-engine/internal/pkg/apperrors"
)

type Money = float64

type Loan struct {
	ID                 int64
	CustomerID         int64
	LoanAmount         Money
	TenureMonths       int
	InterestRate       Money
	MonthlyInstallment Money
	EMIsPaidOnTime     int
	StartDate          time.Time
	EndDate            time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func NewLoan(customerID int64, amount Money, tenureMonths int, annualInterestRate Money, startDate time.Time) (*Loan, error) {
	if customerID <= 0 {
		return nil, fmt.Errorf("%w: customer ID must be positive", apperrors.ErrInvalidArgument)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: loan amount must be positive", apperrors.ErrInvalidArgument)
	}
	if tenureMonths <= 0 {
		return nil, fmt.Errorf("%w: tenure must be positive", apperrors.ErrInvalidArgument)
	}
	if annualInterestRate < 0 {
		return nil, fmt.Errorf("%w: interest rate cannot be negative", apperrors.ErrInvalidArgument)
	}
	if startDate.IsZero() {
		startDate = time.Now().Truncate(24 * time.Hour)
	}

	loan := &Loan{
		CustomerID:         customerID,
		LoanAmount:         amount,
		TenureMonths:       tenureMonths,
		InterestRate:       annualInterestRate,
		StartDate:          startDate,
		EndDate:            startDate.AddDate(0, tenureMonths, 0),
		MonthlyInstallment: MonthlyInstallment(amount, annualInterestRate, tenureMonths),
	}

	return loan, nil
}

// Active reports whether the loan is still running: end date has not
// passed relative to the evaluation date.
func (l *Loan) Active(asOf time.Time) bool {
	return !l.EndDate.Before(asOf)
}

// RepaymentsLeft is the number of whole calendar months between asOf and the
// end date, floored at zero. A loan whose end date has passed has none left.
func (l *Loan) RepaymentsLeft(asOf time.Time) int {
	if !asOf.Before(l.EndDate) {
		return 0
	}
	monthsLeft := (l.EndDate.Year()-asOf.Year())*12 + int(l.EndDate.Month()) - int(asOf.Month())
	if monthsLeft < 0 {
		return 0
	}
	return monthsLeft
}
