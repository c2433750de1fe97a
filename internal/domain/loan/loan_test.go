package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"credit-engine/internal/pkg/apperrors"
)

func TestNewLoan(t *testing.T) {
	start := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	l, err := NewLoan(42, 100000, 12, 10, start)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), l.CustomerID)
	assert.Equal(t, start, l.StartDate)
	assert.Equal(t, time.Date(2027, time.March, 10, 0, 0, 0, 0, time.UTC), l.EndDate)
	assert.Equal(t, MonthlyInstallment(100000, 10, 12), l.MonthlyInstallment)
}

func TestNewLoanValidation(t *testing.T) {
	start := time.Now()

	testCases := []struct {
		name       string
		customerID int64
		amount     Money
		tenure     int
		rate       Money
	}{
		{"zero customer ID", 0, 100000, 12, 10},
		{"zero amount", 1, 0, 12, 10},
		{"negative amount", 1, -5, 12, 10},
		{"zero tenure", 1, 100000, 0, 10},
		{"negative rate", 1, 100000, 12, -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoan(tc.customerID, tc.amount, tc.tenure, tc.rate, start)
			assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		})
	}
}

func TestLoanActive(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	l, err := NewLoan(1, 100000, 6, 10, start)
	assert.NoError(t, err)

	assert.True(t, l.Active(start))
	assert.True(t, l.Active(start.AddDate(0, 6, 0)), "loan is active through its end date")
	assert.False(t, l.Active(start.AddDate(0, 6, 1)))
}

func TestRepaymentsLeft(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	l, err := NewLoan(1, 100000, 12, 10, start)
	assert.NoError(t, err)

	assert.Equal(t, 12, l.RepaymentsLeft(start))
	assert.Equal(t, 4, l.RepaymentsLeft(time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, l.RepaymentsLeft(l.EndDate))
	assert.Equal(t, 0, l.RepaymentsLeft(l.EndDate.AddDate(1, 0, 0)))
}
