package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyInstallmentZeroRate(t *testing.T) {
	got := MonthlyInstallment(120000, 0, 12)
	assert.Equal(t, 10000.0, got, "zero rate should divide principal evenly")
}

func TestMonthlyInstallmentCompound(t *testing.T) {
	// 12% annual is a 1% monthly rate: 1000 * 0.01 * 1.0201 / 0.0201.
	got := MonthlyInstallment(1000, 12, 2)
	assert.InDelta(t, 507.51, got, 0.001)

	// Single payment is principal plus one month of interest.
	got = MonthlyInstallment(1000, 12, 1)
	assert.InDelta(t, 1010.00, got, 0.001)
}

func TestMonthlyInstallmentTypicalLoan(t *testing.T) {
	got := MonthlyInstallment(100000, 10, 12)
	assert.InDelta(t, 8791.6, got, 0.1)
}

func TestMonthlyInstallmentMonotonicInRate(t *testing.T) {
	low := MonthlyInstallment(500000, 8, 24)
	high := MonthlyInstallment(500000, 16, 24)
	assert.Greater(t, high, low)
}

func TestMonthlyInstallmentInvalidTenure(t *testing.T) {
	assert.Equal(t, 0.0, MonthlyInstallment(1000, 10, 0))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 10.57, roundTo(10.567, 2))
	assert.Equal(t, 10.56, roundTo(10.5649, 2))
	// Exact half rounds away from zero in both directions.
	assert.Equal(t, 10.63, roundTo(10.625, 2))
	assert.Equal(t, -10.63, roundTo(-10.625, 2))
}
