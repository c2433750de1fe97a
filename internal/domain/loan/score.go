package loan

import (
	"math"
	"time"
)

// DefaultScore is assigned to customers with no loan history at all.
const DefaultScore = 50

// CreditScore rates a customer's loan history on a 0 to 100 scale.
//
// A customer with no history gets the neutral DefaultScore. A customer whose
// active loans together exceed the approved limit scores zero outright.
// Otherwise four factors contribute points: on-time payment ratio (up to 40),
// number of past loans (up to 20), loan activity in the current year (up to
// 20) and total borrowed volume against the approved limit (up to 20). The
// sum is rounded to the nearest integer and clamped to [0, 100].
func CreditScore(approvedLimit Money, history []Loan, asOf time.Time) int {
	if len(history) == 0 {
		return DefaultScore
	}

	var activePrincipal Money
	for i := range history {
		if history[i].Active(asOf) {
			activePrincipal += history[i].LoanAmount
		}
	}
	if activePrincipal > approvedLimit {
		return 0
	}

	var totalPrincipal Money
	for i := range history {
		totalPrincipal += history[i].LoanAmount
	}

	score := onTimePaymentPoints(history) +
		float64(loanCountPoints(len(history))) +
		float64(currentYearActivityPoints(history, asOf)) +
		float64(volumePoints(totalPrincipal, approvedLimit))

	rounded := int(math.Round(score))
	if rounded > 100 {
		return 100
	}
	if rounded < 0 {
		return 0
	}
	return rounded
}

// onTimePaymentPoints scales the share of EMIs paid on time across the whole
// history to at most 40 points.
func onTimePaymentPoints(history []Loan) float64 {
	var totalEMIs, onTime int
	for i := range history {
		totalEMIs += history[i].TenureMonths
		onTime += history[i].EMIsPaidOnTime
	}
	if totalEMIs == 0 {
		return 0
	}
	points := float64(onTime) / float64(totalEMIs) * 40
	if points > 40 {
		return 40
	}
	return points
}

// loanCountPoints rewards a short credit file: few loans score higher.
func loanCountPoints(count int) int {
	switch {
	case count <= 3:
		return 20
	case count <= 6:
		return 10
	default:
		return 0
	}
}

// currentYearActivityPoints penalizes customers opening many loans in the
// evaluation year.
func currentYearActivityPoints(history []Loan, asOf time.Time) int {
	var started int
	for i := range history {
		if history[i].StartDate.Year() == asOf.Year() {
			started++
		}
	}
	switch {
	case started <= 2:
		return 20
	case started <= 4:
		return 10
	default:
		return 0
	}
}

// volumePoints rewards borrowing well inside the approved limit.
func volumePoints(totalPrincipal, approvedLimit Money) int {
	switch {
	case totalPrincipal <= 0.5*approvedLimit:
		return 20
	case totalPrincipal <= 0.8*approvedLimit:
		return 10
	default:
		return 0
	}
}
