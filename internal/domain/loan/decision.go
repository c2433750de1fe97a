package loan

import (
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"
)

const (
	// affordableEMIShare caps the total monthly installment burden as a
	// fraction of monthly salary.
	affordableEMIShare = 0.5

	tierHighScore = 50
	tierMidScore  = 30
	tierLowScore  = 10

	tierMidMinRate = 12.0
	tierLowMinRate = 16.0
)

const (
	msgApproved      = "Loan approved successfully"
	msgAffordability = "Loan not approved: Total EMI exceeds 50% of monthly salary"
	msgScoreTooLow   = "Loan not approved: Credit score too low"
	msgRateBelowTier = "Loan not approved: Interest rate too low for credit score"
)

// Request carries the customer's asked-for loan terms into the decision
// engine.
type Request struct {
	CustomerID   int64
	LoanAmount   Money
	InterestRate Money
	TenureMonths int
}

// Decision is the outcome of evaluating a Request against a customer's
// credit profile. Reason carries the rejection class as an apperrors
// sentinel; it is nil when the request is approved.
type Decision struct {
	Approved           bool
	Score              int
	RequestedRate      Money
	CorrectedRate      Money
	MonthlyInstallment Money
	Message            string
	Reason             error
}

// CheckEligibility evaluates a request without committing to it. Approval
// reflects the asked-for rate only: when that rate is below the minimum for
// the customer's score tier, the decision stays unapproved but carries the
// corrected rate and the installment recomputed at it, so the caller can
// re-apply at terms that would pass. The affordability cap is absolute and
// is never corrected around.
func CheckEligibility(cust *customer.Customer, history []Loan, req Request, asOf time.Time) Decision {
	score := CreditScore(cust.ApprovedLimit, history, asOf)
	burden := currentEMIBurden(history, asOf)
	installment := MonthlyInstallment(req.LoanAmount, req.InterestRate, req.TenureMonths)

	dec := Decision{
		Score:              score,
		RequestedRate:      req.InterestRate,
		CorrectedRate:      req.InterestRate,
		MonthlyInstallment: installment,
	}

	if burden+installment > affordableEMIShare*cust.MonthlySalary {
		dec.Message = msgAffordability
		dec.Reason = apperrors.ErrAffordability
		return dec
	}

	switch {
	case score > tierHighScore:
		dec.Approved = true
	case score > tierMidScore:
		if req.InterestRate >= tierMidMinRate {
			dec.Approved = true
		} else {
			dec.CorrectedRate = tierMidMinRate
			dec.MonthlyInstallment = MonthlyInstallment(req.LoanAmount, tierMidMinRate, req.TenureMonths)
		}
	case score > tierLowScore:
		if req.InterestRate >= tierLowMinRate {
			dec.Approved = true
		} else {
			dec.CorrectedRate = tierLowMinRate
			dec.MonthlyInstallment = MonthlyInstallment(req.LoanAmount, tierLowMinRate, req.TenureMonths)
		}
	default:
		dec.Message = msgScoreTooLow
		dec.Reason = apperrors.ErrScoreTooLow
		return dec
	}

	if dec.Approved {
		dec.Message = msgApproved
	} else {
		dec.Message = msgRateBelowTier
		dec.Reason = apperrors.ErrRateBelowTier
	}
	return dec
}

// EvaluateIssuance evaluates a request for actual disbursal. Unlike
// CheckEligibility it never corrects the rate: a rate below the tier minimum
// rejects the request, and the caller is expected to re-apply at corrected
// terms.
func EvaluateIssuance(cust *customer.Customer, history []Loan, req Request, asOf time.Time) Decision {
	score := CreditScore(cust.ApprovedLimit, history, asOf)
	burden := currentEMIBurden(history, asOf)
	installment := MonthlyInstallment(req.LoanAmount, req.InterestRate, req.TenureMonths)

	dec := Decision{
		Score:              score,
		RequestedRate:      req.InterestRate,
		CorrectedRate:      req.InterestRate,
		MonthlyInstallment: installment,
	}

	switch {
	case burden+installment > affordableEMIShare*cust.MonthlySalary:
		dec.Message = msgAffordability
		dec.Reason = apperrors.ErrAffordability
	case score <= tierLowScore:
		dec.Message = msgScoreTooLow
		dec.Reason = apperrors.ErrScoreTooLow
	case score > tierHighScore:
		dec.Approved = true
		dec.Message = msgApproved
	case score > tierMidScore && req.InterestRate >= tierMidMinRate:
		dec.Approved = true
		dec.Message = msgApproved
	case score > tierLowScore && req.InterestRate >= tierLowMinRate:
		dec.Approved = true
		dec.Message = msgApproved
	default:
		dec.Message = msgRateBelowTier
		dec.Reason = apperrors.ErrRateBelowTier
	}

	return dec
}

// currentEMIBurden sums the monthly installments of the customer's active
// loans.
func currentEMIBurden(history []Loan, asOf time.Time) Money {
	var burden Money
	for i := range history {
		if history[i].Active(asOf) {
			burden += history[i].MonthlyInstallment
		}
	}
	return burden
}
