package dto

import (
	"fmt"

	"credit-engine/internal/domain/loan"
)

type EligibilityCheckRequest struct {
	CustomerID   int64   `json:"customer_id"`
	LoanAmount   float64 `json:"loan_amount"`
	InterestRate float64 `json:"interest_rate"`
	Tenure       int     `json:"tenure"`
}

func (r *EligibilityCheckRequest) Validate() error {
	if r.CustomerID <= 0 {
		return fmt.Errorf("customer_id must be a positive number")
	}
	if r.LoanAmount <= 0 {
		return fmt.Errorf("loan_amount must be greater than zero")
	}
	if r.InterestRate < 0 {
		return fmt.Errorf("interest_rate cannot be negative")
	}
	if r.Tenure <= 0 {
		return fmt.Errorf("tenure must be positive")
	}
	return nil
}

func (r *EligibilityCheckRequest) ToDomain() loan.Request {
	return loan.Request{
		CustomerID:   r.CustomerID,
		LoanAmount:   r.LoanAmount,
		InterestRate: r.InterestRate,
		TenureMonths: r.Tenure,
	}
}

// CreateLoanRequest carries the same fields as an eligibility check; the
// difference is what the server does with them.
type CreateLoanRequest = EligibilityCheckRequest

type EligibilityResponse struct {
	CustomerID            int64   `json:"customer_id"`
	Approval              bool    `json:"approval"`
	InterestRate          float64 `json:"interest_rate"`
	CorrectedInterestRate float64 `json:"corrected_interest_rate"`
	Tenure                int     `json:"tenure"`
	MonthlyInstallment    string  `json:"monthly_installment"`
}

func NewEligibilityResponse(customerID int64, tenure int, dec *loan.Decision) EligibilityResponse {
	return EligibilityResponse{
		CustomerID:            customerID,
		Approval:              dec.Approved,
		InterestRate:          dec.RequestedRate,
		CorrectedInterestRate: dec.CorrectedRate,
		Tenure:                tenure,
		MonthlyInstallment:    formatMoney(dec.MonthlyInstallment),
	}
}

type CreateLoanResponse struct {
	LoanID             *int64 `json:"loan_id"`
	CustomerID         int64  `json:"customer_id"`
	LoanApproved       bool   `json:"loan_approved"`
	Message            string `json:"message"`
	MonthlyInstallment string `json:"monthly_installment"`
}

func NewCreateLoanResponse(customerID int64, result *loan.IssuanceResult) CreateLoanResponse {
	resp := CreateLoanResponse{
		CustomerID:         customerID,
		LoanApproved:       result.Decision.Approved,
		Message:            result.Decision.Message,
		MonthlyInstallment: formatMoney(result.Decision.MonthlyInstallment),
	}
	if result.Loan != nil {
		id := result.Loan.ID
		resp.LoanID = &id
	}
	return resp
}

type LoanDetailResponse struct {
	LoanID             int64           `json:"loan_id"`
	Customer           CustomerSummary `json:"customer"`
	LoanAmount         string          `json:"loan_amount"`
	InterestRate       float64         `json:"interest_rate"`
	MonthlyInstallment string          `json:"monthly_installment"`
	Tenure             int             `json:"tenure"`
}

func NewLoanDetailResponse(detail *loan.LoanDetail) LoanDetailResponse {
	return LoanDetailResponse{
		LoanID:             detail.Loan.ID,
		Customer:           NewCustomerSummary(detail.Customer),
		LoanAmount:         formatMoney(detail.Loan.LoanAmount),
		InterestRate:       detail.Loan.InterestRate,
		MonthlyInstallment: formatMoney(detail.Loan.MonthlyInstallment),
		Tenure:             detail.Loan.TenureMonths,
	}
}

type ActiveLoanResponse struct {
	LoanID             int64   `json:"loan_id"`
	LoanAmount         string  `json:"loan_amount"`
	InterestRate       float64 `json:"interest_rate"`
	MonthlyInstallment string  `json:"monthly_installment"`
	RepaymentsLeft     int     `json:"repayments_left"`
}

func NewActiveLoanResponse(al loan.ActiveLoan) ActiveLoanResponse {
	return ActiveLoanResponse{
		LoanID:             al.Loan.ID,
		LoanAmount:         formatMoney(al.Loan.LoanAmount),
		InterestRate:       al.Loan.InterestRate,
		MonthlyInstallment: formatMoney(al.Loan.MonthlyInstallment),
		RepaymentsLeft:     al.RepaymentsLeft,
	}
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
