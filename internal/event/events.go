package event

import (
	"context"
	"time"
)

type CustomerEventPayload struct {
	CustomerID    int64   `json:"customerId"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Age           int     `json:"age"`
	PhoneNumber   string  `json:"phoneNumber"`
	MonthlySalary float64 `json:"monthlySalary"`
	ApprovedLimit float64 `json:"approvedLimit"`
}

type LoanEventPayload struct {
	LoanID             int64     `json:"loanId"`
	CustomerID         int64     `json:"customerId"`
	LoanAmount         float64   `json:"loanAmount"`
	InterestRate       float64   `json:"interestRate"`
	TenureMonths       int       `json:"tenureMonths"`
	MonthlyInstallment float64   `json:"monthlyInstallment"`
	StartDate          time.Time `json:"startDate"`
	EndDate            time.Time `json:"endDate"`
}

type CustomerRegisteredEvent struct {
	EventID   string               `json:"eventId"`
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

type LoanIssuedEvent struct {
	EventID   string           `json:"eventId"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   LoanEventPayload `json:"payload"`
}

type Publisher interface {
	PublishCustomerRegistered(ctx context.Context, event CustomerRegisteredEvent) error
	PublishLoanIssued(ctx context.Context, event LoanIssuedEvent) error
}

// NoopPublisher is used when the broker is disabled in configuration.
type NoopPublisher struct{}

func (NoopPublisher) PublishCustomerRegistered(context.Context, CustomerRegisteredEvent) error {
	return nil
}

func (NoopPublisher) PublishLoanIssued(context.Context, LoanIssuedEvent) error {
	return nil
}
