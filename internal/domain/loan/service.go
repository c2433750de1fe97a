package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"
)

// LoanDetail pairs a loan with the customer it belongs to, for single-loan
// lookups.
type LoanDetail struct {
	Loan     *Loan
	Customer *customer.Customer
}

// ActiveLoan is a running loan annotated with the number of repayments
// remaining as of the lookup.
type ActiveLoan struct {
	Loan           Loan
	RepaymentsLeft int
}

// IssuanceResult is the outcome of a loan creation attempt. Loan is nil when
// the request was rejected.
type IssuanceResult struct {
	Loan     *Loan
	Decision Decision
}

type LoanService interface {
	CheckEligibility(ctx context.Context, req Request) (*Decision, error)
	CreateLoan(ctx context.Context, req Request) (*IssuanceResult, error)
	GetLoan(ctx context.Context, loanID int64) (*LoanDetail, error)
	ListActiveLoans(ctx context.Context, customerID int64) ([]ActiveLoan, error)
}

type loanService struct {
	repo            Repository
	customerService customer.CustomerService
	pub             event.Publisher
	logger          *slog.Logger
	now             func() time.Time
}

func NewLoanService(repo Repository, customerService customer.CustomerService, pub event.Publisher, logger *slog.Logger) LoanService {
	if repo == nil {
		panic("loan repository cannot be nil")
	}
	if customerService == nil {
		panic("customer service cannot be nil")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	return &loanService{
		repo:            repo,
		customerService: customerService,
		pub:             pub,
		logger:          logger.With("component", "LoanService"),
		now:             time.Now,
	}
}

func (s *loanService) CheckEligibility(ctx context.Context, req Request) (*Decision, error) {
	logger := s.logger.With(slog.Int64("customerID", req.CustomerID), slog.String("operation", "CheckEligibility"))

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	cust, err := s.customerService.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListLoansByCustomer(ctx, req.CustomerID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load loan history", slog.Any("error", err))
		return nil, fmt.Errorf("loading loan history for customer %d: %w", req.CustomerID, err)
	}

	dec := CheckEligibility(cust, history, req, s.now())
	monitoring.RecordDecision(decisionOutcome(dec))

	logger.InfoContext(ctx, "Eligibility evaluated",
		slog.Int("creditScore", dec.Score),
		slog.Bool("approved", dec.Approved),
		slog.Float64("correctedRate", dec.CorrectedRate))
	return &dec, nil
}

// CreateLoan evaluates and, on approval, persists a new loan. The customer
// row is locked, the history re-read and both writes applied inside a single
// transaction so two concurrent requests cannot both borrow against the same
// headroom.
func (s *loanService) CreateLoan(ctx context.Context, req Request) (*IssuanceResult, error) {
	logger := s.logger.With(slog.Int64("customerID", req.CustomerID), slog.String("operation", "CreateLoan"))

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("starting loan creation transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := s.repo.RollbackTx(ctx, tx); rbErr != nil {
				logger.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
			}
		}
	}()

	cust, err := s.repo.FindCustomerForUpdate(ctx, tx, req.CustomerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, req.CustomerID)
		}
		logger.ErrorContext(ctx, "Failed to lock customer row", slog.Any("error", err))
		return nil, fmt.Errorf("locking customer %d: %w", req.CustomerID, err)
	}

	history, err := s.repo.ListLoansByCustomerInTx(ctx, tx, req.CustomerID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load loan history", slog.Any("error", err))
		return nil, fmt.Errorf("loading loan history for customer %d: %w", req.CustomerID, err)
	}

	asOf := s.now()
	dec := EvaluateIssuance(cust, history, req, asOf)
	monitoring.RecordDecision(decisionOutcome(dec))

	if !dec.Approved {
		logger.InfoContext(ctx, "Loan request rejected",
			slog.Int("creditScore", dec.Score),
			slog.Any("reason", dec.Reason),
			slog.String("message", dec.Message))
		return &IssuanceResult{Decision: dec}, nil
	}

	newLoan, err := NewLoan(req.CustomerID, req.LoanAmount, req.TenureMonths, req.InterestRate, asOf)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateLoanInTx(ctx, tx, newLoan)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to insert loan", slog.Any("error", err))
		return nil, fmt.Errorf("inserting loan for customer %d: %w", req.CustomerID, err)
	}

	if err := s.repo.IncrementCustomerDebtInTx(ctx, tx, req.CustomerID, req.LoanAmount); err != nil {
		logger.ErrorContext(ctx, "Failed to update customer debt", slog.Any("error", err))
		return nil, fmt.Errorf("updating debt for customer %d: %w", req.CustomerID, err)
	}

	if err := s.repo.CommitTx(ctx, tx); err != nil {
		logger.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("committing loan creation: %w", err)
	}
	committed = true

	monitoring.RecordLoanIssued()
	logger.InfoContext(ctx, "Loan issued",
		slog.Int64("loanID", created.ID),
		slog.Float64("amount", created.LoanAmount),
		slog.Float64("installment", created.MonthlyInstallment))

	s.publishLoanIssued(ctx, created)

	return &IssuanceResult{Loan: created, Decision: dec}, nil
}

func (s *loanService) GetLoan(ctx context.Context, loanID int64) (*LoanDetail, error) {
	if loanID <= 0 {
		return nil, apperrors.NewValidationError("loanID", "must be a positive integer")
	}

	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan %d", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", slog.Int64("loanID", loanID), slog.Any("error", err))
		return nil, fmt.Errorf("getting loan %d: %w", loanID, err)
	}

	cust, err := s.customerService.GetCustomer(ctx, l.CustomerID)
	if err != nil {
		return nil, err
	}

	return &LoanDetail{Loan: l, Customer: cust}, nil
}

func (s *loanService) ListActiveLoans(ctx context.Context, customerID int64) ([]ActiveLoan, error) {
	if customerID <= 0 {
		return nil, apperrors.NewValidationError("customerID", "must be a positive integer")
	}

	// Surface a not-found for unknown customers instead of an empty list.
	if _, err := s.customerService.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	loans, err := s.repo.ListLoansByCustomer(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("listing loans for customer %d: %w", customerID, err)
	}

	asOf := s.now()
	active := make([]ActiveLoan, 0, len(loans))
	for i := range loans {
		if loans[i].Active(asOf) {
			active = append(active, ActiveLoan{Loan: loans[i], RepaymentsLeft: loans[i].RepaymentsLeft(asOf)})
		}
	}
	return active, nil
}

func (s *loanService) publishLoanIssued(ctx context.Context, l *Loan) {
	evt := event.LoanIssuedEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Payload: event.LoanEventPayload{
			LoanID:             l.ID,
			CustomerID:         l.CustomerID,
			LoanAmount:         l.LoanAmount,
			InterestRate:       l.InterestRate,
			TenureMonths:       l.TenureMonths,
			MonthlyInstallment: l.MonthlyInstallment,
			StartDate:          l.StartDate,
			EndDate:            l.EndDate,
		},
	}
	if err := s.pub.PublishLoanIssued(ctx, evt); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish loan issued event",
			slog.Int64("loanID", l.ID), slog.Any("error", err))
	}
}

func validateRequest(req Request) error {
	if req.CustomerID <= 0 {
		return apperrors.NewValidationError("customer_id", "must be a positive integer")
	}
	if req.LoanAmount <= 0 {
		return apperrors.NewValidationError("loan_amount", "must be positive")
	}
	if req.InterestRate < 0 {
		return apperrors.NewValidationError("interest_rate", "cannot be negative")
	}
	if req.TenureMonths <= 0 {
		return apperrors.NewValidationError("tenure", "must be positive")
	}
	return nil
}

func decisionOutcome(dec Decision) string {
	if dec.Approved {
		return "approved"
	}
	return "rejected"
}
