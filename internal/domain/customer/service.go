package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
)

const (
	inputValidationPassed = "Input validation passed"
	customerNotFound      = "Customer not found by repository"
)

type CustomerService interface {
	RegisterCustomer(ctx context.Context, firstName, lastName string, age int, monthlyIncome float64, phoneNumber string) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.Publisher
	logger *slog.Logger
}

func NewCustomerService(repo CustomerRepository, publisher event.Publisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if publisher == nil {
		publisher = event.NoopPublisher{}
		logger.Warn("Warning: No event publisher provided to NewCustomerService, using no-op publisher")
	}

	return &customerService{
		repo:   repo,
		pub:    publisher,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func newCustomerEventPayload(cust *Customer) event.CustomerEventPayload {
	if cust == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		CustomerID:    cust.CustomerID,
		FirstName:     cust.FirstName,
		LastName:      cust.LastName,
		Age:           cust.Age,
		PhoneNumber:   cust.PhoneNumber,
		MonthlySalary: cust.MonthlySalary,
		ApprovedLimit: cust.ApprovedLimit,
	}
}

func (s *customerService) RegisterCustomer(ctx context.Context, firstName, lastName string, age int, monthlyIncome float64, phoneNumber string) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to register new customer")

	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	phoneNumber = strings.TrimSpace(phoneNumber)
	if firstName == "" || lastName == "" {
		s.logger.WarnContext(ctx, "Validation failed: name is empty")
		return nil, errors.New("customer first and last name cannot be empty")
	}
	if age < MinimumAge {
		s.logger.WarnContext(ctx, "Validation failed: customer is underage", slog.Int("age", age))
		return nil, fmt.Errorf("customer must be at least %d years old", MinimumAge)
	}
	if monthlyIncome <= 0 {
		s.logger.WarnContext(ctx, "Validation failed: monthly income is not positive")
		return nil, errors.New("monthly income must be positive")
	}
	if phoneNumber == "" {
		s.logger.WarnContext(ctx, "Validation failed: phone number is empty")
		return nil, errors.New("phone number cannot be empty")
	}
	s.logger.InfoContext(ctx, inputValidationPassed)

	cust := NewCustomer(firstName, lastName, age, monthlyIncome, phoneNumber)
	s.logger.InfoContext(ctx, "Customer domain object created",
		slog.Float64("approved_limit", cust.ApprovedLimit))

	if err := s.repo.Save(ctx, cust); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}
	monitoring.RecordCustomerRegistered()

	registered := event.CustomerRegisteredEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now(),
		Payload:   newCustomerEventPayload(cust),
	}
	if pubErr := s.pub.PublishCustomerRegistered(ctx, registered); pubErr != nil {
		s.logger.ErrorContext(ctx, "Customer registered, but FAILED to publish registration event", slog.Any("error", pubErr))
	}

	s.logger.InfoContext(ctx, "Successfully registered new customer", slog.Int64("customerID", cust.CustomerID))
	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to get customer by ID")

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		}

		s.logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved customer")
	return cust, nil
}
