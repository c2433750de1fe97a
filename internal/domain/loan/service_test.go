package loan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"credit-engine/internal/config"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/logging"
	"credit-engine/internal/pkg/apperrors"
)

type mockLoanRepository struct {
	mock.Mock
}

func (m *mockLoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(pgx.Tx)
	return tx, args.Error(1)
}

func (m *mockLoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockLoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockLoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*Loan, error) {
	args := m.Called(ctx, loanID)
	l, _ := args.Get(0).(*Loan)
	return l, args.Error(1)
}

func (m *mockLoanRepository) ListLoansByCustomer(ctx context.Context, customerID int64) ([]Loan, error) {
	args := m.Called(ctx, customerID)
	loans, _ := args.Get(0).([]Loan)
	return loans, args.Error(1)
}

func (m *mockLoanRepository) FindCustomerForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, tx, customerID)
	cust, _ := args.Get(0).(*customer.Customer)
	return cust, args.Error(1)
}

func (m *mockLoanRepository) ListLoansByCustomerInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]Loan, error) {
	args := m.Called(ctx, tx, customerID)
	loans, _ := args.Get(0).([]Loan)
	return loans, args.Error(1)
}

func (m *mockLoanRepository) CreateLoanInTx(ctx context.Context, tx pgx.Tx, loan *Loan) (*Loan, error) {
	args := m.Called(ctx, tx, loan)
	created, _ := args.Get(0).(*Loan)
	return created, args.Error(1)
}

func (m *mockLoanRepository) IncrementCustomerDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64, amount Money) error {
	args := m.Called(ctx, tx, customerID, amount)
	return args.Error(0)
}

func (m *mockLoanRepository) UpsertLoan(ctx context.Context, loan *Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

type mockCustomerService struct {
	mock.Mock
}

func (m *mockCustomerService) RegisterCustomer(ctx context.Context, firstName, lastName string, age int, monthlyIncome float64, phoneNumber string) (*customer.Customer, error) {
	args := m.Called(ctx, firstName, lastName, age, monthlyIncome, phoneNumber)
	cust, _ := args.Get(0).(*customer.Customer)
	return cust, args.Error(1)
}

func (m *mockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	cust, _ := args.Get(0).(*customer.Customer)
	return cust, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishCustomerRegistered(ctx context.Context, evt event.CustomerRegisteredEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *mockPublisher) PublishLoanIssued(ctx context.Context, evt event.LoanIssuedEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func newTestLoanService(repo Repository, customers customer.CustomerService, pub event.Publisher) *loanService {
	svc := NewLoanService(repo, customers, pub, logging.NewLogger(config.LoggerConfig{Level: "error", Encoding: "text"})).(*loanService)
	svc.now = func() time.Time { return decisionAsOf }
	return svc
}

func TestCheckEligibilityService(t *testing.T) {
	repo := new(mockLoanRepository)
	customers := new(mockCustomerService)
	svc := newTestLoanService(repo, customers, nil)
	ctx := context.Background()

	cust := testCustomer(100_000)
	customers.On("GetCustomer", ctx, int64(1)).Return(cust, nil)
	repo.On("ListLoansByCustomer", ctx, int64(1)).Return([]Loan(nil), nil)

	dec, err := svc.CheckEligibility(ctx, Request{CustomerID: 1, LoanAmount: 200_000, InterestRate: 8, TenureMonths: 12})

	assert.NoError(t, err)
	assert.False(t, dec.Approved, "a below-tier rate is not approved, only corrected")
	assert.Equal(t, 12.0, dec.CorrectedRate)
	assert.ErrorIs(t, dec.Reason, apperrors.ErrRateBelowTier)
	repo.AssertExpectations(t)
	customers.AssertExpectations(t)
}

func TestCheckEligibilityServiceUnknownCustomer(t *testing.T) {
	repo := new(mockLoanRepository)
	customers := new(mockCustomerService)
	svc := newTestLoanService(repo, customers, nil)
	ctx := context.Background()

	customers.On("GetCustomer", ctx, int64(99)).Return(nil, apperrors.ErrNotFound)

	_, err := svc.CheckEligibility(ctx, Request{CustomerID: 99, LoanAmount: 200_000, InterestRate: 8, TenureMonths: 12})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertNotCalled(t, "ListLoansByCustomer", mock.Anything, mock.Anything)
}

func TestCheckEligibilityServiceValidation(t *testing.T) {
	repo := new(mockLoanRepository)
	customers := new(mockCustomerService)
	svc := newTestLoanService(repo, customers, nil)

	_, err := svc.CheckEligibility(context.Background(), Request{CustomerID: 1, LoanAmount: -5, InterestRate: 8, TenureMonths: 12})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	customers.AssertNotCalled(t, "GetCustomer", mock.Anything, mock.Anything)
}

func TestCreateLoanApproved(t *testing.T) {
	repo := new(mockLoanRepository)
	customers := new(mockCustomerService)
	pub := new(mockPublisher)
	svc := newTestLoanService(repo, customers, pub)
	ctx := context.Background()

	cust := testCustomer(100_000)
	req := Request{CustomerID: 1, LoanAmount: 200_000, InterestRate: 12, TenureMonths: 12}

	repo.On("BeginTx", ctx).Return(nil, nil)
	repo.On("FindCustomerForUpdate", ctx, nil, int64(1)).Return(cust, nil)
	repo.On("ListLoansByCustomerInTx", ctx, nil, int64(1)).Return([]Loan(nil), nil)
	repo.On("CreateLoanInTx", ctx, nil, mock.AnythingOfType("*loan.Loan")).
		Return(&Loan{ID: 7, CustomerID: 1, LoanAmount: 200_000, InterestRate: 12, TenureMonths: 12}, nil)
	repo.On("IncrementCustomerDebtInTx", ctx, nil, int64(1), 200_000.0).Return(nil)
	repo.On("CommitTx", ctx, nil).Return(nil)
	pub.On("PublishLoanIssued", ctx, mock.AnythingOfType("event.LoanIssuedEvent")).Return(nil)

	result, err := svc.CreateLoan(ctx, req)

	assert.NoError(t, err)
	assert.True(t, result.Decision.Approved)
	assert.NotNil(t, result.Loan)
	assert.Equal(t, int64(7), result.Loan.ID)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "RollbackTx", mock.Anything, mock.Anything)
	pub.AssertExpectations(t)
}

func TestCreateLoanRejectedPersistsNothing(t *testing.T) {
	repo := new(mockLoanRepository)
	customers := new(mockCustomerService)
	pub := new(mockPublisher)
	svc := newTestLoanService(repo, customers, pub)
	ctx := context.Background()

	cust := testCustomer(100_000)
	// Score 50 with a rate below the mid tier minimum rejects at issuance.
	req := Request{CustomerID: 1, LoanAmount: 200_000, InterestRate: 8, TenureMonths: 12}

	repo.On("BeginTx", ctx).Return(nil, nil)
	repo.On("FindCustomerForUpdate", ctx, nil, int64(1)).Return(cust, nil)
	repo.On("ListLoansByCustomerInTx", ctx, nil, int64(1)).Return([]Loan(nil), nil)
	repo.On("RollbackTx", ctx, nil).Return(nil)

	result, err := svc.CreateLoan(ctx, req)

	assert.NoError(t, err)
	assert.False(t, result.Decision.Approved)
	assert.ErrorIs(t, result.Decision.Reason, apperrors.ErrRateBelowTier)
	assert.Nil(t, result.Loan)
	repo.AssertNotCalled(t, "CreateLoanInTx", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "IncrementCustomerDebtInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "CommitTx", mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "PublishLoanIssued", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestCreateLoanUnknownCustomerRollsBack(t *testing.T) {
	repo := new(mockLoanRepository)
	customers := new(mockCustomerService)
	svc := newTestLoanService(repo, customers, nil)
	ctx := context.Background()

	repo.On("BeginTx", ctx).Return(nil, nil)
	repo.On("FindCustomerForUpdate", ctx, nil, int64(42)).Return(nil, apperrors.ErrNotFound)
	repo.On("RollbackTx", ctx, nil).Return(nil)

	_, err := svc.CreateLoan(ctx, Request{CustomerID: 42, LoanAmount: 200_000, InterestRate: 12, TenureMonths: 12})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestCreateLoanPublishFailureIsNotFatal(t *testing.T) {
	repo := new(mockLoanRepository)
	customers := new(mockCustomerService)
	pub := new(mockPublisher)
	svc := newTestLoanService(repo, customers, pub)
	ctx := context.Background()

	cust := testCustomer(100_000)

	repo.On("BeginTx", ctx).Return(nil, nil)
	repo.On("FindCustomerForUpdate", ctx, nil, int64(1)).Return(cust, nil)
	repo.On("ListLoansByCustomerInTx", ctx, nil, int64(1)).Return([]Loan(nil), nil)
	repo.On("CreateLoanInTx", ctx, nil, mock.AnythingOfType("*loan.Loan")).
		Return(&Loan{ID: 8, CustomerID: 1}, nil)
	repo.On("IncrementCustomerDebtInTx", ctx, nil, int64(1), 200_000.0).Return(nil)
	repo.On("CommitTx", ctx, nil).Return(nil)
	pub.On("PublishLoanIssued", ctx, mock.AnythingOfType("event.LoanIssuedEvent")).Return(errors.New("broker down"))

	result, err := svc.CreateLoan(ctx, Request{CustomerID: 1, LoanAmount: 200_000, InterestRate: 12, TenureMonths: 12})

	assert.NoError(t, err)
	assert.NotNil(t, result.Loan)
}

func TestGetLoan(t *testing.T) {
	repo := new(mockLoanRepository)
	customers := new(mockCustomerService)
	svc := newTestLoanService(repo, customers, nil)
	ctx := context.Background()

	cust := testCustomer(100_000)
	stored := &Loan{ID: 7, CustomerID: 1, LoanAmount: 200_000, InterestRate: 12, TenureMonths: 12}
	repo.On("GetLoanByID", ctx, int64(7)).Return(stored, nil)
	customers.On("GetCustomer", ctx, int64(1)).Return(cust, nil)

	detail, err := svc.GetLoan(ctx, 7)

	assert.NoError(t, err)
	assert.Equal(t, stored, detail.Loan)
	assert.Equal(t, cust, detail.Customer)
}

func TestGetLoanNotFound(t *testing.T) {
	repo := new(mockLoanRepository)
	customers := new(mockCustomerService)
	svc := newTestLoanService(repo, customers, nil)
	ctx := context.Background()

	repo.On("GetLoanByID", ctx, int64(404)).Return(nil, ErrNotFound)

	_, err := svc.GetLoan(ctx, 404)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListActiveLoansFiltersExpired(t *testing.T) {
	repo := new(mockLoanRepository)
	customers := new(mockCustomerService)
	svc := newTestLoanService(repo, customers, nil)
	ctx := context.Background()

	cust := testCustomer(100_000)
	running := historyLoan(100_000, 12, 3, decisionAsOf.AddDate(0, -3, 0))
	expired := historyLoan(50_000, 6, 6, decisionAsOf.AddDate(-2, 0, 0))
	customers.On("GetCustomer", ctx, int64(1)).Return(cust, nil)
	repo.On("ListLoansByCustomer", ctx, int64(1)).Return([]Loan{running, expired}, nil)

	active, err := svc.ListActiveLoans(ctx, 1)

	assert.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, running.LoanAmount, active[0].Loan.LoanAmount)
	assert.Equal(t, 9, active[0].RepaymentsLeft)
}
