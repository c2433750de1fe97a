package batch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"credit-engine/internal/batch"
	"credit-engine/internal/config"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerRepository) Upsert(ctx context.Context, c *customer.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(pgx.Tx)
	return tx, args.Error(1)
}

func (m *MockLoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockLoanRepository) ListLoansByCustomer(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	args := m.Called(ctx, customerID)
	loans, _ := args.Get(0).([]loan.Loan)
	return loans, args.Error(1)
}

func (m *MockLoanRepository) FindCustomerForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, tx, customerID)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *MockLoanRepository) ListLoansByCustomerInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]loan.Loan, error) {
	args := m.Called(ctx, tx, customerID)
	loans, _ := args.Get(0).([]loan.Loan)
	return loans, args.Error(1)
}

func (m *MockLoanRepository) CreateLoanInTx(ctx context.Context, tx pgx.Tx, l *loan.Loan) (*loan.Loan, error) {
	args := m.Called(ctx, tx, l)
	created, _ := args.Get(0).(*loan.Loan)
	return created, args.Error(1)
}

func (m *MockLoanRepository) IncrementCustomerDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64, amount loan.Money) error {
	args := m.Called(ctx, tx, customerID, amount)
	return args.Error(0)
}

func (m *MockLoanRepository) UpsertLoan(ctx context.Context, l *loan.Loan) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

const customerCSV = `customer_id,first_name,last_name,age,phone_number,monthly_salary,approved_limit
1,Asha,Verma,32,9876543210,50000,1800000
2,Rohan,Mehta,45,9123456780,120000,4300000
`

const loanCSV = `customer_id,loan_id,loan_amount,tenure,interest_rate,monthly_payment,emis_paid_on_time,date_of_approval,end_date
1,100,500000,24,11.5,23412,20,2024-01-15,2026-01-15
2,101,900000,36,14,30762,36,2021-02-01,2024-02-01
`

func writeTestFiles(t *testing.T, customers, loans string) config.ImporterConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.ImporterConfig{
		CustomerFile: filepath.Join(dir, "customer_data.csv"),
		LoanFile:     filepath.Join(dir, "loan_data.csv"),
	}
	assert.NoError(t, os.WriteFile(cfg.CustomerFile, []byte(customers), 0o600))
	assert.NoError(t, os.WriteFile(cfg.LoanFile, []byte(loans), 0o600))
	return cfg
}

func newTestImportJob(t *testing.T, cfg config.ImporterConfig) (*MockCustomerRepository, *MockLoanRepository, *batch.ImportJob) {
	t.Helper()
	customerRepo := new(MockCustomerRepository)
	loanRepo := new(MockLoanRepository)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return customerRepo, loanRepo, batch.NewImportJob(customerRepo, loanRepo, cfg, logger)
}

func TestImportJobRun(t *testing.T) {
	ctx := context.Background()

	t.Run("loads customers and loans", func(t *testing.T) {
		cfg := writeTestFiles(t, customerCSV, loanCSV)
		customerRepo, loanRepo, job := newTestImportJob(t, cfg)

		customerRepo.On("Upsert", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.CustomerID == 1 && c.FirstName == "Asha" && c.MonthlySalary == 50000 && c.CurrentDebt == 0
		})).Return(nil).Once()
		customerRepo.On("Upsert", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.CustomerID == 2 && c.ApprovedLimit == 4300000
		})).Return(nil).Once()

		customerRepo.On("FindByID", ctx, int64(1)).Return(&customer.Customer{CustomerID: 1}, nil)
		customerRepo.On("FindByID", ctx, int64(2)).Return(&customer.Customer{CustomerID: 2}, nil)

		loanRepo.On("UpsertLoan", ctx, mock.MatchedBy(func(l *loan.Loan) bool {
			return l.ID == 100 && l.CustomerID == 1 && l.TenureMonths == 24 && l.EMIsPaidOnTime == 20 &&
				l.StartDate.Year() == 2024 && l.EndDate.Year() == 2026
		})).Return(nil).Once()
		loanRepo.On("UpsertLoan", ctx, mock.MatchedBy(func(l *loan.Loan) bool {
			return l.ID == 101 && l.CustomerID == 2
		})).Return(nil).Once()

		err := job.Run(ctx)
		assert.NoError(t, err)

		customerRepo.AssertExpectations(t)
		loanRepo.AssertExpectations(t)
	})

	t.Run("skips loans for unknown customers", func(t *testing.T) {
		cfg := writeTestFiles(t, customerCSV, loanCSV)
		customerRepo, loanRepo, job := newTestImportJob(t, cfg)

		customerRepo.On("Upsert", ctx, mock.Anything).Return(nil)
		customerRepo.On("FindByID", ctx, int64(1)).Return(nil, customer.ErrNotFound)
		customerRepo.On("FindByID", ctx, int64(2)).Return(&customer.Customer{CustomerID: 2}, nil)

		loanRepo.On("UpsertLoan", ctx, mock.MatchedBy(func(l *loan.Loan) bool {
			return l.ID == 101
		})).Return(nil).Once()

		err := job.Run(ctx)
		assert.NoError(t, err)

		loanRepo.AssertNumberOfCalls(t, "UpsertLoan", 1)
	})

	t.Run("tolerates malformed rows", func(t *testing.T) {
		badCustomers := `customer_id,first_name,last_name,age,phone_number,monthly_salary,approved_limit
not-a-number,Asha,Verma,32,9876543210,50000,1800000
2,Rohan,Mehta,45,9123456780,120000,4300000
`
		badLoans := `customer_id,loan_id,loan_amount,tenure,interest_rate,monthly_payment,emis_paid_on_time,date_of_approval,end_date
2,101,900000,36,14,30762,36,garbage-date,2024-02-01
`
		cfg := writeTestFiles(t, badCustomers, badLoans)
		customerRepo, loanRepo, job := newTestImportJob(t, cfg)

		customerRepo.On("Upsert", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.CustomerID == 2
		})).Return(nil).Once()

		err := job.Run(ctx)
		assert.NoError(t, err)

		customerRepo.AssertNumberOfCalls(t, "Upsert", 1)
		loanRepo.AssertNumberOfCalls(t, "UpsertLoan", 0)
	})

	t.Run("tolerates a failed upsert and continues", func(t *testing.T) {
		cfg := writeTestFiles(t, customerCSV, loanCSV)
		customerRepo, loanRepo, job := newTestImportJob(t, cfg)

		customerRepo.On("Upsert", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.CustomerID == 1
		})).Return(errors.New("connection reset")).Once()
		customerRepo.On("Upsert", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.CustomerID == 2
		})).Return(nil).Once()

		customerRepo.On("FindByID", ctx, mock.Anything).Return(&customer.Customer{}, nil)
		loanRepo.On("UpsertLoan", ctx, mock.Anything).Return(nil)

		err := job.Run(ctx)
		assert.NoError(t, err)

		customerRepo.AssertExpectations(t)
	})

	t.Run("fails when customer file is missing", func(t *testing.T) {
		cfg := config.ImporterConfig{
			CustomerFile: filepath.Join(t.TempDir(), "nope.csv"),
			LoanFile:     filepath.Join(t.TempDir(), "nope.csv"),
		}
		_, _, job := newTestImportJob(t, cfg)

		err := job.Run(ctx)
		assert.Error(t, err)
	})
}
