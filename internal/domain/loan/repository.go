package loan

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"credit-engine/internal/domain/customer"
)

var ErrNotFound = errors.New("loan not found in repository")

// Repository defines persistence for loans. Issuance runs inside a single
// transaction, so the customer lock, the history read and the writes all
// have InTx variants taking an explicit pgx.Tx.
type Repository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error

	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)
	ListLoansByCustomer(ctx context.Context, customerID int64) ([]Loan, error)

	// FindCustomerForUpdate locks the customer row for the duration of the
	// transaction, serializing concurrent issuance for the same customer.
	FindCustomerForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*customer.Customer, error)
	ListLoansByCustomerInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]Loan, error)
	CreateLoanInTx(ctx context.Context, tx pgx.Tx, loan *Loan) (*Loan, error)
	IncrementCustomerDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64, amount Money) error

	// UpsertLoan inserts or refreshes a loan carrying an external ID, used
	// by the bulk data import.
	UpsertLoan(ctx context.Context, loan *Loan) error
}
