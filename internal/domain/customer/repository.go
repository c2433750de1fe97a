package customer

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("customer not found")

type CustomerRepository interface {
	Save(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	// Upsert writes a customer row keyed by an externally supplied ID.
	// Used by the bulk importer; Save is the registration path.
	Upsert(ctx context.Context, customer *Customer) error
}
