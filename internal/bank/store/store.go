package store

import (
	"context"
	"errors"

	"github.com/banca-aurora/aurora/internal/bank/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. It exposes sub-repositories to keep concerns tidy
// and testable.
type Store interface {
	Customers() Customers
	Applications() Applications

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Customers interface {
	// GetCustomerByID returns a customer by id.
	GetCustomerByID(ctx context.Context, id string) (domain.Customer, error)

	// GetCustomerBySubject looks up the profile linked to an identity
	// provider user id.
	GetCustomerBySubject(ctx context.Context, subjectID string) (domain.Customer, error)

	// CreateCustomer inserts a new customer (id is provided by the app via
	// ULID). Returns ErrAlreadyExists when the fiscal code or subject id
	// is already taken.
	CreateCustomer(ctx context.Context, c domain.Customer) error

	// UpdateIncome sets income_monthly and bumps updated_at.
	UpdateIncome(ctx context.Context, customerID string, incomeMonthly float64) error
}

// ApplicationFilter narrows and orders ListApplications results.
type ApplicationFilter struct {
	Status     *domain.ApplicationStatus
	CustomerID string

	// Page is 1-based. PageSize is capped by the service layer.
	Page     int
	PageSize int

	// Sort is one of createdAsc, createdDesc, amountAsc, amountDesc.
	// Anything else falls back to createdDesc.
	Sort string
}

type Applications interface {
	// CreateApplication inserts a new loan application.
	CreateApplication(ctx context.Context, a domain.LoanApplication) error

	// GetApplicationByID returns an application by id.
	GetApplicationByID(ctx context.Context, id string) (domain.LoanApplication, error)

	// UpdateDecision records a decision outcome on an application and
	// bumps updated_at.
	UpdateDecision(ctx context.Context, applicationID string, d domain.Decision) error

	// ListApplications returns a page of applications matching the filter
	// plus the total count before pagination.
	ListApplications(ctx context.Context, f ApplicationFilter) ([]domain.LoanApplication, int, error)
}
