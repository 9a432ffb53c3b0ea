package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/banca-aurora/aurora/internal/bank/domain"
	"github.com/banca-aurora/aurora/internal/bank/store"
)

type customersRepo struct {
	db dbtx
}

const customerColumns = `id, first_name, last_name, fiscal_code, income_monthly, subject_id, created_at, updated_at`

func scanCustomer(row *sql.Row) (domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.FiscalCode,
		&c.IncomeMonthly,
		&c.SubjectID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return domain.Customer{}, mapNotFound(err)
	}
	return c, nil
}

func (r *customersRepo) GetCustomerByID(ctx context.Context, id string) (domain.Customer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	return scanCustomer(row)
}

func (r *customersRepo) GetCustomerBySubject(ctx context.Context, subjectID string) (domain.Customer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE subject_id = ?`, subjectID)
	return scanCustomer(row)
}

func (r *customersRepo) CreateCustomer(ctx context.Context, c domain.Customer) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (`+customerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.FirstName, c.LastName, c.FiscalCode, c.IncomeMonthly,
		c.SubjectID, c.CreatedAt, c.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *customersRepo) UpdateIncome(ctx context.Context, customerID string, incomeMonthly float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE customers SET income_monthly = ?, updated_at = ? WHERE id = ?`,
		incomeMonthly, time.Now().UTC(), customerID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}
