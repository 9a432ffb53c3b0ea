package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/banca-aurora/aurora/internal/bank/domain"
	"github.com/banca-aurora/aurora/internal/bank/store"
)

type applicationsRepo struct {
	db dbtx
}

const applicationColumns = `id, customer_id, amount, months, purpose, status, score, apr, monthly_payment, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (domain.LoanApplication, error) {
	var (
		a       domain.LoanApplication
		purpose sql.NullString
		score   sql.NullInt64
		apr     sql.NullFloat64
		payment sql.NullFloat64
	)
	err := row.Scan(
		&a.ID,
		&a.CustomerID,
		&a.Amount,
		&a.Months,
		&purpose,
		&a.Status,
		&score,
		&apr,
		&payment,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.LoanApplication{}, mapNotFound(err)
	}

	a.Purpose = mapNullString(purpose)
	a.Score = mapNullIntPtr(score)
	a.APR = mapNullFloatPtr(apr)
	a.MonthlyPayment = mapNullFloatPtr(payment)
	return a, nil
}

func (r *applicationsRepo) CreateApplication(ctx context.Context, a domain.LoanApplication) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO loan_applications (`+applicationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CustomerID, a.Amount, a.Months, mapStringNull(a.Purpose),
		string(a.Status), mapOptionalInt(a.Score), mapOptionalFloat(a.APR),
		mapOptionalFloat(a.MonthlyPayment), a.CreatedAt, a.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *applicationsRepo) GetApplicationByID(ctx context.Context, id string) (domain.LoanApplication, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM loan_applications WHERE id = ?`, id)
	return scanApplication(row)
}

func (r *applicationsRepo) UpdateDecision(ctx context.Context, applicationID string, d domain.Decision) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE loan_applications
		 SET status = ?, score = ?, apr = ?, monthly_payment = ?, updated_at = ?
		 WHERE id = ?`,
		string(d.Status), mapOptionalInt(d.Score), mapOptionalFloat(d.APR),
		mapOptionalFloat(d.MonthlyPayment), time.Now().UTC(), applicationID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// sortClauses whitelists the ORDER BY expressions reachable from the
// filter's Sort key. The id is a ULID so it sorts by creation time and
// serves as the tie breaker.
var sortClauses = map[string]string{
	"createdAsc":  `created_at ASC, id ASC`,
	"createdDesc": `created_at DESC, id DESC`,
	"amountAsc":   `amount ASC, id ASC`,
	"amountDesc":  `amount DESC, id ASC`,
}

func (r *applicationsRepo) ListApplications(ctx context.Context, f store.ApplicationFilter) ([]domain.LoanApplication, int, error) {
	where := ` WHERE 1=1`
	args := []any{}

	if f.Status != nil {
		where += ` AND status = ?`
		args = append(args, string(*f.Status))
	}
	if f.CustomerID != "" {
		where += ` AND customer_id = ?`
		args = append(args, f.CustomerID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loan_applications`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := sortClauses[f.Sort]
	if !ok {
		orderBy = sortClauses["createdDesc"]
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	listArgs := append(args, pageSize, (page-1)*pageSize)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM loan_applications`+where+
			` ORDER BY `+orderBy+` LIMIT ? OFFSET ?`,
		listArgs...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []domain.LoanApplication{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}
