package domain

import "time"

// Customer is a bank customer profile linked to an identity provider
// account via SubjectID.
type Customer struct {
	ID            string
	FirstName     string
	LastName      string
	FiscalCode    string
	IncomeMonthly float64
	SubjectID     string // user id at the identity provider
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
