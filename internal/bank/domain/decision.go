package domain

// Decision is the outcome of evaluating a loan application against the
// customer's declared income.
type Decision struct {
	Status         ApplicationStatus
	Score          *int
	APR            *float64
	MonthlyPayment *float64
}
