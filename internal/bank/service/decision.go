package service

import (
	"math"

	"github.com/banca-aurora/aurora/internal/bank/domain"
)

// Underwriting bounds. Applications outside these ranges are declined
// outright with a zero score.
const (
	minLoanAmount = 500
	maxLoanAmount = 50000
	minLoanMonths = 6
	maxLoanMonths = 84
)

// DecisionService evaluates a loan application against the customer's
// declared monthly income. Pure computation, no I/O.
type DecisionService struct{}

// Decide scores the application and computes an APR and annuity payment.
// The applicant is declined when the amount or term is out of bounds, or
// when the computed monthly payment exceeds half the declared income.
func (s *DecisionService) Decide(c domain.Customer, app domain.LoanApplication) domain.Decision {
	if app.Amount < minLoanAmount || app.Amount > maxLoanAmount ||
		app.Months < minLoanMonths || app.Months > maxLoanMonths {
		zero := 0
		return domain.Decision{Status: domain.StatusDeclined, Score: &zero}
	}

	ratio := c.IncomeMonthly / app.Amount
	score := int(clamp(400+ratio*400, 400, 850))

	apr := round2(12 - math.Min(ratio*5, 8))
	apr = clamp(apr, 3.5, 14)

	// Standard annuity formula at a monthly rate derived from the APR.
	r := apr / 100 / 12
	n := float64(app.Months)
	payment := round2(app.Amount * (r * math.Pow(1+r, n)) / (math.Pow(1+r, n) - 1))

	status := domain.StatusApproved
	if c.IncomeMonthly < payment*2 {
		status = domain.StatusDeclined
	}

	return domain.Decision{
		Status:         status,
		Score:          &score,
		APR:            &apr,
		MonthlyPayment: &payment,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
