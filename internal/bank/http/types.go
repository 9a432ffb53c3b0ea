package http

import "github.com/banca-aurora/aurora/internal/bank/domain"

// Request DTOs

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type CreateCustomerRequest struct {
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	FiscalCode    string  `json:"fiscalCode"`
	IncomeMonthly float64 `json:"incomeMonthly"`
}

type UpdateIncomeRequest struct {
	IncomeMonthly float64 `json:"incomeMonthly"`
}

type CreateApplicationRequest struct {
	CustomerID string  `json:"customerId"`
	Amount     float64 `json:"amount"`
	Months     int     `json:"months"`
	Purpose    string  `json:"purpose,omitempty"`
}

// Response DTOs

type RegisterResponse struct {
	UserID string `json:"userId"`
}

type CustomerResponse struct {
	CustomerID    string  `json:"customerId"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	FiscalCode    string  `json:"fiscalCode"`
	IncomeMonthly float64 `json:"incomeMonthly"`
}

func newCustomerResponse(c domain.Customer) CustomerResponse {
	return CustomerResponse{
		CustomerID:    c.ID,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		FiscalCode:    c.FiscalCode,
		IncomeMonthly: c.IncomeMonthly,
	}
}

type IncomeResponse struct {
	CustomerID    string  `json:"customerId"`
	IncomeMonthly float64 `json:"incomeMonthly"`
}

type ApplicationResponse struct {
	ApplicationID  string   `json:"applicationId"`
	CustomerID     string   `json:"customerId"`
	Amount         float64  `json:"amount"`
	Months         int      `json:"months"`
	Purpose        string   `json:"purpose,omitempty"`
	Status         string   `json:"status"`
	Score          *int     `json:"score"`
	APR            *float64 `json:"apr"`
	MonthlyPayment *float64 `json:"monthlyPayment"`
}

func newApplicationResponse(a domain.LoanApplication) ApplicationResponse {
	return ApplicationResponse{
		ApplicationID:  a.ID,
		CustomerID:     a.CustomerID,
		Amount:         a.Amount,
		Months:         a.Months,
		Purpose:        a.Purpose,
		Status:         string(a.Status),
		Score:          a.Score,
		APR:            a.APR,
		MonthlyPayment: a.MonthlyPayment,
	}
}

type ApplicationCreatedResponse struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
}

type DecisionResponse struct {
	Status         string   `json:"status"`
	APR            *float64 `json:"apr"`
	MonthlyPayment *float64 `json:"monthlyPayment"`
	Score          *int     `json:"score"`
}

type ApplicationListResponse struct {
	Page     int                   `json:"page"`
	PageSize int                   `json:"pageSize"`
	Total    int                   `json:"total"`
	Items    []ApplicationResponse `json:"items"`
}

// ErrorResponse is the generic error body for CRUD endpoints.
type ErrorResponse struct {
	Message string `json:"message"`
}

// DelegationErrorResponse is the step-labeled error body for
// registration failures. Response carries the provider's own body
// verbatim when one was obtained.
type DelegationErrorResponse struct {
	Step     string `json:"step"`
	Message  string `json:"message,omitempty"`
	Response string `json:"response,omitempty"`
	UserID   string `json:"userId,omitempty"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Verifier string `json:"verifier"`
}
