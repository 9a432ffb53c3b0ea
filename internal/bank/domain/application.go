package domain

import (
	"fmt"
	"strings"
	"time"
)

// ApplicationStatus is the lifecycle state of a loan application.
type ApplicationStatus string

const (
	StatusDraft     ApplicationStatus = "DRAFT"
	StatusSubmitted ApplicationStatus = "SUBMITTED"
	StatusApproved  ApplicationStatus = "APPROVED"
	StatusDeclined  ApplicationStatus = "DECLINED"
	StatusOffered   ApplicationStatus = "OFFERED"
	StatusAccepted  ApplicationStatus = "ACCEPTED"
)

// ParseApplicationStatus parses a status string case-insensitively.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	switch ApplicationStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusSubmitted:
		return StatusSubmitted, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusDeclined:
		return StatusDeclined, nil
	case StatusOffered:
		return StatusOffered, nil
	case StatusAccepted:
		return StatusAccepted, nil
	default:
		return "", fmt.Errorf("unknown application status %q", s)
	}
}

// LoanApplication is a customer's request for a loan. Score, APR and
// MonthlyPayment are nil until a decision has been run.
type LoanApplication struct {
	ID             string
	CustomerID     string
	Amount         float64
	Months         int
	Purpose        string
	Status         ApplicationStatus
	Score          *int
	APR            *float64
	MonthlyPayment *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
