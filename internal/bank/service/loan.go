package service

import (
	"context"
	"errors"

	"github.com/banca-aurora/aurora/internal/bank/domain"
	"github.com/banca-aurora/aurora/internal/bank/store"
	"github.com/banca-aurora/aurora/pkg/idx"
)

// ErrValidation marks input that failed a range or format check.
var ErrValidation = errors.New("service: validation failed")

type LoanService struct {
	Store    store.Store
	Decision *DecisionService
}

// CreateApplicationInput carries the fields for a new loan request.
type CreateApplicationInput struct {
	CustomerID string
	Amount     float64
	Months     int
	Purpose    string
}

// Create submits a new application for an existing customer.
func (s *LoanService) Create(ctx context.Context, in CreateApplicationInput) (domain.LoanApplication, error) {
	if _, err := s.Store.Customers().GetCustomerByID(ctx, in.CustomerID); err != nil {
		return domain.LoanApplication{}, err
	}

	app := domain.LoanApplication{
		ID:         idx.New().String(),
		CustomerID: in.CustomerID,
		Amount:     in.Amount,
		Months:     in.Months,
		Purpose:    in.Purpose,
		Status:     domain.StatusSubmitted,
	}
	if err := s.Store.Applications().CreateApplication(ctx, app); err != nil {
		return domain.LoanApplication{}, err
	}

	return s.Store.Applications().GetApplicationByID(ctx, app.ID)
}

// Get fetches a single application.
func (s *LoanService) Get(ctx context.Context, id string) (domain.LoanApplication, error) {
	return s.Store.Applications().GetApplicationByID(ctx, id)
}

// Decide runs the underwriting engine on an application and records the
// outcome. The read and the write happen in one transaction so a
// concurrent decision cannot interleave.
func (s *LoanService) Decide(ctx context.Context, applicationID string) (domain.Decision, error) {
	var decision domain.Decision

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		app, err := tx.Applications().GetApplicationByID(ctx, applicationID)
		if err != nil {
			return err
		}

		customer, err := tx.Customers().GetCustomerByID(ctx, app.CustomerID)
		if err != nil {
			return err
		}

		decision = s.Decision.Decide(customer, app)
		return tx.Applications().UpdateDecision(ctx, applicationID, decision)
	})
	if err != nil {
		return domain.Decision{}, err
	}

	return decision, nil
}

// ListApplicationsInput mirrors the list query parameters before
// sanitisation.
type ListApplicationsInput struct {
	Status     string
	CustomerID string
	Page       int
	PageSize   int
	Sort       string
}

// ApplicationPage is one page of results plus the pre-pagination total.
type ApplicationPage struct {
	Page     int
	PageSize int
	Total    int
	Items    []domain.LoanApplication
}

// List returns a filtered, sorted page of applications. Page defaults
// to 1, page size to 20 (also when above the cap of 100). An
// unrecognised status filter is ignored rather than rejected.
func (s *LoanService) List(ctx context.Context, in ListApplicationsInput) (ApplicationPage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	pageSize := in.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := store.ApplicationFilter{
		CustomerID: in.CustomerID,
		Page:       page,
		PageSize:   pageSize,
		Sort:       in.Sort,
	}
	if in.Status != "" {
		if status, err := domain.ParseApplicationStatus(in.Status); err == nil {
			filter.Status = &status
		}
	}

	items, total, err := s.Store.Applications().ListApplications(ctx, filter)
	if err != nil {
		return ApplicationPage{}, err
	}

	return ApplicationPage{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Items:    items,
	}, nil
}
