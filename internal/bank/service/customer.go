package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/banca-aurora/aurora/internal/bank/domain"
	"github.com/banca-aurora/aurora/internal/bank/store"
	"github.com/banca-aurora/aurora/pkg/idx"
)

var (
	// ErrProfileExists means the authenticated subject already has a
	// customer profile.
	ErrProfileExists = errors.New("service: profile already exists for this user")

	// ErrFiscalCodeTaken means another profile already claims the
	// fiscal code.
	ErrFiscalCodeTaken = errors.New("service: fiscal code already registered")
)

type CustomerService struct {
	Store store.Store
}

// CreateCustomerInput carries the self-service profile fields. The
// subject comes from the verified token, never from the request body.
type CreateCustomerInput struct {
	FirstName     string
	LastName      string
	FiscalCode    string
	IncomeMonthly float64
}

// GetBySubject fetches the profile linked to the authenticated subject.
func (s *CustomerService) GetBySubject(ctx context.Context, subjectID string) (domain.Customer, error) {
	return s.Store.Customers().GetCustomerBySubject(ctx, subjectID)
}

// CreateForSubject creates the profile for an authenticated subject.
// Each subject gets at most one profile and each fiscal code belongs to
// at most one profile.
func (s *CustomerService) CreateForSubject(ctx context.Context, subjectID string, in CreateCustomerInput) (domain.Customer, error) {
	c := domain.Customer{
		ID:            idx.New().String(),
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		FiscalCode:    in.FiscalCode,
		IncomeMonthly: in.IncomeMonthly,
		SubjectID:     subjectID,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Customers().GetCustomerBySubject(ctx, subjectID); err == nil {
			return ErrProfileExists
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if err := tx.Customers().CreateCustomer(ctx, c); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrFiscalCodeTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Customer{}, err
	}

	return s.Store.Customers().GetCustomerByID(ctx, c.ID)
}

// UpdateIncome replaces the declared monthly income on the subject's
// profile and returns the updated record.
func (s *CustomerService) UpdateIncome(ctx context.Context, subjectID string, incomeMonthly float64) (domain.Customer, error) {
	if incomeMonthly < 0 || incomeMonthly > 1_000_000 {
		return domain.Customer{}, fmt.Errorf("service: income %v out of range: %w", incomeMonthly, ErrValidation)
	}

	c, err := s.Store.Customers().GetCustomerBySubject(ctx, subjectID)
	if err != nil {
		return domain.Customer{}, err
	}

	if err := s.Store.Customers().UpdateIncome(ctx, c.ID, incomeMonthly); err != nil {
		return domain.Customer{}, err
	}

	c.IncomeMonthly = incomeMonthly
	return c, nil
}
