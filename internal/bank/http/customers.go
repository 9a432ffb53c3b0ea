package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/banca-aurora/aurora/internal/bank/service"
	"github.com/banca-aurora/aurora/internal/bank/store"
	"github.com/banca-aurora/aurora/pkg/httpx"
	"github.com/banca-aurora/aurora/pkg/slogx"
)

// CustomerHandler manages the authenticated subject's customer profile.
type CustomerHandler struct {
	Customers *service.CustomerService
}

// HandleGetMe returns the caller's profile.
//
//	@Summary		Get own customer profile
//	@Tags			Customers
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	CustomerResponse
//	@Failure		401	"Invalid or missing access token"
//	@Failure		404	{object}	ErrorResponse	"No profile for this user yet"
//	@Router			/v1/customers/me [get].
func (h *CustomerHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject := httpx.SubjectFromContext(ctx)
	if subject == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	c, err := h.Customers.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteJSON(w, http.StatusNotFound, ErrorResponse{Message: "customer profile not found"})
			return
		}
		slogx.FromContext(ctx).Error("load customer failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newCustomerResponse(c))
}

// HandleCreate creates the caller's profile.
//
//	@Summary		Create own customer profile
//	@Tags			Customers
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	CreateCustomerRequest	true	"Profile fields"
//	@Success		201	{object}	CustomerResponse
//	@Failure		400	{object}	ErrorResponse	"Malformed or incomplete body"
//	@Failure		401	"Invalid or missing access token"
//	@Failure		409	{object}	ErrorResponse	"Profile or fiscal code already exists"
//	@Router			/v1/customers [post].
func (h *CustomerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject := httpx.SubjectFromContext(ctx)
	if subject == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" ||
		strings.TrimSpace(req.FiscalCode) == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "firstName, lastName and fiscalCode are required"})
		return
	}

	c, err := h.Customers.CreateForSubject(ctx, subject, service.CreateCustomerInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		FiscalCode:    req.FiscalCode,
		IncomeMonthly: req.IncomeMonthly,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProfileExists):
			httpx.WriteJSON(w, http.StatusConflict, ErrorResponse{Message: "a profile already exists for this user"})
		case errors.Is(err, service.ErrFiscalCodeTaken):
			httpx.WriteJSON(w, http.StatusConflict, ErrorResponse{Message: "fiscal code already registered"})
		default:
			slogx.FromContext(ctx).Error("create customer failed", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		}
		return
	}

	w.Header().Set("Location", "/v1/customers/"+c.ID)
	httpx.WriteJSON(w, http.StatusCreated, newCustomerResponse(c))
}

// HandleUpdateIncome replaces the caller's declared monthly income.
//
//	@Summary		Update own monthly income
//	@Tags			Customers
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	UpdateIncomeRequest	true	"New income"
//	@Success		200	{object}	IncomeResponse
//	@Failure		400	{object}	ErrorResponse	"Income out of range"
//	@Failure		401	"Invalid or missing access token"
//	@Failure		404	{object}	ErrorResponse	"No profile for this user yet"
//	@Router			/v1/customers/me/income [put].
func (h *CustomerHandler) HandleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject := httpx.SubjectFromContext(ctx)
	if subject == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req UpdateIncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}

	c, err := h.Customers.UpdateIncome(ctx, subject, req.IncomeMonthly)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "incomeMonthly out of range"})
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, ErrorResponse{Message: "customer profile not found, create one first"})
		default:
			slogx.FromContext(ctx).Error("update income failed", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, IncomeResponse{
		CustomerID:    c.ID,
		IncomeMonthly: c.IncomeMonthly,
	})
}
