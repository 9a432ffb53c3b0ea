package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/banca-aurora/aurora/internal/bank/metrics"
	"github.com/banca-aurora/aurora/internal/bank/service"
	"github.com/banca-aurora/aurora/internal/bank/store"
	"github.com/banca-aurora/aurora/pkg/httpx"
	"github.com/banca-aurora/aurora/pkg/slogx"
)

// LoanHandler manages loan applications and their underwriting.
type LoanHandler struct {
	Loans   *service.LoanService
	Metrics *metrics.Metrics
}

// HandleCreate submits a new loan application.
//
//	@Summary		Submit a loan application
//	@Tags			Loans
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	CreateApplicationRequest	true	"Application fields"
//	@Success		201	{object}	ApplicationCreatedResponse
//	@Failure		400	{object}	ErrorResponse	"Malformed body"
//	@Failure		401	"Invalid or missing access token"
//	@Failure		404	{object}	ErrorResponse	"Customer not found"
//	@Router			/v1/loan-applications [post].
func (h *LoanHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}
	if req.CustomerID == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "customerId is required"})
		return
	}

	app, err := h.Loans.Create(ctx, service.CreateApplicationInput{
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Months:     req.Months,
		Purpose:    req.Purpose,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteJSON(w, http.StatusNotFound, ErrorResponse{Message: "customer not found"})
			return
		}
		slogx.FromContext(ctx).Error("create application failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		return
	}

	w.Header().Set("Location", "/v1/loan-applications/"+app.ID)
	httpx.WriteJSON(w, http.StatusCreated, ApplicationCreatedResponse{
		ApplicationID: app.ID,
		Status:        string(app.Status),
	})
}

// HandleGet returns a single loan application.
//
//	@Summary		Get a loan application
//	@Tags			Loans
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path	string	true	"Application id"
//	@Success		200	{object}	ApplicationResponse
//	@Failure		401	"Invalid or missing access token"
//	@Failure		404	{object}	ErrorResponse	"Application not found"
//	@Router			/v1/loan-applications/{id} [get].
func (h *LoanHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	app, err := h.Loans.Get(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteJSON(w, http.StatusNotFound, ErrorResponse{Message: "application not found"})
			return
		}
		slogx.FromContext(ctx).Error("load application failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newApplicationResponse(app))
}

// HandleDecide runs the underwriting engine on an application.
//
//	@Summary		Decide a loan application
//	@Tags			Loans
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path	string	true	"Application id"
//	@Success		200	{object}	DecisionResponse
//	@Failure		401	"Invalid or missing access token"
//	@Failure		404	{object}	ErrorResponse	"Application not found"
//	@Router			/v1/loan-applications/{id}/decision [post].
func (h *LoanHandler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	decision, err := h.Loans.Decide(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteJSON(w, http.StatusNotFound, ErrorResponse{Message: "application not found"})
			return
		}
		slogx.FromContext(ctx).Error("decide application failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		return
	}

	h.Metrics.RecordDecision(string(decision.Status))
	httpx.WriteJSON(w, http.StatusOK, DecisionResponse{
		Status:         string(decision.Status),
		APR:            decision.APR,
		MonthlyPayment: decision.MonthlyPayment,
		Score:          decision.Score,
	})
}

// HandleList returns a filtered, sorted page of applications.
//
//	@Summary		List loan applications
//	@Tags			Loans
//	@Security		BearerAuth
//	@Produce		json
//	@Param			status		query	string	false	"Filter by status"
//	@Param			customerId	query	string	false	"Filter by customer"
//	@Param			page		query	int		false	"1-based page"		default(1)
//	@Param			pageSize	query	int		false	"Page size, max 100"	default(20)
//	@Param			sort		query	string	false	"createdAsc, createdDesc, amountAsc or amountDesc"	default(createdDesc)
//	@Success		200	{object}	ApplicationListResponse
//	@Failure		401	"Invalid or missing access token"
//	@Router			/v1/loan-applications [get].
func (h *LoanHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	result, err := h.Loans.List(ctx, service.ListApplicationsInput{
		Status:     q.Get("status"),
		CustomerID: q.Get("customerId"),
		Page:       page,
		PageSize:   pageSize,
		Sort:       q.Get("sort"),
	})
	if err != nil {
		slogx.FromContext(ctx).Error("list applications failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		return
	}

	items := make([]ApplicationResponse, 0, len(result.Items))
	for _, app := range result.Items {
		items = append(items, newApplicationResponse(app))
	}

	httpx.WriteJSON(w, http.StatusOK, ApplicationListResponse{
		Page:     result.Page,
		PageSize: result.PageSize,
		Total:    result.Total,
		Items:    items,
	})
}
