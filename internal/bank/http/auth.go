package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/banca-aurora/aurora/internal/bank/identity"
	"github.com/banca-aurora/aurora/internal/bank/metrics"
	"github.com/banca-aurora/aurora/pkg/httpx"
	"github.com/banca-aurora/aurora/pkg/slogx"
)

// AuthHandler delegates credential operations to the identity provider.
type AuthHandler struct {
	Gateway *identity.Gateway
	Metrics *metrics.Metrics
}

// HandleLogin exchanges a credential pair for tokens.
//
//	@Summary		Login
//	@Description	Exchanges username and password for tokens via the identity provider's password grant.
//	@Description	The provider's token response (or error response) is relayed verbatim.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	LoginRequest	true	"Credentials"
//	@Success		200	{object}	map[string]any			"Provider token response"
//	@Failure		400	{object}	ErrorResponse			"Malformed request body"
//	@Failure		401	{object}	map[string]any			"Provider rejection, relayed verbatim"
//	@Failure		502	{object}	DelegationErrorResponse	"Provider unreachable"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}

	token, err := h.Gateway.Login(ctx, req.Username, req.Password)
	if err != nil {
		h.recordFailure("login", err)
		log.Warn("login delegation failed", "err", err)
		h.writePassThroughError(w, err)
		return
	}

	h.Metrics.RecordDelegation("login", "success")
	httpx.WriteRaw(w, http.StatusOK, "application/json", token.Raw)
}

// HandleRegister provisions a new user at the identity provider.
//
//	@Summary		Register
//	@Description	Creates a user at the identity provider and sets the initial password.
//	@Description	Failures are step-labeled so callers can distinguish "no user created"
//	@Description	from "user created but unusable".
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	RegisterRequest	true	"New account"
//	@Success		201	{object}	RegisterResponse
//	@Failure		400	{object}	DelegationErrorResponse	"Malformed request or misconfigured authority"
//	@Failure		409	{object}	DelegationErrorResponse	"User already exists"
//	@Failure		500	{object}	DelegationErrorResponse	"Provider response unusable"
//	@Failure		502	{object}	DelegationErrorResponse	"Provider unreachable"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "username and password are required"})
		return
	}

	userID, err := h.Gateway.Register(ctx, identity.RegisterRequest{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.recordFailure("register", err)
		log.Warn("registration delegation failed", "err", err, "user_id", userID)
		h.writeRegisterError(w, err)
		return
	}

	h.Metrics.RecordDelegation("register", "success")
	httpx.WriteJSON(w, http.StatusCreated, RegisterResponse{UserID: userID})
}

// HandleRefresh exchanges a refresh token for fresh tokens.
//
//	@Summary		Refresh tokens
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	RefreshRequest	true	"Refresh token"
//	@Success		200	{object}	map[string]any			"Provider token response"
//	@Failure		400	{object}	ErrorResponse			"Missing refresh token"
//	@Failure		401	{object}	map[string]any			"Provider rejection, relayed verbatim"
//	@Failure		502	{object}	DelegationErrorResponse	"Provider unreachable"
//	@Router			/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "missing refreshToken"})
		return
	}

	token, err := h.Gateway.Refresh(ctx, req.RefreshToken)
	if err != nil {
		h.recordFailure("refresh", err)
		log.Warn("refresh delegation failed", "err", err)
		h.writePassThroughError(w, err)
		return
	}

	h.Metrics.RecordDelegation("refresh", "success")
	httpx.WriteRaw(w, http.StatusOK, "application/json", token.Raw)
}

// HandleLogout revokes the session behind a refresh token.
//
//	@Summary		Logout
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	LogoutRequest	true	"Refresh token to revoke"
//	@Success		204	"Session revoked"
//	@Failure		400	{object}	ErrorResponse			"Missing refresh token"
//	@Failure		401	"Invalid or missing access token"
//	@Failure		502	{object}	DelegationErrorResponse	"Provider unreachable"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	if claims, ok := httpx.ClaimsFromContext(ctx); ok {
		log = log.With("username", claims.PreferredUsername)
	}

	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "missing refreshToken"})
		return
	}

	if err := h.Gateway.Logout(ctx, req.RefreshToken); err != nil {
		h.recordFailure("logout", err)
		log.Warn("logout delegation failed", "err", err)
		h.writePassThroughError(w, err)
		return
	}

	h.Metrics.RecordDelegation("logout", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) recordFailure(operation string, err error) {
	h.Metrics.RecordDelegation(operation, "failure")
	if de, ok := identity.AsError(err); ok {
		h.Metrics.RecordDelegationFailure(operation, de.Step, string(de.Kind))
	}
}

// writePassThroughError relays provider rejections verbatim so clients
// keep the provider's own error vocabulary. Only failures without a
// provider response get a gateway-shaped body.
func (h *AuthHandler) writePassThroughError(w http.ResponseWriter, err error) {
	de, ok := identity.AsError(err)
	if !ok {
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		return
	}

	switch de.Kind {
	case identity.KindProvider, identity.KindDuplicateUser:
		httpx.WriteRaw(w, de.Status, "application/json", de.Body)
	case identity.KindTransport:
		httpx.WriteJSON(w, http.StatusBadGateway, DelegationErrorResponse{
			Step:    de.Step,
			Message: "identity provider unreachable",
		})
	default:
		httpx.WriteJSON(w, http.StatusInternalServerError, DelegationErrorResponse{
			Step:    de.Step,
			Message: "identity provider response unusable",
		})
	}
}

// writeRegisterError produces the step-labeled registration error body.
func (h *AuthHandler) writeRegisterError(w http.ResponseWriter, err error) {
	de, ok := identity.AsError(err)
	if !ok {
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		return
	}

	switch de.Kind {
	case identity.KindConfiguration:
		httpx.WriteJSON(w, http.StatusBadRequest, DelegationErrorResponse{
			Step:    de.Step,
			Message: "authority is not of the form <serverBase>/realms/<realm>",
		})

	case identity.KindDuplicateUser:
		httpx.WriteJSON(w, http.StatusConflict, DelegationErrorResponse{
			Step:    de.Step,
			Message: "user already exists",
		})

	case identity.KindProvider:
		httpx.WriteJSON(w, de.Status, DelegationErrorResponse{
			Step:     de.Step,
			Response: string(de.Body),
		})

	case identity.KindPartialFailure:
		status := de.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		httpx.WriteJSON(w, status, DelegationErrorResponse{
			Step:     de.Step,
			Message:  "user created but password could not be set",
			Response: string(de.Body),
			UserID:   de.UserID,
		})

	case identity.KindTransport:
		httpx.WriteJSON(w, http.StatusBadGateway, DelegationErrorResponse{
			Step:    de.Step,
			Message: "identity provider unreachable",
		})

	default: // protocol violations
		httpx.WriteJSON(w, http.StatusInternalServerError, DelegationErrorResponse{
			Step:     de.Step,
			Response: string(de.Body),
		})
	}
}
