package handler

import (
	"errors"
	"net/http"

	"github.com/akyapi/warehouse-auth/internal/domain"
	"github.com/akyapi/warehouse-auth/internal/metrics"
	"github.com/akyapi/warehouse-auth/internal/service"
)

const (
	msgRegistered     = "registration successful"
	msgLoggedIn       = "login successful"
	msgResetRequested = "if the email is registered, a password reset link has been sent"
	msgPasswordReset  = "password updated successfully"
	msgInternal       = "something went wrong, please try again later"
)

type AuthHandler struct {
	svc     *service.AuthService
	metrics *metrics.Metrics
}

func NewAuthHandler(svc *service.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{svc: svc, metrics: m}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, metrics.FlowRegister, err)
		return
	}

	token, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.fail(w, metrics.FlowRegister, err)
		return
	}

	h.metrics.RecordAuth(metrics.FlowRegister, metrics.OutcomeSuccess)
	writeJSON(w, http.StatusCreated, domain.TokenResponse{Message: msgRegistered, Token: token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, metrics.FlowLogin, err)
		return
	}

	token, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.fail(w, metrics.FlowLogin, err)
		return
	}

	h.metrics.RecordAuth(metrics.FlowLogin, metrics.OutcomeSuccess)
	writeJSON(w, http.StatusOK, domain.TokenResponse{Message: msgLoggedIn, Token: token})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, metrics.FlowForgotPassword, err)
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req); err != nil {
		h.fail(w, metrics.FlowForgotPassword, err)
		return
	}

	h.metrics.RecordAuth(metrics.FlowForgotPassword, metrics.OutcomeSuccess)
	writeJSON(w, http.StatusOK, domain.MessageResponse{Message: msgResetRequested})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, metrics.FlowResetPassword, err)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		h.fail(w, metrics.FlowResetPassword, err)
		return
	}

	h.metrics.RecordAuth(metrics.FlowResetPassword, metrics.OutcomeSuccess)
	writeJSON(w, http.StatusOK, domain.MessageResponse{Message: msgPasswordReset})
}

func (h *AuthHandler) fail(w http.ResponseWriter, flow string, err error) {
	status, outcome, message := classify(err)
	h.metrics.RecordAuth(flow, outcome)
	writeError(w, status, message)
}

// classify maps a service error to its status, metric outcome and the
// message shown to the client.
func classify(err error) (int, string, string) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest, metrics.OutcomeInvalidRequest, errBadBody.Error()
	case errors.As(err, &verr):
		return http.StatusBadRequest, metrics.OutcomeInvalidRequest, verr.Message
	case errors.Is(err, service.ErrDuplicateIdentity):
		return http.StatusConflict, metrics.OutcomeConflict, "username or email already exists"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, metrics.OutcomeInvalidCredentials, "invalid email or password"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, metrics.OutcomeNotFound, "user not found"
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusBadRequest, metrics.OutcomeTokenExpired, "password reset link has expired"
	case errors.Is(err, service.ErrTokenInvalid):
		return http.StatusBadRequest, metrics.OutcomeTokenInvalid, "invalid or unknown password reset link"
	default:
		return http.StatusInternalServerError, metrics.OutcomeError, msgInternal
	}
}
