package handler

import (
	"net/http"

	"github.com/akyapi/warehouse-auth/internal/metrics"
	"github.com/akyapi/warehouse-auth/internal/middleware"
	"github.com/akyapi/warehouse-auth/internal/service"
)

type UserHandler struct {
	svc     *service.AuthService
	metrics *metrics.Metrics
}

func NewUserHandler(svc *service.AuthService, m *metrics.Metrics) *UserHandler {
	return &UserHandler{svc: svc, metrics: m}
}

// Me returns the profile of the user the session token belongs to.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	user, err := h.svc.Me(r.Context(), claims.UserID)
	if err != nil {
		status, outcome, message := classify(err)
		h.metrics.RecordAuth(metrics.FlowMe, outcome)
		writeError(w, status, message)
		return
	}

	h.metrics.RecordAuth(metrics.FlowMe, metrics.OutcomeSuccess)
	writeJSON(w, http.StatusOK, user.Public())
}
