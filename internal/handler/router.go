// Package handler exposes the auth flows over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/akyapi/warehouse-auth/internal/metrics"
	"github.com/akyapi/warehouse-auth/internal/middleware"
	"github.com/akyapi/warehouse-auth/internal/service"
	"github.com/akyapi/warehouse-auth/internal/token"
)

type RouterConfig struct {
	Auth           *service.AuthService
	Verifier       token.Verifier
	Metrics        *metrics.Metrics
	AllowedOrigins string
	Log            *slog.Logger
}

func NewRouter(cfg RouterConfig) *mux.Router {
	authHandler := NewAuthHandler(cfg.Auth, cfg.Metrics)
	userHandler := NewUserHandler(cfg.Auth, cfg.Metrics)
	healthHandler := NewHealthHandler(cfg.Auth, cfg.Log)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Global middleware: request id → logging → metrics → CORS → security headers → body limit
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(middleware.Instrument(cfg.Metrics))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(limitBody)

	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/forgot-password", authHandler.ForgotPassword).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/reset-password", authHandler.ResetPassword).Methods(http.MethodPost, http.MethodOptions)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Authenticate(cfg.Verifier, cfg.Log))
	protected.HandleFunc("/me", userHandler.Me).Methods(http.MethodGet, http.MethodOptions)

	return r
}
