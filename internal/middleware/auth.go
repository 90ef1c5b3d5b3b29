package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/akyapi/warehouse-auth/internal/domain"
	"github.com/akyapi/warehouse-auth/internal/token"
)

type contextKey string

const claimsKey contextKey = "claims"

// Authenticate requires a valid bearer session token. Expired and invalid
// tokens get the same response; only the log tells them apart.
func Authenticate(v token.Verifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeMessage(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				writeMessage(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			claims, err := v.Verify(tokenStr)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, token.ErrTokenExpired) {
					reason = "expired"
				}
				log.Debug("rejected session token",
					slog.String("reason", reason),
					slog.String("request_id", RequestIDFromContext(r.Context())),
				)
				writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*token.Claims)
	return claims, ok
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.MessageResponse{Message: message})
}
