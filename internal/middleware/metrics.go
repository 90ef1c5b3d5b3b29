package middleware

import (
	"net/http"
	"time"

	"github.com/akyapi/warehouse-auth/internal/metrics"
)

func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)
			m.ObserveHTTP(routeName(r), r.Method, rec.status, time.Since(start))
		})
	}
}
