package middleware

import (
	"net/http"

	"github.com/rs/xid"

	"github.com/darmiel/customtoken/internal/correlation"
)

// maxCorrelationIDLength bounds client-supplied ids; longer ones are replaced.
const maxCorrelationIDLength = 64

// CorrelationIDMiddleware reuses the caller's X-Correlation-ID or generates one, and echoes it.
func CorrelationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(correlation.Header)
		if id == "" || len(id) > maxCorrelationIDLength {
			id = xid.New().String()
		}
		w.Header().Set(correlation.Header, id)
		next.ServeHTTP(w, r.WithContext(correlation.NewContext(r.Context(), id)))
	})
}
