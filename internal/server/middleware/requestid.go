package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/skillsenselab/telepathy/internal/logger"
)

// HeaderRequestID is the request ID header honored and emitted by RequestID.
const HeaderRequestID = "X-Request-Id"

// RequestID injects a unique request ID into every request and response.
// A client-supplied X-Request-Id is preserved; otherwise a uuid v4 is
// generated. The ID also rides the request context for log correlation.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.New().String()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)

			ctx := logger.ContextWithRequestID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
