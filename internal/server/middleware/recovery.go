package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/skillsenselab/telepathy/internal/errors"
	"github.com/skillsenselab/telepathy/internal/logger"
)

// Recovery recovers from handler panics, logs the stack, and answers with
// the standard error envelope.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					log.Error("panic recovered", map[string]interface{}{
						"error":  fmt.Sprintf("%v", v),
						"stack":  string(debug.Stack()),
						"path":   r.URL.Path,
						"method": r.Method,
					})
					appErr := apperrors.Internal(fmt.Errorf("panic: %v", v))
					w.Header().Set("Content-Type", "application/json; charset=utf-8")
					w.WriteHeader(appErr.HTTPStatus)
					_ = json.NewEncoder(w).Encode(appErr.ToResponse())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
