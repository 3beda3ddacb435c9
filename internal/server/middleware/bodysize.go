package middleware

import "net/http"

// BodySizeLimit restricts the request body to maxBytes. Base64 video clips
// inflate by a third, so the cap must stay comfortably above the largest
// expected capture. Oversized bodies surface as *http.MaxBytesError from the
// handler's read.
func BodySizeLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
