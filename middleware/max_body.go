package middleware

import (
	"net/http"
)

// MaxBodyMiddleware caps request body size. Chat messages are small; the
// only sizeable upload is the counselor verification document.
func MaxBodyMiddleware(next http.Handler) http.Handler {
	maxBytes := int64(atoi(getenv("MAX_BODY_BYTES", "1048576"))) // 1 MiB default
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}
