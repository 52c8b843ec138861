package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes is the default maximum form body size (256 KiB).
const DefaultMaxBodyBytes = 256 << 10

// MaxBytes caps the body of POST requests. A form larger than maxBytes fails
// to parse and the handler answers 400.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
