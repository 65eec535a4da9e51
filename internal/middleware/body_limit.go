package middleware

import "net/http"

// MaxBodySize returns middleware that limits request body size.
// Requests reading beyond maxBytes receive a 413 Request Entity Too Large
// response. This caps raw upload bodies before any policy check runs.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
