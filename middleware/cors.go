// ABOUTME: CORS middleware for the browser client
// ABOUTME: Allows the configured client origin with credentials

package middleware

import "net/http"

// CORS returns middleware that allows cross-origin requests from the
// configured client origin. OPTIONS preflight requests are answered
// without calling the wrapped handler.
func CORS(origin string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next(w, r)
		}
	}
}
