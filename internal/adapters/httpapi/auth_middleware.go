package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// NewAPIKeyMiddleware enforces X-Api-Key on every guarded route.
func NewAPIKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := strings.TrimSpace(r.Header.Get("X-Api-Key"))
			if presented == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing X-Api-Key header", nil)
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid api key", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
