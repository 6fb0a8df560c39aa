package restapi

import (
	"fmt"
	"net/http"
)

// CacheControlMiddleware sets Cache-Control on successful reads. Anything
// else, including all writes, is marked uncacheable since the stop dataset
// can change at any time.
func CacheControlMiddleware(maxAgeSeconds int, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if maxAgeSeconds > 0 && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAgeSeconds))
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}

		next.ServeHTTP(w, r)
	})
}
