package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
)

// PanicRecovery turns a handler panic into a 500 response instead of tearing
// down the connection.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[Recovery] panic on %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"error": "Internal server error"}`)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
