package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// RequestLogging logs each request with method, path, status and duration.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.Printf("[HTTP] %s %s %d %s", r.Method, r.URL.Path, wrapped.statusCode, time.Since(start))
	})
}

// shouldSkipLogging returns true for paths that shouldn't be logged
func shouldSkipLogging(path string) bool {
	skipPaths := []string{
		"/healthz",
		"/metrics",
		"/favicon.ico",
	}
	for _, skip := range skipPaths {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}
	return false
}
