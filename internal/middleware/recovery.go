package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"dues-backend/pkg/utils"
)

// PanicRecovery turns a handler panic into a JSON 500 response instead of
// tearing down the connection.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[Recovery] panic on %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
				utils.Error(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
