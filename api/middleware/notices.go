package middleware

import (
	"net/http"

	"github.com/angelmondragon/orderdesk/internal/notices"
)

// Notices gives each request its own recorder so handlers can surface operator notices.
func Notices() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _ := notices.NewContext(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
