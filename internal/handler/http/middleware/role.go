package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
)

// RequireAdmin restricts batch, correction and snapshot operations to admins.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := jwt.RoleFrom(r.Context())
		if !ok {
			response.Forbidden(w, "Admin access required")
			return
		}

		if role != jwt.RoleAdmin {
			response.Forbidden(w, "Admin access required, but user role is '"+string(role)+"'")
			return
		}

		next.ServeHTTP(w, r)
	})
}
