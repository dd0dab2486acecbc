package middleware

import (
	"net/http"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/handler/http/response"
)

func requireRole(role user.Role, denied error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || claims.Role != role {
				response.HandleError(w, denied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireWorker requires worker role
func RequireWorker(next http.Handler) http.Handler {
	return requireRole(user.RoleWorker, user.ErrWorkerRequired)(next)
}

// RequireContractor requires contractor role
func RequireContractor(next http.Handler) http.Handler {
	return requireRole(user.RoleContractor, user.ErrContractorRequired)(next)
}
