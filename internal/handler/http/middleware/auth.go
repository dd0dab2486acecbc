package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/handler/http/response"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/jwt"
)

type claimsKey struct{}

// Claims identifies the caller of an authenticated request.
type Claims struct {
	UserID    user.ID
	Mobile    string
	Role      user.Role
	Token     string
	ExpiresAt int64
}

// ClaimsFromContext returns the claims stored by AuthRequired.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}

// AuthRequired must run after jwtauth.Verifier. It stores the caller's
// claims and rejects revoked tokens and tokens that are not access tokens.
func AuthRequired(jwtService jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}
			if token == nil {
				response.Unauthorized(w, "Invalid token")
				return
			}

			tokenType, ok := claims["type"].(string)
			if !ok || tokenType != "access" {
				response.Unauthorized(w, "Invalid token")
				return
			}

			raw := jwtauth.TokenFromHeader(r)
			if jwtService.IsTokenRevoked(raw) {
				response.Unauthorized(w, "Token revoked")
				return
			}

			userID, _ := claims["user_id"].(string)
			mobile, _ := claims["mobile"].(string)
			role, _ := claims["role"].(string)
			if userID == "" || !user.Role(role).Valid() {
				response.Unauthorized(w, "Invalid token")
				return
			}

			c := Claims{
				UserID: user.ParseID(userID),
				Mobile: mobile,
				Role:   user.Role(role),
				Token:  raw,
			}
			if exp := token.Expiration(); !exp.IsZero() {
				c.ExpiresAt = exp.Unix()
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, c)))
		}
		return http.HandlerFunc(hfn)
	}
}
