package auth

import (
	"context"
	"net/http"

	resp "github.com/colelamarris56-code/price-monitor/internal/lib/api/response"
	"github.com/colelamarris56-code/price-monitor/internal/lib/jwt"

	"github.com/go-chi/render"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// New authenticates requests with a bearer token and stores the token's uid
// in the request context.
func New(jwtParser *jwt.JWTParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := jwtParser.ParseToken(r.Header.Get("Authorization"))
			if err != nil {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Unauthorized"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated uid from the request context.
func UserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}
