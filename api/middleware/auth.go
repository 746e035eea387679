package middleware

import (
	"context"
	"errors"
	"net/http"

	"karma_server/lib"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
)

// Context keys for storing user data in request context
type contextKey string

const ClaimsContextKey contextKey = "claims"

// AdminAuthMiddleware accepts only bearer tokens whose subject is allow-listed
func (mw *Middleware) AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := lib.ExtractBearerToken(r)
		if err != nil {
			gecho.Unauthorized(w, gecho.WithMessage("Invalid or missing access token"), gecho.Send())
			return
		}

		claims, err := mw.authService.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, lib.ErrForbidden) {
				gecho.Forbidden(w, gecho.WithMessage("Admin access required"), gecho.Send())
				return
			}
			mw.logger.Warn("Rejected admin token", gecho.Field("error", err))
			gecho.Unauthorized(w, gecho.WithMessage("Invalid or missing access token"), gecho.Send())
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClaimsFromContext is a helper function to extract the claims from request context
func GetClaimsFromContext(ctx context.Context) (*structs.AuthClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*structs.AuthClaims)
	return claims, ok
}

// ActorID returns the admin identity of the request, 0 when unauthenticated
func ActorID(ctx context.Context) int64 {
	if claims, ok := GetClaimsFromContext(ctx); ok {
		return claims.Sub
	}
	return 0
}
