package http

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

// claimsContextKey holds the verified JWT claims of the caller.
const claimsContextKey contextKey = "claims"

// ClaimsFromContext returns the claims stored by JWTMiddleware.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(jwt.MapClaims)
	return claims, ok
}

// subjectFromContext is the "sub" claim, or empty for anonymous calls.
func subjectFromContext(ctx context.Context) string {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}
