package accounts

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the verified token claims in the given context
func WithClaimsContext(ctx context.Context, claims *AccountClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the claims from the standard context
func GetClaims(ctx context.Context) (*AccountClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*AccountClaims)
	return raw, ok && raw != nil
}

// GetFiberClaims extracts the claims stored by the guard on the request
func GetFiberClaims(c *fiber.Ctx, key string) (*AccountClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}
	raw, ok := c.Locals(key).(*AccountClaims)
	if ok && raw != nil {
		return raw, true
	}
	return GetClaims(c.UserContext())
}
