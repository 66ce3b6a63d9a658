package middleware

import (
	"github.com/labstack/echo/v4"

	deliverycontext "intuitive/internal/delivery/context"
	"intuitive/internal/delivery/credential"
)

// IdentityMiddleware gives every request a fresh Identity cell and, when the
// Authorization header carries one, the bearer token. It never rejects a
// request; the GraphQL guards decide what an anonymous request may do.
type IdentityMiddleware struct{}

// NewIdentityMiddleware creates the identity middleware.
func NewIdentityMiddleware() *IdentityMiddleware {
	return &IdentityMiddleware{}
}

// Process places the identity cell and credential into the request context.
func (m *IdentityMiddleware) Process(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := deliverycontext.WithIdentity(req.Context(), deliverycontext.NewIdentity())
		if token, ok := credential.FromHeader(req.Header); ok {
			ctx = deliverycontext.WithBearerToken(ctx, token)
		}
		c.SetRequest(req.WithContext(ctx))

		return next(c)
	}
}
