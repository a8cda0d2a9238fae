package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ownerMiddleware only lets through tokens issued for `audience` that identify an owner.
func ownerMiddleware(audience string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Subject == "" || (audience != "" && !claims.VerifyAudience(audience, true)) {
				return errUnauthorized
			}
			return next(ctx)
		}
	}
}
