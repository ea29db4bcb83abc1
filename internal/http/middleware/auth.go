package middleware

import (
	"github.com/gofiber/fiber/v2"

	"clientfiles/internal/auth"
)

// PrincipalLocalKey holds the verified auth.Principal in fiber locals.
const PrincipalLocalKey = "principal"

// Auth requires a valid bearer token. When owner is non-nil the token's
// subject must also match the user that owns the running session.
func Auth(v *auth.Verifier, owner func() string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		p, err := v.Verify(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid access token")
		}
		if owner != nil {
			if uid := owner(); uid != "" && uid != p.UserID {
				return fiber.NewError(fiber.StatusForbidden, "token does not belong to the session user")
			}
		}
		c.Locals(PrincipalLocalKey, p)
		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by Auth.
func PrincipalFrom(c *fiber.Ctx) (auth.Principal, bool) {
	p, ok := c.Locals(PrincipalLocalKey).(auth.Principal)
	return p, ok
}
