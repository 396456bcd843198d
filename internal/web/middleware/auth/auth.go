package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/session"
)

// ClaimsLocalsKey is the fiber.Locals key under which validated session
// claims are stored for downstream handlers.
const ClaimsLocalsKey = "SessionClaims"

// New creates a middleware that validates the admin session cookie on every
// request it sees and rejects with 401 JSON otherwise. Claims of a valid
// session are placed in Locals.
func New(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(cfg.Webserver.Session.CookieName)

		claims, err := session.Validate(cfg.Webserver.SessionSecret, token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		c.Locals(ClaimsLocalsKey, claims)

		return c.Next()
	}
}

// ClaimsFrom returns the session claims the middleware stored for this
// request, or nil when the request did not pass through the middleware.
func ClaimsFrom(c *fiber.Ctx) *session.Claims {
	claims, _ := c.Locals(ClaimsLocalsKey).(*session.Claims)
	return claims
}
