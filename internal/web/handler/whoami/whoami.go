// Package whoami implements the session check endpoint.
package whoami

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/kotoba-blog/kotoba/internal/web/handler"
	"github.com/kotoba-blog/kotoba/internal/web/middleware/auth"
)

// Path is the session check endpoint path.
const Path = handler.AdminPathPrefix + "/whoami"

// Service is the whoami handler service.
type Service struct {
	handler.Service
}

// Handler is the whoami handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the whoami handler. The route must be registered behind
// the auth middleware.
func (s *Service) Init(app *fiber.App) error {
	if app == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	app.Get(Path, s.Get)

	return nil
}

// Get returns the identity of the current session.
func (s *Service) Get(c *fiber.Ctx) error {
	claims := auth.ClaimsFrom(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	return c.JSON(fiber.Map{"id": claims.AdminID, "email": claims.Email})
}
