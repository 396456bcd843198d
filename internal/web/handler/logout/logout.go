// Package logout implements the admin logout endpoint.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/session"
	"github.com/kotoba-blog/kotoba/internal/web/handler"
)

// Path is the logout endpoint path.
const Path = handler.AdminPathPrefix + "/logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg *config.Config
}

// Handler is the logout handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the logout handler. The route is registered outside the
// auth middleware: logging out with a stale or absent session must succeed
// the same way as with a live one.
func (s *Service) Init(app *fiber.App, cfg *config.Config) error {
	if app == nil || cfg == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg

	app.Post(Path, s.Post)

	return nil
}

// Post destroys the session by overwriting the cookie with an expired one.
// Sessions are stateless, so there is nothing server-side to remove; the
// operation is idempotent by construction.
func (s *Service) Post(c *fiber.Ctx) error {
	c.Cookie(session.NewClearingCookie(s.cfg))

	return c.SendStatus(fiber.StatusNoContent)
}
