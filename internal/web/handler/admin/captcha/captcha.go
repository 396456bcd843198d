// Package captcha implements the authenticated endpoints for the comment
// CAPTCHA policy switch.
package captcha

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/abuse"
	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/web/handler"
)

// Path is the policy switch endpoint path.
const Path = handler.AdminPathPrefix + "/captcha"

type request struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// Service is the captcha policy handler service.
type Service struct {
	handler.Service
	machine *abuse.Machine
}

// Handler is the captcha policy handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the captcha policy handler. The routes must be registered
// behind the auth middleware.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.machine = abuse.NewMachine(db, cfg)

	app.Get(Path, s.Get)
	app.Put(Path, s.Put)

	return nil
}

// Get returns the current policy switch value.
func (s *Service) Get(c *fiber.Ctx) error {
	enabled, err := s.machine.Enabled(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("captcha policy: read failed")

		return handler.ErrorJSON(c, fiber.StatusServiceUnavailable, "storage unavailable")
	}

	return c.JSON(fiber.Map{"enabled": enabled})
}

// Put sets the policy switch. The new value takes effect for subsequent
// comment submissions immediately; nothing caches it.
func (s *Service) Put(c *fiber.Ctx) error {
	var req request

	if err := c.BodyParser(&req); err != nil {
		return handler.ErrorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := handler.Validate.Struct(&req); err != nil {
		return handler.ErrorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.machine.SetEnabled(c.Context(), *req.Enabled); err != nil {
		log.Error().Err(err).Msg("captcha policy: update failed")

		return handler.ErrorJSON(c, fiber.StatusServiceUnavailable, "storage unavailable")
	}

	log.Info().Bool("enabled", *req.Enabled).Msg("comment captcha policy updated")

	return c.JSON(fiber.Map{"enabled": *req.Enabled})
}
