// Package invitation implements the authenticated endpoint for issuing admin
// invitations.
package invitation

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/invite"
	"github.com/kotoba-blog/kotoba/internal/web/handler"
	"github.com/kotoba-blog/kotoba/internal/web/middleware/auth"
)

// Path is the invitation endpoint path.
const Path = handler.AdminPathPrefix + "/invitations"

type request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service is the invitation handler service.
type Service struct {
	handler.Service
	cfg     *config.Config
	manager *invite.Manager
}

// Handler is the invitation handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the invitation handler. The route must be registered
// behind the auth middleware.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.manager = invite.NewManager(db, cfg)

	app.Post(Path, s.Post)

	return nil
}

// Post issues an invitation for the given email. The registration link in the
// response embeds the raw token and is shown exactly once; storage keeps only
// the hash.
func (s *Service) Post(c *fiber.Ctx) error {
	claims := auth.ClaimsFrom(c)
	if claims == nil {
		return handler.ErrorJSON(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req request

	if err := c.BodyParser(&req); err != nil {
		return handler.ErrorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := handler.Validate.Struct(&req); err != nil {
		return handler.ErrorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	raw, invitation, err := s.manager.Issue(c.Context(), req.Email, claims.AdminID)
	if err != nil {
		log.Error().Err(err).Msg("invitation: issue failed")

		return handler.ErrorJSON(c, fiber.StatusInternalServerError, "internal server error")
	}

	log.Info().
		Str("email", invitation.Email).
		Uint64("issued_by", claims.AdminID).
		Time("expires_at", invitation.ExpiresAt).
		Msg("admin invitation issued")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"email":      invitation.Email,
		"expires_at": invitation.ExpiresAt,
		"link":       invite.Link(s.cfg.Webserver.URL, raw),
	})
}
