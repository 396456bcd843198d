// Package comment implements the public comment submission boundary.
//
// Every submission consults the CAPTCHA policy switch and, when it is on, the
// per-identity abuse state machine. The machine's verdict maps onto the HTTP
// surface: Allowed persists the comment, ChallengeRequired answers 428 and
// Blocked answers 403. A storage failure anywhere on this path rejects the
// submission; the boundary never fails open.
package comment

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/abuse"
	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/db/models"
	"github.com/kotoba-blog/kotoba/internal/web/handler"
)

const (
	// Path is the comment submission endpoint path.
	Path = "/comments"
	// CaptchaPath is the endpoint the CAPTCHA widget reports a verified solve
	// to. Verifying the solve against the provider happens upstream; this
	// endpoint records its outcome.
	CaptchaPath = "/comments/captcha"
)

type submitRequest struct {
	PostSlug string `json:"post_slug" validate:"required,max=200"`
	Lang     string `json:"lang" validate:"required,oneof=en ja"`
	Author   string `json:"author" validate:"required,max=80"`
	Body     string `json:"body" validate:"required,max=4000"`
	DeviceID string `json:"device_id" validate:"required,max=128"`
}

type solveRequest struct {
	DeviceID string `json:"device_id" validate:"required,max=128"`
}

// Service is the comment handler service.
type Service struct {
	handler.Service
	cfg     *config.Config
	db      *gorm.DB
	machine *abuse.Machine
}

// Handler is the comment handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the comment handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.machine = abuse.NewMachine(db, cfg)

	app.Post(Path, s.Post)
	app.Post(CaptchaPath, s.PostCaptcha)

	return nil
}

// Post handles a comment submission. The policy switch is read per request so
// an admin toggling it never races a cached value.
func (s *Service) Post(c *fiber.Ctx) error {
	var req submitRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.ErrorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := handler.Validate.Struct(&req); err != nil {
		return handler.ErrorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	ipHash := abuse.HashIP(c.IP())

	enabled, err := s.machine.Enabled(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("comment: captcha policy read failed")

		return handler.ErrorJSON(c, fiber.StatusServiceUnavailable, "storage unavailable")
	}

	if enabled {
		decision, err := s.machine.Check(c.Context(), ipHash, req.DeviceID)
		if err != nil {
			log.Error().Err(err).Msg("comment: abuse check failed")

			return handler.ErrorJSON(c, fiber.StatusServiceUnavailable, "storage unavailable")
		}

		switch decision {
		case abuse.DecisionBlocked:
			return handler.ErrorJSON(c, fiber.StatusForbidden, "comment submission blocked")
		case abuse.DecisionChallengeRequired:
			return c.Status(fiber.StatusPreconditionRequired).JSON(fiber.Map{
				"challenge_required": true,
			})
		case abuse.DecisionAllowed:
		}
	}

	comment := models.Comment{
		PostSlug: req.PostSlug,
		Lang:     req.Lang,
		Author:   req.Author,
		Body:     req.Body,
		IPHash:   ipHash,
		DeviceID: req.DeviceID,
	}

	ctx, cancel := context.WithTimeout(c.Context(), s.cfg.DB.Timeout())
	defer cancel()

	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		log.Error().Err(err).Msg("comment: persist failed")

		return handler.ErrorJSON(c, fiber.StatusServiceUnavailable, "storage unavailable")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": comment.ID})
}

// PostCaptcha records a verified CAPTCHA solve for the calling identity,
// lifting any block and starting the verified window.
func (s *Service) PostCaptcha(c *fiber.Ctx) error {
	var req solveRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.ErrorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := handler.Validate.Struct(&req); err != nil {
		return handler.ErrorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.machine.MarkSolved(c.Context(), abuse.HashIP(c.IP()), req.DeviceID); err != nil {
		log.Error().Err(err).Msg("comment: captcha solve recording failed")

		return handler.ErrorJSON(c, fiber.StatusServiceUnavailable, "storage unavailable")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
