// Package login implements the admin login endpoint: password plus TOTP in
// one request, yielding a signed session cookie.
package login

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/db/models"
	"github.com/kotoba-blog/kotoba/internal/secrets"
	"github.com/kotoba-blog/kotoba/internal/session"
	"github.com/kotoba-blog/kotoba/internal/web/handler"
)

// Path is the login endpoint path. It lives under the admin prefix so the
// session cookie, which is scoped there, reaches it.
const Path = handler.AdminPathPrefix + "/login"

type request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	TOTPCode string `json:"totp_code"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the login handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	app.Post(Path, s.Post)

	return nil
}

// Post handles the login request. All password-stage failures share one
// generic message; the reason is only logged. The TOTP stage additionally
// rejects a code for a time step that was already accepted once, so a
// captured code cannot be replayed inside its validity window.
func (s *Service) Post(c *fiber.Ctx) error {
	var req request

	if err := c.BodyParser(&req); err != nil {
		return handler.ErrorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := handler.Validate.Struct(&req); err != nil {
		return handler.ErrorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Context(), s.cfg.DB.Timeout())
	defer cancel()

	var user models.AdminUser

	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Msg("login: account lookup failed")
		} else {
			log.Info().Str("email", req.Email).Msg("login rejected: unknown email")
		}

		return handler.ErrorJSON(c, fiber.StatusUnauthorized, ErrInvalidCredentials.Error())
	}

	if !user.VerifyPassword(req.Password) {
		log.Info().Str("email", req.Email).Msg("login rejected: wrong password")

		return handler.ErrorJSON(c, fiber.StatusUnauthorized, ErrInvalidCredentials.Error())
	}

	if user.TOTPEnrolled() {
		now := time.Now().UTC()
		step := secrets.TOTPStep(now)

		if !secrets.VerifyTOTPCode(user.TOTPSecret, req.TOTPCode, now) {
			log.Info().Str("email", req.Email).Msg("login rejected: totp code invalid")

			return handler.ErrorJSON(c, fiber.StatusUnauthorized, ErrInvalidTOTP.Error())
		}

		// claim the time step in one conditional write; of two concurrent
		// logins presenting the same code, exactly one advances the row and
		// the other observes a replay
		result := s.db.WithContext(ctx).Model(&user).
			Where("totp_last_step < ?", step).
			Update("totp_last_step", step)
		if result.Error != nil {
			log.Error().Err(result.Error).Msg("login: failed to persist totp step")

			return handler.ErrorJSON(c, fiber.StatusInternalServerError, "internal server error")
		}

		if result.RowsAffected == 0 {
			log.Info().Str("email", req.Email).Msg("login rejected: totp step replayed")

			return handler.ErrorJSON(c, fiber.StatusUnauthorized, ErrInvalidTOTP.Error())
		}
	}

	token, err := session.Issue(s.cfg.Webserver.SessionSecret, user.ID, user.Email, s.cfg.Webserver.Session.ExpiryTime)
	if err != nil {
		log.Error().Err(err).Msg("login: failed to sign session token")

		return handler.ErrorJSON(c, fiber.StatusInternalServerError, "internal server error")
	}

	c.Cookie(session.NewCookie(s.cfg, token))
	log.Info().Str("email", user.Email).Msg("admin logged in")

	return c.JSON(fiber.Map{"id": user.ID, "email": user.Email})
}
