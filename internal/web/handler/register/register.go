// Package register implements invitation redemption: the invited person sets
// a password, the account is created and TOTP enrollment material is returned
// exactly once.
package register

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/invite"
	"github.com/kotoba-blog/kotoba/internal/secrets"
	"github.com/kotoba-blog/kotoba/internal/web/handler"
)

// Path is the registration endpoint path. It matches the link shape produced
// by invite.Link.
const Path = "/register"

// totpIssuer is shown in authenticator apps next to the account.
const totpIssuer = "Kotoba"

type request struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// Service is the registration handler service.
type Service struct {
	handler.Service
	cfg     *config.Config
	manager *invite.Manager
}

// Handler is the registration handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the registration handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.manager = invite.NewManager(db, cfg)

	app.Get(Path, s.Get)
	app.Post(Path, s.Post)

	return nil
}

// Get resolves the invitation behind a registration link so the form can show
// the invited email. The invitation is not consumed.
func (s *Service) Get(c *fiber.Ctx) error {
	invitation, err := s.manager.Lookup(c.Context(), c.Query("token"))
	if err != nil {
		return invitationError(c, err)
	}

	return c.JSON(fiber.Map{"email": invitation.Email, "expires_at": invitation.ExpiresAt})
}

// Post redeems the invitation. The TOTP secret is generated server-side and
// the otpauth provisioning URL is part of this response only; it cannot be
// retrieved again.
func (s *Service) Post(c *fiber.Ctx) error {
	var req request

	if err := c.BodyParser(&req); err != nil {
		return handler.ErrorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := handler.Validate.Struct(&req); err != nil {
		return handler.ErrorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	invitation, err := s.manager.Lookup(c.Context(), req.Token)
	if err != nil {
		return invitationError(c, err)
	}

	key, err := secrets.GenerateTOTPSecret(totpIssuer, invitation.Email)
	if err != nil {
		log.Error().Err(err).Msg("register: totp key generation failed")

		return handler.ErrorJSON(c, fiber.StatusInternalServerError, "internal server error")
	}

	user, err := s.manager.Redeem(c.Context(), req.Token, req.Password, key.Secret())
	if err != nil {
		return invitationError(c, err)
	}

	log.Info().Str("email", user.Email).Msg("admin account created from invitation")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":          user.ID,
		"email":       user.Email,
		"otpauth_url": key.URL(),
	})
}

func invitationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, invite.ErrInvitationNotFound):
		return handler.ErrorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, invite.ErrInvitationExpired):
		return handler.ErrorJSON(c, fiber.StatusGone, err.Error())
	case errors.Is(err, invite.ErrInvitationAlreadyUsed):
		return handler.ErrorJSON(c, fiber.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("register: invitation processing failed")

		return handler.ErrorJSON(c, fiber.StatusInternalServerError, "internal server error")
	}
}
