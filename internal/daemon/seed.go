package daemon

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/db/models"
	"github.com/kotoba-blog/kotoba/internal/invite"
)

// seed makes a fresh installation reachable. There is no default account with
// a well-known password: when no admin exists, a bootstrap invitation for the
// configured email is issued and its registration link is logged once.
func seed(cfg *config.Config, db *gorm.DB) {
	var admins int64
	if err := db.Model(&models.AdminUser{}).Count(&admins).Error; err != nil {
		log.Error().Err(err).Msg("seed: admin count failed")
		return
	}

	if admins > 0 {
		return
	}

	if cfg.Webserver.BootstrapMail == "" {
		log.Warn().Msg("no admin account exists and Webserver.BootstrapMail is unset; use the invite command to provision one")
		return
	}

	// a restart must not mint a new link while a live one is out
	var pending int64
	err := db.Model(&models.AdminInvitation{}).
		Where("email = ? AND used_at IS NULL AND expires_at > ?", cfg.Webserver.BootstrapMail, time.Now().UTC()).
		Count(&pending).Error
	if err != nil {
		log.Error().Err(err).Msg("seed: invitation lookup failed")
		return
	}

	if pending > 0 {
		log.Info().Str("email", cfg.Webserver.BootstrapMail).Msg("bootstrap invitation still pending")
		return
	}

	raw, invitation, err := invite.NewManager(db, cfg).Issue(context.Background(), cfg.Webserver.BootstrapMail, 0)
	if err != nil {
		log.Error().Err(err).Msg("seed: bootstrap invitation failed")
		return
	}

	log.Info().
		Str("email", invitation.Email).
		Time("expires_at", invitation.ExpiresAt).
		Str("link", invite.Link(cfg.Webserver.URL, raw)).
		Msg("no admin account exists; register through the bootstrap invitation link")
}
