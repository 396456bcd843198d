// Package invite implements single-use, time-limited admin invitations.
//
// An invitation is the only way an AdminUser comes into existence. Only the
// hash of the bearer token is persisted; the raw token is returned to the
// issuer exactly once and embedded into the emailed registration link.
package invite

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/db/models"
	"github.com/kotoba-blog/kotoba/internal/secrets"
)

// Manager issues and redeems admin invitations.
type Manager struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewManager creates a new invitation manager.
func NewManager(db *gorm.DB, cfg *config.Config) *Manager {
	return &Manager{db: db, cfg: cfg}
}

// boundCtx puts a deadline on every storage operation so a hung database
// fails the call instead of blocking it indefinitely.
func (m *Manager) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.cfg.DB.Timeout())
}

// Issue creates a new invitation for the given email, persisting only the
// token hash. The raw token is returned once and cannot be recovered from
// storage afterwards. Repeated calls for the same email create independent
// invitations.
func (m *Manager) Issue(ctx context.Context, email string, issuerID uint64) (string, *models.AdminInvitation, error) {
	if email == "" {
		return "", nil, ErrEmailEmpty
	}

	raw, err := secrets.GenerateToken()
	if err != nil {
		return "", nil, err
	}

	ctx, cancel := m.boundCtx(ctx)
	defer cancel()

	invitation := &models.AdminInvitation{
		Email:     email,
		TokenHash: secrets.HashToken(raw),
		ExpiresAt: time.Now().UTC().Add(time.Duration(m.cfg.Invite.ExpiryMinutes) * time.Minute),
		CreatedBy: issuerID,
	}

	if err := m.db.WithContext(ctx).Create(invitation).Error; err != nil {
		return "", nil, err //nolint:wrapcheck
	}

	return raw, invitation, nil
}

// Lookup finds a still-redeemable invitation by its raw token without
// consuming it. Registration uses it to resolve the invited email before the
// account is created; the redeem transaction re-checks everything, so a
// token going stale between Lookup and Redeem is handled there.
func (m *Manager) Lookup(ctx context.Context, rawToken string) (*models.AdminInvitation, error) {
	var invitation models.AdminInvitation

	ctx, cancel := m.boundCtx(ctx)
	defer cancel()

	err := m.db.WithContext(ctx).Where("token_hash = ?", secrets.HashToken(rawToken)).First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}

		return nil, err //nolint:wrapcheck
	}

	if invitation.Used() {
		return nil, ErrInvitationAlreadyUsed
	}

	if invitation.Expired(time.Now().UTC()) {
		return nil, ErrInvitationExpired
	}

	return &invitation, nil
}

// Redeem converts an invitation into an AdminUser. The new account and the
// used-marker are written in one transaction: the conditional update on
// used_at decides a concurrent race, so two redemptions of the same token
// yield exactly one account and the loser sees ErrInvitationAlreadyUsed.
func (m *Manager) Redeem(ctx context.Context, rawToken, password, totpSecret string) (*models.AdminUser, error) {
	var user models.AdminUser

	hash := secrets.HashToken(rawToken)
	now := time.Now().UTC()

	ctx, cancel := m.boundCtx(ctx)
	defer cancel()

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invitation models.AdminInvitation

		if err := tx.Where("token_hash = ?", hash).First(&invitation).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvitationNotFound
			}

			return err //nolint:wrapcheck
		}

		if invitation.Used() {
			return ErrInvitationAlreadyUsed
		}

		if invitation.Expired(now) {
			return ErrInvitationExpired
		}

		result := tx.Model(&models.AdminInvitation{}).
			Where("id = ? AND used_at IS NULL", invitation.ID).
			Update("used_at", now)
		if result.Error != nil {
			return result.Error //nolint:wrapcheck
		}

		if result.RowsAffected == 0 {
			return ErrInvitationAlreadyUsed
		}

		user = models.AdminUser{
			Email:        invitation.Email,
			PasswordHash: models.HashPassword(password),
			TOTPSecret:   totpSecret,
		}

		return tx.Create(&user).Error //nolint:wrapcheck
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Link builds the absolute registration URL for a raw invitation token. The
// token rides as a query parameter; the shape must stay stable because it is
// embedded into emailed links.
func Link(baseURL, rawToken string) string {
	return strings.TrimRight(baseURL, "/") + "/register?token=" + url.QueryEscape(rawToken)
}
