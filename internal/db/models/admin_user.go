// Package models contains database model definitions.
package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// AdminUser represents a back-office operator account.
// Accounts are created exclusively by redeeming an AdminInvitation and are
// never hard-deleted.
type AdminUser struct {
	// ID is the unique identifier for the admin user.
	ID uint64 `gorm:"primaryKey"`
	// Email is the unique login identifier, stored case-sensitive.
	Email string `gorm:"unique;size:255;not null"`
	// PasswordHash is the Argon2id hashed password. Never reversible.
	PasswordHash string `gorm:"size:255;not null"`
	// TOTPSecret is the base32 shared secret for the second factor.
	// An empty string means 2FA is not yet provisioned. After enrollment the
	// secret is never exposed again.
	TOTPSecret string `gorm:"size:64"`
	// TOTPLastStep is the last accepted TOTP time-step, kept to reject code
	// replay within the validity window.
	TOTPLastStep int64
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating admin accounts or rotating
// passwords. It uses the default Argon2id parameters.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the stored hash.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (u *AdminUser) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.PasswordHash)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}

// TOTPEnrolled reports whether a second factor has been provisioned.
func (u *AdminUser) TOTPEnrolled() bool {
	return u.TOTPSecret != ""
}
