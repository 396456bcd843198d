package models

import "time"

// AdminInvitation is a single-use credential allowing someone to create
// exactly one AdminUser. Only the hash of the bearer token is stored; the raw
// token is handed to the invited recipient once and cannot be recovered.
type AdminInvitation struct {
	// ID is the unique identifier for the invitation.
	ID uint64 `gorm:"primaryKey"`
	// Email is the intended recipient. Multiple open invitations may exist
	// for the same address.
	Email string `gorm:"size:255;not null"`
	// TokenHash is the SHA-256 hash of the bearer token.
	TokenHash string `gorm:"uniqueIndex;size:64;not null"`
	// ExpiresAt is when the invitation stops being redeemable.
	ExpiresAt time.Time `gorm:"not null"`
	// UsedAt is set exactly once upon successful redemption and is immutable
	// afterwards. Nil until redeemed.
	UsedAt *time.Time
	// CreatedBy is the issuing AdminUser id. Zero for invitations issued from
	// the command line.
	CreatedBy uint64
	// CreatedAt is the timestamp when the invitation was issued (managed by GORM).
	CreatedAt time.Time
}

// Used reports whether the invitation has been redeemed.
func (i *AdminInvitation) Used() bool {
	return i.UsedAt != nil
}

// Expired reports whether the invitation expired at the given time.
func (i *AdminInvitation) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Redeemable reports whether the invitation can still be redeemed at the
// given time.
func (i *AdminInvitation) Redeemable(now time.Time) bool {
	return !i.Used() && !i.Expired(now)
}
