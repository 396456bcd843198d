package models

import "time"

// CommentCaptchaSettingID is the id of the authoritative settings row.
// The table technically permits multiple rows; by convention the row with
// this fixed id is the only one read or written.
const CommentCaptchaSettingID uint64 = 1

// CommentCaptchaSetting is the process-wide switch gating whether the comment
// abuse state machine is consulted at all. A single logical row is
// authoritative (see CommentCaptchaSettingID).
type CommentCaptchaSetting struct {
	ID        uint64 `gorm:"primaryKey"`
	IsEnabled bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentCaptchaState is the abuse-tracking record for one (ipHash, deviceId)
// pair. Rows are created lazily on first sighting and never deleted.
type CommentCaptchaState struct {
	ID uint64 `gorm:"primaryKey"`
	// IPHash is a one-way hash of the caller's IP. The raw IP is never stored.
	IPHash string `gorm:"size:64;not null;uniqueIndex:idx_captcha_identity"`
	// DeviceID is the opaque client-supplied fingerprint.
	DeviceID string `gorm:"size:128;not null;uniqueIndex:idx_captcha_identity"`
	// TriggerCount counts unsolved challenges. It only increases, except on a
	// successful CAPTCHA solve which resets it to zero.
	TriggerCount int `gorm:"not null;default:0"`
	// VerifiedUntil, while in the future, marks the caller as trusted: no
	// challenge is required.
	VerifiedUntil *time.Time
	// BlockedUntil, while in the future, rejects the caller outright.
	// Blocked takes precedence over verified.
	BlockedUntil *time.Time
	// Version is the optimistic concurrency token for the read-modify-write
	// cycle; every state change must carry the version it was computed from.
	Version   uint64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Blocked reports whether the identity is inside a block window at the given time.
func (s *CommentCaptchaState) Blocked(now time.Time) bool {
	return s.BlockedUntil != nil && now.Before(*s.BlockedUntil)
}

// Verified reports whether the identity is inside a verify window at the
// given time. Blocked takes precedence and must be checked first.
func (s *CommentCaptchaState) Verified(now time.Time) bool {
	return s.VerifiedUntil != nil && now.Before(*s.VerifiedUntil)
}
