package models

import "time"

// Comment is a visitor comment on a blog post. Moderation and rendering are
// handled elsewhere; this model carries only what the submission boundary
// persists.
type Comment struct {
	ID uint64 `gorm:"primaryKey"`
	// PostSlug identifies the post the comment belongs to.
	PostSlug string `gorm:"size:255;not null;index"`
	// Lang is the site language the comment was submitted under ("en", "ja", ...).
	Lang   string `gorm:"size:8;not null;default:'en'"`
	Author string `gorm:"size:100;not null"`
	Body   string `gorm:"type:text;not null"`
	// IPHash is the hashed submitter IP, matching the abuse-tracking key.
	IPHash string `gorm:"size:64;not null"`
	// DeviceID is the submitter's device fingerprint.
	DeviceID  string `gorm:"size:128;not null"`
	CreatedAt time.Time
}
