package config

import (
	"time"

	"github.com/kotoba-blog/kotoba/internal/logger"
)

const (
	defaultSessionExpiry     = 12 * time.Hour
	defaultSessionCookieName = "kotoba_admin_session"

	defaultInviteExpiryMinutes = 15

	defaultDBQueryTimeout = 5 * time.Second

	// Captcha escalation defaults. The thresholds and windows are an explicit
	// policy choice, tunable without redeployment; see the abuse package for
	// how they are applied.
	defaultCaptchaTriggerThreshold = 3
	defaultCaptchaBlockWindow      = 30 * time.Minute
	defaultCaptchaVerifyWindow     = 24 * time.Hour
)

// Session settings for admin session tokens.
type Session struct {
	ExpiryTime time.Duration
	CookieName string
}

// Invite settings for admin invitations.
type Invite struct {
	// ExpiryMinutes is how long an issued invitation stays redeemable.
	ExpiryMinutes int
}

// Captcha settings for the comment abuse state machine.
type Captcha struct {
	// TriggerThreshold is the number of unsolved challenges an identity may
	// accumulate before it is blocked.
	TriggerThreshold int
	// BlockWindow is how long a blocked identity is rejected outright.
	BlockWindow time.Duration
	// VerifyWindow is how long a successful CAPTCHA solve is trusted.
	VerifyWindow time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Invite    Invite
	Captcha   Captcha
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain        string  // domain name for the webserver
	Port          int     // listening port for the webserver
	ShutDownTime  int     // wait time for shutdown
	URL           string  // public base url, used to build absolute invitation links
	SessionSecret string  // HMAC secret for signing admin session tokens
	BootstrapMail string  // admin email a bootstrap invitation is issued for on first start
	Session       Session // session settings
}
