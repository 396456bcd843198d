// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/BurntSushi/toml"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv("KOTOBA_CONFIG_JSON")

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to merge config from environment")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate minimal config settings for kotoba.
// Missing tuning values fall back to safe defaults; hard requirements
// (port, public URL, session secret) fail loudly.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.SessionSecret == "" {
		return errors.Wrap(ErrEmptySessionSecret, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	if c.Webserver.Session.ExpiryTime <= 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Webserver.Session.CookieName == "" {
		c.Webserver.Session.CookieName = defaultSessionCookieName
	}

	if c.Invite.ExpiryMinutes <= 0 {
		c.Invite.ExpiryMinutes = defaultInviteExpiryMinutes
	}

	// non-positive tuning values fall back to defaults; a threshold of -1
	// would otherwise make the block-divisor zero in the abuse machine
	if c.Captcha.TriggerThreshold <= 0 {
		c.Captcha.TriggerThreshold = defaultCaptchaTriggerThreshold
	}

	if c.Captcha.BlockWindow <= 0 {
		c.Captcha.BlockWindow = defaultCaptchaBlockWindow
	}

	if c.Captcha.VerifyWindow <= 0 {
		c.Captcha.VerifyWindow = defaultCaptchaVerifyWindow
	}

	if c.DB.QueryTimeout <= 0 {
		c.DB.QueryTimeout = defaultDBQueryTimeout
	}

	return nil
}
