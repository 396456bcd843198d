package config

import (
	"path/filepath"
	"testing"
	"time"
)

func testConfigPath(t *testing.T) string {
	t.Helper()

	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	return filepath.Join(projectRoot, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(testConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should not be empty")
	}

	if cfg.Webserver.SessionSecret == "" {
		t.Error("Webserver.SessionSecret should not be empty")
	}

	if cfg.DB.GormEngine == "" {
		t.Error("DB.GormEngine should not be empty")
	}
}

func TestReadConfigDefaults(t *testing.T) {
	t.Setenv("KOTOBA_CONFIG_JSON", `{"Invite":{"ExpiryMinutes":0},"Captcha":{"TriggerThreshold":0,"BlockWindow":0,"VerifyWindow":0}}`)

	cfg, err := ReadConfig(testConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Invite.ExpiryMinutes != defaultInviteExpiryMinutes {
		t.Errorf("Invite.ExpiryMinutes = %d, want default %d", cfg.Invite.ExpiryMinutes, defaultInviteExpiryMinutes)
	}

	if cfg.Captcha.TriggerThreshold != defaultCaptchaTriggerThreshold {
		t.Errorf("Captcha.TriggerThreshold = %d, want default %d", cfg.Captcha.TriggerThreshold, defaultCaptchaTriggerThreshold)
	}

	if cfg.Captcha.BlockWindow != defaultCaptchaBlockWindow {
		t.Errorf("Captcha.BlockWindow = %s, want default %s", cfg.Captcha.BlockWindow, defaultCaptchaBlockWindow)
	}

	if cfg.Captcha.VerifyWindow != defaultCaptchaVerifyWindow {
		t.Errorf("Captcha.VerifyWindow = %s, want default %s", cfg.Captcha.VerifyWindow, defaultCaptchaVerifyWindow)
	}
}

func TestReadConfigClampsNegativeTuning(t *testing.T) {
	t.Setenv("KOTOBA_CONFIG_JSON",
		`{"Invite":{"ExpiryMinutes":-1},"Captcha":{"TriggerThreshold":-1,"BlockWindow":-1,"VerifyWindow":-1},"DB":{"QueryTimeout":-1}}`)

	cfg, err := ReadConfig(testConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Captcha.TriggerThreshold != defaultCaptchaTriggerThreshold {
		t.Errorf("Captcha.TriggerThreshold = %d, want default %d for a negative value",
			cfg.Captcha.TriggerThreshold, defaultCaptchaTriggerThreshold)
	}

	if cfg.Captcha.BlockWindow != defaultCaptchaBlockWindow {
		t.Errorf("Captcha.BlockWindow = %s, want default %s for a negative value",
			cfg.Captcha.BlockWindow, defaultCaptchaBlockWindow)
	}

	if cfg.Captcha.VerifyWindow != defaultCaptchaVerifyWindow {
		t.Errorf("Captcha.VerifyWindow = %s, want default %s for a negative value",
			cfg.Captcha.VerifyWindow, defaultCaptchaVerifyWindow)
	}

	if cfg.Invite.ExpiryMinutes != defaultInviteExpiryMinutes {
		t.Errorf("Invite.ExpiryMinutes = %d, want default %d for a negative value",
			cfg.Invite.ExpiryMinutes, defaultInviteExpiryMinutes)
	}

	if cfg.DB.QueryTimeout != defaultDBQueryTimeout {
		t.Errorf("DB.QueryTimeout = %s, want default %s for a negative value",
			cfg.DB.QueryTimeout, defaultDBQueryTimeout)
	}
}

func TestDBTimeoutFallback(t *testing.T) {
	var db DB

	if db.Timeout() != defaultDBQueryTimeout {
		t.Errorf("Timeout() = %s on a zero DB config, want default %s", db.Timeout(), defaultDBQueryTimeout)
	}

	db.QueryTimeout = time.Second
	if db.Timeout() != time.Second {
		t.Errorf("Timeout() = %s, want configured 1s", db.Timeout())
	}
}

func TestReadConfigEnvOverride(t *testing.T) {
	t.Setenv("KOTOBA_CONFIG_JSON", `{"Title":"Kotoba Override","Webserver":{"Session":{"ExpiryTime":3600000000000}}}`)

	cfg, err := ReadConfig(testConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title != "Kotoba Override" {
		t.Errorf("Title = %q, want env override", cfg.Title)
	}

	if cfg.Webserver.Session.ExpiryTime != time.Hour {
		t.Errorf("Session.ExpiryTime = %s, want 1h from env override", cfg.Webserver.Session.ExpiryTime)
	}
}
