package register

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/db/models"
	"github.com/kotoba-blog/kotoba/internal/invite"
	"github.com/kotoba-blog/kotoba/internal/secrets"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.AdminUser{}, &models.AdminInvitation{}))

	return db
}

func newTestService(t *testing.T) (*fiber.App, *gorm.DB, *invite.Manager) {
	t.Helper()

	cfg := &config.Config{DevMode: true}
	cfg.Invite.ExpiryMinutes = 15

	app := fiber.New()
	db := newTestDB(t)

	var s Service
	require.NoError(t, s.Init(app, cfg, db))

	return app, db, invite.NewManager(db, cfg)
}

func performPost(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func TestGetResolvesInvitation(t *testing.T) {
	app, _, manager := newTestService(t)

	raw, _, err := manager.Issue(context.Background(), "invited@example.com", 1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, Path+"?token="+url.QueryEscape(raw), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invited@example.com", body.Email)
}

func TestGetUnknownToken(t *testing.T) {
	app, _, _ := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, Path+"?token=bogus", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostCreatesAccountWithTOTPEnrollment(t *testing.T) {
	app, db, manager := newTestService(t)

	raw, _, err := manager.Issue(context.Background(), "invited@example.com", 1)
	require.NoError(t, err)

	resp := performPost(t, app, `{"token":"`+raw+`","password":"correct horse battery"}`)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Email      string `json:"email"`
		OTPAuthURL string `json:"otpauth_url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "invited@example.com", body.Email)
	assert.Contains(t, body.OTPAuthURL, "otpauth://totp/")

	var user models.AdminUser
	require.NoError(t, db.Where("email = ?", "invited@example.com").First(&user).Error)

	assert.True(t, user.VerifyPassword("correct horse battery"))
	assert.True(t, user.TOTPEnrolled())

	// the stored secret matches the provisioning URL handed out
	parsed, err := url.Parse(body.OTPAuthURL)
	require.NoError(t, err)
	assert.Equal(t, user.TOTPSecret, parsed.Query().Get("secret"))
	assert.True(t, secrets.VerifyTOTPCode(user.TOTPSecret, currentCode(t, user.TOTPSecret), time.Now().UTC()))
}

func TestPostSecondRedemptionConflicts(t *testing.T) {
	app, _, manager := newTestService(t)

	raw, _, err := manager.Issue(context.Background(), "invited@example.com", 1)
	require.NoError(t, err)

	first := performPost(t, app, `{"token":"`+raw+`","password":"first password"}`)
	defer func() { _ = first.Body.Close() }()
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second := performPost(t, app, `{"token":"`+raw+`","password":"second password"}`)
	defer func() { _ = second.Body.Close() }()
	assert.Equal(t, http.StatusConflict, second.StatusCode)
}

func TestPostExpiredInvitation(t *testing.T) {
	app, db, manager := newTestService(t)

	raw, invitation, err := manager.Issue(context.Background(), "late@example.com", 1)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.AdminInvitation{}).
		Where("id = ?", invitation.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	resp := performPost(t, app, `{"token":"`+raw+`","password":"whatever password"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestPostWeakPassword(t *testing.T) {
	app, _, manager := newTestService(t)

	raw, _, err := manager.Issue(context.Background(), "invited@example.com", 1)
	require.NoError(t, err)

	resp := performPost(t, app, `{"token":"`+raw+`","password":"short"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func currentCode(t *testing.T, secret string) string {
	t.Helper()

	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)

	return code
}
