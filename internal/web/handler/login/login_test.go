package login

import (
	"net/http"
	"net/http/httptest"
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
	"github.com/kotoba-blog/kotoba/internal/secrets"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.AdminUser{}))

	return db
}

func newTestConfig() *config.Config {
	cfg := &config.Config{DevMode: true}
	cfg.Webserver.SessionSecret = "test-signing-secret"
	cfg.Webserver.Session.ExpiryTime = time.Hour
	cfg.Webserver.Session.CookieName = "kotoba_admin_session"

	return cfg
}

func newTestService(t *testing.T) (*Service, *fiber.App, *gorm.DB) {
	t.Helper()

	app := fiber.New()
	db := newTestDB(t)

	var s Service
	require.NoError(t, s.Init(app, newTestConfig(), db))

	return &s, app, db
}

func createAdmin(t *testing.T, db *gorm.DB, email, password string, withTOTP bool) *models.AdminUser {
	t.Helper()

	user := &models.AdminUser{
		Email:        email,
		PasswordHash: models.HashPassword(password),
	}

	if withTOTP {
		key, err := secrets.GenerateTOTPSecret("Kotoba", email)
		require.NoError(t, err)

		user.TOTPSecret = key.Secret()
	}

	require.NoError(t, db.Create(user).Error)

	return user
}

func currentCode(t *testing.T, secret string) string {
	t.Helper()

	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)

	return code
}

func performLogin(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func TestPostSuccessSetsSessionCookie(t *testing.T) {
	_, app, db := newTestService(t)
	user := createAdmin(t, db, "admin@example.com", "correct horse", true)

	resp := performLogin(t, app,
		`{"email":"admin@example.com","password":"correct horse","totp_code":"`+currentCode(t, user.TOTPSecret)+`"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	setCookie := resp.Header.Get("Set-Cookie")
	assert.Contains(t, setCookie, "kotoba_admin_session=")
	assert.Contains(t, setCookie, "Path=/admin")
	assert.Contains(t, strings.ToLower(setCookie), "httponly")
}

func TestPostUnknownEmail(t *testing.T) {
	_, app, _ := newTestService(t)

	resp := performLogin(t, app, `{"email":"nobody@example.com","password":"whatever"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Set-Cookie"))
}

func TestPostWrongPassword(t *testing.T) {
	_, app, db := newTestService(t)
	createAdmin(t, db, "admin@example.com", "correct horse", false)

	resp := performLogin(t, app, `{"email":"admin@example.com","password":"battery staple"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPostWrongTOTPCode(t *testing.T) {
	_, app, db := newTestService(t)
	createAdmin(t, db, "admin@example.com", "correct horse", true)

	resp := performLogin(t, app,
		`{"email":"admin@example.com","password":"correct horse","totp_code":"000000"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Set-Cookie"))
}

func TestPostTOTPReplayRejected(t *testing.T) {
	_, app, db := newTestService(t)
	user := createAdmin(t, db, "admin@example.com", "correct horse", true)

	body := `{"email":"admin@example.com","password":"correct horse","totp_code":"` +
		currentCode(t, user.TOTPSecret) + `"}`

	first := performLogin(t, app, body)
	defer func() { _ = first.Body.Close() }()
	require.Equal(t, http.StatusOK, first.StatusCode)

	// the same code inside the same time step must not work twice
	second := performLogin(t, app, body)
	defer func() { _ = second.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, second.StatusCode)
}

func TestPostTOTPStepAlreadyClaimed(t *testing.T) {
	_, app, db := newTestService(t)
	user := createAdmin(t, db, "admin@example.com", "correct horse", true)

	// another login already claimed the current time step; a valid code for
	// the same step must lose the conditional update and be treated as replay
	step := secrets.TOTPStep(time.Now().UTC())
	require.NoError(t, db.Model(user).Update("totp_last_step", step).Error)

	resp := performLogin(t, app,
		`{"email":"admin@example.com","password":"correct horse","totp_code":"`+currentCode(t, user.TOTPSecret)+`"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Set-Cookie"))
}

func TestPostWithoutEnrolledTOTP(t *testing.T) {
	_, app, db := newTestService(t)
	createAdmin(t, db, "admin@example.com", "correct horse", false)

	resp := performLogin(t, app, `{"email":"admin@example.com","password":"correct horse"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPostMalformedBody(t *testing.T) {
	_, app, _ := newTestService(t)

	resp := performLogin(t, app, `{`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostMissingFields(t *testing.T) {
	_, app, _ := newTestService(t)

	resp := performLogin(t, app, `{"email":"not-an-email","password":""}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
