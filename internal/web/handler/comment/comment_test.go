package comment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/abuse"
	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/db/models"
)

const commentBody = `{"post_slug":"first-post","lang":"en","author":"Reader",` +
	`"body":"Nice write-up.","device_id":"device-1"}`

func newTestService(t *testing.T) (*fiber.App, *gorm.DB, *abuse.Machine) {
	t.Helper()

	cfg := &config.Config{DevMode: true}
	cfg.Captcha.TriggerThreshold = 3
	cfg.Captcha.BlockWindow = 30 * time.Minute
	cfg.Captcha.VerifyWindow = 24 * time.Hour

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.CommentCaptchaSetting{},
		&models.CommentCaptchaState{},
		&models.Comment{},
	))

	app := fiber.New()

	var s Service
	require.NoError(t, s.Init(app, cfg, db))

	return app, db, abuse.NewMachine(db, cfg)
}

func performPost(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func commentCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)

	return count
}

func TestPostWithPolicyDisabled(t *testing.T) {
	app, db, _ := newTestService(t)

	resp := performPost(t, app, Path, commentBody)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, int64(1), commentCount(t, db))

	var stored models.Comment
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "first-post", stored.PostSlug)
	assert.NotEmpty(t, stored.IPHash)
	assert.NotContains(t, stored.IPHash, ".", "the raw IP is never stored")
}

func TestPostChallengedWhenPolicyEnabled(t *testing.T) {
	app, db, machine := newTestService(t)
	require.NoError(t, machine.SetEnabled(context.Background(), true))

	resp := performPost(t, app, Path, commentBody)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	assert.Equal(t, int64(0), commentCount(t, db), "a challenged comment is not persisted")
}

func TestPostAllowedAfterSolve(t *testing.T) {
	app, db, machine := newTestService(t)
	require.NoError(t, machine.SetEnabled(context.Background(), true))

	challenged := performPost(t, app, Path, commentBody)
	defer func() { _ = challenged.Body.Close() }()
	require.Equal(t, http.StatusPreconditionRequired, challenged.StatusCode)

	solved := performPost(t, app, CaptchaPath, `{"device_id":"device-1"}`)
	defer func() { _ = solved.Body.Close() }()
	require.Equal(t, http.StatusNoContent, solved.StatusCode)

	accepted := performPost(t, app, Path, commentBody)
	defer func() { _ = accepted.Body.Close() }()
	assert.Equal(t, http.StatusCreated, accepted.StatusCode)
	assert.Equal(t, int64(1), commentCount(t, db))
}

func TestPostBlockedAfterRepeatedChallenges(t *testing.T) {
	app, _, machine := newTestService(t)
	require.NoError(t, machine.SetEnabled(context.Background(), true))

	for i := 0; i < 3; i++ {
		resp := performPost(t, app, Path, commentBody)
		require.Equal(t, http.StatusPreconditionRequired, resp.StatusCode, "attempt %d", i+1)
		_ = resp.Body.Close()
	}

	blocked := performPost(t, app, Path, commentBody)
	defer func() { _ = blocked.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, blocked.StatusCode)

	// solving the challenge lifts the block
	solved := performPost(t, app, CaptchaPath, `{"device_id":"device-1"}`)
	defer func() { _ = solved.Body.Close() }()
	require.Equal(t, http.StatusNoContent, solved.StatusCode)

	accepted := performPost(t, app, Path, commentBody)
	defer func() { _ = accepted.Body.Close() }()
	assert.Equal(t, http.StatusCreated, accepted.StatusCode)
}

func TestPostFailsClosedOnStorageError(t *testing.T) {
	app, db, machine := newTestService(t)
	require.NoError(t, machine.SetEnabled(context.Background(), true))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resp := performPost(t, app, Path, commentBody)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPostInvalidLang(t *testing.T) {
	app, _, _ := newTestService(t)

	resp := performPost(t, app, Path,
		`{"post_slug":"p","lang":"fr","author":"A","body":"B","device_id":"d"}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostCaptchaMissingDevice(t *testing.T) {
	app, _, _ := newTestService(t)

	resp := performPost(t, app, CaptchaPath, `{}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
