// Package captcha provides storage operations for the comment CAPTCHA
// policy switch and the per-identity abuse-tracking state.
package captcha

import (
	"errors"

	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/db/models"
)

const identityQueryPattern = "ip_hash = ? AND device_id = ?"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrStateConflict is returned when a conditional state update lost a
	// concurrent race; the caller re-reads and retries.
	ErrStateConflict = errors.New("captcha state was modified concurrently")
)

// GetSetting retrieves the authoritative policy switch row, creating the
// default disabled row if none exists yet.
func GetSetting(db *gorm.DB) (*models.CommentCaptchaSetting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	setting := models.CommentCaptchaSetting{ID: models.CommentCaptchaSettingID}

	result := db.Where("id = ?", models.CommentCaptchaSettingID).FirstOrCreate(&setting)
	if result.Error != nil {
		return nil, result.Error
	}

	return &setting, nil
}

// SetEnabled upserts the policy switch row with the given value.
func SetEnabled(db *gorm.DB, enabled bool) error {
	if db == nil {
		return ErrDBNil
	}

	setting, err := GetSetting(db)
	if err != nil {
		return err
	}

	setting.IsEnabled = enabled

	return db.Save(setting).Error //nolint:wrapcheck
}

// GetOrCreateState returns the abuse-tracking row for the given identity,
// creating it lazily on first sighting. A concurrent creation race is
// resolved by re-reading the winner's row.
func GetOrCreateState(db *gorm.DB, ipHash, deviceID string) (*models.CommentCaptchaState, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var state models.CommentCaptchaState

	err := db.Where(identityQueryPattern, ipHash, deviceID).First(&state).Error
	if err == nil {
		return &state, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err //nolint:wrapcheck
	}

	state = models.CommentCaptchaState{
		IPHash:   ipHash,
		DeviceID: deviceID,
	}

	if createErr := db.Create(&state).Error; createErr != nil {
		// unique index violation: another request created the row first
		if readErr := db.Where(identityQueryPattern, ipHash, deviceID).First(&state).Error; readErr != nil {
			return nil, createErr //nolint:wrapcheck
		}
	}

	return &state, nil
}

// UpdateStateCAS applies updates to the state row conditional on its version
// being unchanged since it was read. The version is bumped as part of the
// update. Returns ErrStateConflict when the row moved underneath the caller.
func UpdateStateCAS(db *gorm.DB, state *models.CommentCaptchaState, updates map[string]any) error {
	if db == nil {
		return ErrDBNil
	}

	updates["version"] = state.Version + 1

	result := db.Model(&models.CommentCaptchaState{}).
		Where("id = ? AND version = ?", state.ID, state.Version).
		Updates(updates)
	if result.Error != nil {
		return result.Error //nolint:wrapcheck
	}

	if result.RowsAffected == 0 {
		return ErrStateConflict
	}

	return nil
}
