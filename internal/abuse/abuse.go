// Package abuse implements the comment anti-abuse state machine.
//
// Per (ipHash, deviceId) identity it tracks a challenge counter and two time
// windows: verifiedUntil (trusted, no challenge) and blockedUntil (rejected
// outright, takes precedence). State lives in the database only; every
// evaluation re-reads it, and the read-modify-write is applied through an
// optimistic compare-and-set loop so concurrent bursts cannot race past the
// block threshold.
//
// Escalation policy: an identity is blocked whenever its trigger counter
// reaches a multiple of (threshold+1) unsolved challenges. With threshold 3
// that means attempts 1-3 are challenged, attempt 4 blocks; after the block
// window elapses the counter continues where it was and the identity is
// re-blocked after another threshold+1 unsolved challenges. The counter is
// only reset by a successful CAPTCHA solve, never by mere time passing, so
// repeat offenders escalate faster. These thresholds and windows are
// configuration, not code.
package abuse

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/db/controller/captcha"
)

// casRetries bounds the compare-and-set retry loop before the operation is
// surfaced as a transient storage failure.
const casRetries = 3

// ErrStorageUnavailable is returned when the abuse state cannot be read or
// written, including CAS loop exhaustion. Callers must fail closed: reject
// or challenge, never allow.
var ErrStorageUnavailable = errors.New("abuse state storage unavailable")

// Machine evaluates comment attempts against per-identity abuse state.
type Machine struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewMachine creates a new abuse state machine.
func NewMachine(db *gorm.DB, cfg *config.Config) *Machine {
	return &Machine{db: db, cfg: cfg}
}

// boundCtx derives the deadline every storage operation runs under. The
// request context alone carries none; a hung database must turn into an
// ErrStorageUnavailable rejection, not an indefinite stall.
func (m *Machine) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.cfg.DB.Timeout())
}

// Enabled reports whether the CAPTCHA policy switch is on. The setting is
// read per request, never cached, so toggling it takes effect immediately on
// every instance.
func (m *Machine) Enabled(ctx context.Context) (bool, error) {
	ctx, cancel := m.boundCtx(ctx)
	defer cancel()

	setting, err := captcha.GetSetting(m.db.WithContext(ctx))
	if err != nil {
		return false, errors.Join(ErrStorageUnavailable, err)
	}

	return setting.IsEnabled, nil
}

// SetEnabled flips the CAPTCHA policy switch.
func (m *Machine) SetEnabled(ctx context.Context, enabled bool) error {
	ctx, cancel := m.boundCtx(ctx)
	defer cancel()

	if err := captcha.SetEnabled(m.db.WithContext(ctx), enabled); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}

	return nil
}

// Check evaluates one comment attempt for the given identity and updates the
// state accordingly. Blocked identities are rejected without touching the
// counter; verified identities pass without a challenge; everyone else is
// challenged, and crossing the threshold starts a block window.
func (m *Machine) Check(ctx context.Context, ipHash, deviceID string) (Decision, error) {
	ctx, cancel := m.boundCtx(ctx)
	defer cancel()

	db := m.db.WithContext(ctx)

	for attempt := 0; attempt < casRetries; attempt++ {
		now := time.Now().UTC()

		state, err := captcha.GetOrCreateState(db, ipHash, deviceID)
		if err != nil {
			return DecisionBlocked, errors.Join(ErrStorageUnavailable, err)
		}

		if state.Blocked(now) {
			countDecision(DecisionBlocked)
			return DecisionBlocked, nil
		}

		if state.Verified(now) {
			countDecision(DecisionAllowed)
			return DecisionAllowed, nil
		}

		newCount := state.TriggerCount + 1
		decision := DecisionChallengeRequired
		updates := map[string]any{"trigger_count": newCount}

		if newCount%(m.cfg.Captcha.TriggerThreshold+1) == 0 {
			updates["blocked_until"] = now.Add(m.cfg.Captcha.BlockWindow)
			decision = DecisionBlocked
		}

		err = captcha.UpdateStateCAS(db, state, updates)
		if err == nil {
			countDecision(decision)
			return decision, nil
		}

		if !errors.Is(err, captcha.ErrStateConflict) {
			return DecisionBlocked, errors.Join(ErrStorageUnavailable, err)
		}
		// lost the race; re-read and retry
	}

	return DecisionBlocked, ErrStorageUnavailable
}

// MarkSolved records a successful CAPTCHA solve for the identity: the
// identity is trusted for the verify window, the challenge counter resets
// and any pending block is lifted.
func (m *Machine) MarkSolved(ctx context.Context, ipHash, deviceID string) error {
	ctx, cancel := m.boundCtx(ctx)
	defer cancel()

	db := m.db.WithContext(ctx)

	for attempt := 0; attempt < casRetries; attempt++ {
		state, err := captcha.GetOrCreateState(db, ipHash, deviceID)
		if err != nil {
			return errors.Join(ErrStorageUnavailable, err)
		}

		err = captcha.UpdateStateCAS(db, state, map[string]any{
			"verified_until": time.Now().UTC().Add(m.cfg.Captcha.VerifyWindow),
			"trigger_count":  0,
			"blocked_until":  nil,
		})
		if err == nil {
			return nil
		}

		if !errors.Is(err, captcha.ErrStateConflict) {
			return errors.Join(ErrStorageUnavailable, err)
		}
	}

	return ErrStorageUnavailable
}

// HashIP returns the hex encoded SHA-256 hash of a raw client IP. Only the
// hash ever reaches storage; the raw IP is dropped at the boundary.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}
