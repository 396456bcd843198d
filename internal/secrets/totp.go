package secrets

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// totpPeriod is the TOTP time-step length in seconds.
	totpPeriod = 30
	// totpDigits is the code length.
	totpDigits = 6
	// totpSecretSize is the shared secret size in bytes before base32 encoding.
	totpSecretSize = 20
)

// GenerateTOTPSecret creates a new TOTP enrollment key for the given account.
// The returned key carries the base32 secret and the otpauth:// provisioning
// URL used for QR enrollment.
func GenerateTOTPSecret(issuer, account string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{ //nolint:wrapcheck
		Issuer:      issuer,
		AccountName: account,
		SecretSize:  totpSecretSize,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
}

// VerifyTOTPCode checks a time-based one-time-password code against the
// shared secret at the given time, tolerating one time-step of clock skew in
// either direction. Malformed codes and empty secrets are rejected without
// computing a code; comparison inside the library is constant time.
func VerifyTOTPCode(secret, code string, now time.Time) bool {
	if secret == "" || !wellFormedCode(code) {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}

	return ok
}

// TOTPStep returns the TOTP time-step counter for the given time. Stored per
// account after a successful login so an accepted code cannot be replayed
// within its validity window.
func TOTPStep(now time.Time) int64 {
	return now.Unix() / totpPeriod
}

func wellFormedCode(code string) bool {
	if len(code) != totpDigits {
		return false
	}

	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
