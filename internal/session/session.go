// Package session implements stateless admin session tokens.
//
// A session is a self-contained HS256-signed token carried in an HTTP-only
// cookie. There is no server-side session state and no revocation list: an
// issued token stays valid until its embedded expiry. This is a known
// limitation of the design, not an oversight; logout only clears the cookie.
package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/kotoba-blog/kotoba/internal/config"
)

// CookiePath scopes the session cookie to the admin area.
const CookiePath = "/admin"

// Claims are the admin session token claims.
type Claims struct {
	AdminID uint64 `json:"admin_id"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// Issue signs a session token for the given admin with the configured expiry.
func Issue(secret string, adminID uint64, email string, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		AdminID: adminID,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secret)) //nolint:wrapcheck
}

// Validate verifies a session token's signature and expiry and returns its
// claims. It is side-effect free and safe to call on every request. Any
// failure (bad signature, expired, malformed, wrong algorithm) yields
// ErrUnauthorized.
func Validate(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}

		return []byte(secret), nil
	})
	if err != nil {
		return nil, ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrUnauthorized
	}

	return claims, nil
}

// NewCookie builds the session cookie carrying the given token.
// HTTP-only, Secure (disabled in dev mode), SameSite Lax, scoped to the
// admin area.
func NewCookie(cfg *config.Config, token string) *fiber.Cookie {
	cookie := &fiber.Cookie{
		Name:     cfg.Webserver.Session.CookieName,
		Value:    token,
		Path:     CookiePath,
		MaxAge:   int(cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if cfg.DevMode {
		cookie.Secure = false
	}

	return cookie
}

// NewClearingCookie builds an already-expired cookie of the same name and
// path, used to destroy the session on logout. The past Expires is what
// actually deletes the cookie; a non-positive MaxAge alone is not serialized.
func NewClearingCookie(cfg *config.Config) *fiber.Cookie {
	cookie := NewCookie(cfg, "")
	cookie.MaxAge = -1
	cookie.Expires = time.Now().Add(-time.Hour)

	return cookie
}
