// Package auth contains the session-cookie authentication middleware for the
// admin area. It is deliberately free of storage access: a session token is
// self-contained and validating it touches only the signing secret.
package auth
