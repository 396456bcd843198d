package config

import "errors"

var (
	// ErrWebServerPortCanNotBeZero is returned when the webserver port is not configured.
	ErrWebServerPortCanNotBeZero = errors.New("webserver port can not be 0")

	// ErrEmptyURL is returned when the public base URL is not configured.
	ErrEmptyURL = errors.New("webserver url can not be empty")

	// ErrEmptySessionSecret is returned when no session signing secret is configured.
	ErrEmptySessionSecret = errors.New("webserver session secret can not be empty")
)
