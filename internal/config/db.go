package config

import "time"

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string // "mysql" or "sqlite"
	SQLitePath string // file path when GormEngine is "sqlite"

	// QueryTimeout bounds every storage operation issued by the access-control
	// core. No call may block indefinitely: a hung database fails the request
	// closed instead of stalling it.
	QueryTimeout time.Duration
}

// Timeout returns the configured storage timeout, falling back to the default
// when the config was built by hand and never ran through validate.
func (d *DB) Timeout() time.Duration {
	if d.QueryTimeout > 0 {
		return d.QueryTimeout
	}

	return defaultDBQueryTimeout
}
