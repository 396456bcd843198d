// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"

	"github.com/kotoba-blog/kotoba/internal/config"
)

// defaultExtras carries the driver options every connection needs. The
// connect/read/write timeouts keep a hung server from stalling requests at
// the driver level, below the per-query context bound.
const defaultExtras = "charset=utf8mb4&parseTime=True&loc=UTC&timeout=5s&readTimeout=5s&writeTimeout=5s"

// Create builds the MySQL Data Source Name from the configuration.
func Create(cfg *config.Config) string {
	extras := cfg.DB.Extras
	if extras == "" {
		extras = defaultExtras
	}

	out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Name,
		extras,
	)

	return out
}
