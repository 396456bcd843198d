// Package daemon assembles the application: logging, database, schema,
// seeding and the web service.
package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/config"
	"github.com/kotoba-blog/kotoba/internal/db/dsn"
	"github.com/kotoba-blog/kotoba/internal/db/models"
	"github.com/kotoba-blog/kotoba/internal/logger"
	"github.com/kotoba-blog/kotoba/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start runs the web service until a shutdown signal arrives.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// OpenDB opens the configured database and migrates the schema. The sqlite
// engine is for dev and tests; everything else goes through the mysql driver.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "sqlite":
		dialector = sqlite.Open(cfg.DB.SQLitePath)
	default:
		dialector = gormmysql.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err = db.AutoMigrate(
		&models.AdminUser{},
		&models.AdminInvitation{},
		&models.CommentCaptchaSetting{},
		&models.CommentCaptchaState{},
		&models.Comment{},
	); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	return db, nil
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	seed(cfg, db)

	log.Info().Str("engine", cfg.DB.GormEngine).Msg("database ready")

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db),
	}, nil
}
