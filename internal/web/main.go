// Package web wires the HTTP surface: the public comment and registration
// endpoints, the admin login and the session-guarded admin area.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/config"
	fiberlogger "github.com/kotoba-blog/kotoba/internal/logger/adapter/fiber"
	"github.com/kotoba-blog/kotoba/internal/web/handler"
	captchahandler "github.com/kotoba-blog/kotoba/internal/web/handler/admin/captcha"
	"github.com/kotoba-blog/kotoba/internal/web/handler/admin/invitation"
	"github.com/kotoba-blog/kotoba/internal/web/handler/comment"
	"github.com/kotoba-blog/kotoba/internal/web/handler/login"
	"github.com/kotoba-blog/kotoba/internal/web/handler/logout"
	"github.com/kotoba-blog/kotoba/internal/web/handler/register"
	"github.com/kotoba-blog/kotoba/internal/web/handler/whoami"
	authmiddleware "github.com/kotoba-blog/kotoba/internal/web/middleware/auth"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: fail /checkalive first so a load
	// balancer removes this instance from active targets.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 for %d seconds to let the LB drain this instance",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "Kotoba",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(fiberlogger.New(fiberlogger.Config{Config: cfg.Log}))

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}
	service.alive.Store(true)

	app.Get("/checkalive", func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendStatus(fiber.StatusOK)
	})

	// public surface
	initHandler(comment.Handler.Init(app, cfg, db))
	initHandler(register.Handler.Init(app, cfg, db))

	// login and logout must come before the auth middleware below: they live
	// under the admin prefix (cookie scope) but cannot require a session.
	initHandler(login.Handler.Init(app, cfg, db))
	initHandler(logout.Handler.Init(app, cfg))

	// everything else under /admin requires a valid session
	app.Use(handler.AdminPathPrefix, authmiddleware.New(cfg))

	initHandler(whoami.Handler.Init(app))
	initHandler(invitation.Handler.Init(app, cfg, db))
	initHandler(captchahandler.Handler.Init(app, cfg, db))

	return service
}

func initHandler(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("handler initialization failed")
	}
}
