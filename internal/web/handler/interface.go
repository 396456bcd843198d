package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/kotoba-blog/kotoba/internal/config"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error
}

// Validate is the shared request body validator. validator.Validate caches
// struct metadata, so a single instance is reused across handlers.
var Validate = validator.New() //nolint:gochecknoglobals
