package server

import (
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/karowl/simportal/internal/config"
)

// New creates the Fiber application
func New(cfg *config.Config) *fiber.App {
	return fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})
}

// InitLogger configures the process-wide slog handler
func InitLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(handler))
}
