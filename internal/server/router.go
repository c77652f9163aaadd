package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/karowl/simportal/internal/domain/auth"
	"github.com/karowl/simportal/internal/domain/training"
)

// SetupRoutes sets up the routes for the application
func SetupRoutes(app *fiber.App, authHandler *auth.Handler, trainingHandler *training.Handler, resolver *auth.Resolver) {
	api := app.Group("/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	})

	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/demo", authHandler.Demo)
	api.Post("/auth/logout", auth.OptionalIdentity(resolver), authHandler.Logout)
	api.Post("/launch", authHandler.Launch)

	authed := api.Group("", auth.RequireIdentity(resolver))
	authed.Get("/session", authHandler.Me)
	authed.Post("/session/refresh", authHandler.Refresh)

	tr := authed.Group("/training")
	tr.Post("/start", trainingHandler.Start)
	tr.Post("/phase", trainingHandler.AdvancePhase)
	tr.Post("/quiz", trainingHandler.RecordQuiz)
	tr.Post("/complete", trainingHandler.Complete)
	tr.Get("/progress", trainingHandler.Progress)
}
