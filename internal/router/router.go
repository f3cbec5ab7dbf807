package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/config"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/handler"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ScoreHandler    *handler.ScoreHandler
	DecisionHandler *handler.DecisionHandler
	ReleaseHandler  *handler.ReleaseHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	chapters := api.Group("/chapters")
	submissions := api.Group("/submissions")
	courses := api.Group("/courses")
	decisions := api.Group("/decisions")

	if deps.ScoreHandler != nil {
		deps.ScoreHandler.RegisterChapterRoutes(chapters)
		deps.ScoreHandler.RegisterSubmissionRoutes(submissions)
	}
	if deps.DecisionHandler != nil {
		deps.DecisionHandler.RegisterChapterRoutes(chapters)
		deps.DecisionHandler.RegisterDecisionRoutes(decisions)
	}
	if deps.ReleaseHandler != nil {
		deps.ReleaseHandler.RegisterCourseRoutes(courses)
	}
}
