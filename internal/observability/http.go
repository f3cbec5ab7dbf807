package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the Prometheus scrape endpoint with both the HTTP and
// pipeline stage collectors registered, so counters appear on the first scrape
// even before the stage that owns them has run.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	RegisterPipelineMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
