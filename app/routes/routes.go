// app/routes/routes.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"voicematch/app/controllers"
	"voicematch/app/middlewares"
	"voicematch/config"
	"voicematch/database"
	"voicematch/redis"
)

// SetupRoutes wires the HTTP surface: health, version and operator stats
func SetupRoutes(app *fiber.App, stats *controllers.StatsController, redisService *redis.Service) {
	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		health := map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services":  map[string]string{},
		}

		// Check Cassandra/Mongo connections
		if err := database.HealthCheck(); err != nil {
			health["services"].(map[string]string)["database"] = "error: " + err.Error()
		} else {
			health["services"].(map[string]string)["database"] = "ok"
		}

		// Check Redis connection
		if _, err := redisService.GetClient().Ping(redisService.GetContext()).Result(); err != nil {
			health["services"].(map[string]string)["redis"] = "error: " + err.Error()
		} else {
			health["services"].(map[string]string)["redis"] = "ok"
		}

		return c.JSON(health)
	})

	// API version endpoint
	app.Get("/api/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"version":   config.AppVersion,
			"name":      config.AppName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Operator endpoints, token protected
	admin := app.Group("/api/admin", middlewares.JWTMiddleware())
	admin.Get("/stats", stats.GetStats)
	admin.Get("/calls/recent", stats.GetRecentCalls)
}
