package handlers

import (
	"context"
	"time"

	"trialapi/internal/app"
	"trialapi/internal/database"
	"trialapi/internal/logger"
	"trialapi/internal/metrics"
	"trialapi/internal/schema"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

const healthTimeout = 2 * time.Second

type SystemHandler struct {
	Handler
	database  database.DB
	metrics   *metrics.Metrics
	validator *schema.Validator
}

func NewSystemHandler(app app.App, router fiber.Router) *SystemHandler {
	log := logger.New("handlers").File("system_handler")
	return &SystemHandler{
		database:  app.Database,
		metrics:   app.Metrics,
		validator: app.Validator,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *SystemHandler) Register() {
	h.router.Get("/health", h.health)
	h.router.Get("/schema", h.getSchema)
	h.router.Get("/metrics", adaptor.HTTPHandler(h.metrics.Handler()))
}

func (h *SystemHandler) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	if err := h.database.Ping(ctx); err != nil {
		h.log.Function("health").Er("database ping failed", err)
		return c.Status(fiber.StatusServiceUnavailable).
			JSON(fiber.Map{"status": "unavailable", "error": "database unreachable"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *SystemHandler) getSchema(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(h.validator.Source())
}
