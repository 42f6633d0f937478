package handlers

import (
	"trialapi/internal/app"
	"trialapi/internal/handlers/middleware"
	"trialapi/internal/logger"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.RequestID(), app.Middleware.Observe())

	NewSystemHandler(*app, router).Register()
	NewTrialRecordHandler(*app, router).Register()

	return nil
}
