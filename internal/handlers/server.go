package handlers

import (
	"trialapi/internal/app"
	"trialapi/internal/logger"
	. "trialapi/internal/models"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewServer builds the fiber application with every route registered.
func NewServer(app *app.App) (*fiber.App, error) {
	log := logger.New("handlers").File("server").Function("NewServer")

	server := fiber.New(fiber.Config{
		AppName:      "trialapi",
		BodyLimit:    app.Config.ServerBodyLimit,
		ReadTimeout:  app.Config.ServerReadTimeout,
		WriteTimeout: app.Config.ServerWriteTimeout,
		Immutable:    true,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: errorHandler,
	})

	server.Use(recover.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: app.Config.CorsAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))

	if err := Router(server, app); err != nil {
		return nil, log.Err("failed to register routes", err)
	}

	return server, nil
}

// errorHandler renders errors that escaped a handler, such as unknown routes
// or oversized bodies, with the same envelope the handlers use.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fiberErr, ok := err.(*fiber.Error); ok {
		code = fiberErr.Code
	}

	if code == fiber.StatusInternalServerError {
		logger.New("handlers").File("server").Function("errorHandler").Er("unhandled error", err, "path", c.Path())
		return c.Status(code).JSON(fiber.Map{"message": "error", "error": ErrorMessages(err)[0]})
	}

	return c.Status(code).JSON(fiber.Map{"message": "error", "error": err.Error()})
}
