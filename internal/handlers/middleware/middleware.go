package middleware

import (
	"strconv"
	"time"

	"trialapi/internal/logger"
	"trialapi/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	LocalsRequestID = "requestID"
)

type Middleware struct {
	metrics *metrics.Metrics
	log     logger.Logger
}

func New(metrics *metrics.Metrics) Middleware {
	return Middleware{
		metrics: metrics,
		log:     logger.New("middleware"),
	}
}

// RequestID echoes the caller's X-Request-ID or assigns a fresh one.
func (m Middleware) RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				id = uuid.New()
			}
			requestID = id.String()
		}

		c.Locals(LocalsRequestID, requestID)
		c.Set(HeaderRequestID, requestID)
		return c.Next()
	}
}

// Observe records request metrics and writes one access log line per request.
func (m Middleware) Observe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := c.Route().Path
		m.metrics.HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.metrics.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(elapsed.Seconds())

		m.log.Function("Observe").Debug("Handled request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", elapsed,
			"requestID", RequestIDFrom(c),
		)

		return err
	}
}

func RequestIDFrom(c *fiber.Ctx) string {
	requestID, _ := c.Locals(LocalsRequestID).(string)
	return requestID
}
