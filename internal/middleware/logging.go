// Package middleware provides HTTP middleware shared by all routes.
package middleware

import (
	"time"

	"pinkbook/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// ContextMiddleware injects the request ID from Fiber locals into the request
// context so the context-aware logger picks it up in deep layers.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rid, ok := c.Locals("requestid").(string); ok {
			c.SetUserContext(observability.WithRequestID(c.UserContext(), rid))
		}
		return c.Next()
	}
}

// StructuredLogger returns a Fiber middleware for logging requests using slog.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		latency := time.Since(start)

		fields := []any{
			"status", status,
			"method", c.Method(),
			"path", c.Path(),
			"ip", c.IP(),
			"latency", latency,
			"user_agent", c.Get("User-Agent"),
		}

		if err != nil {
			fields = append(fields, "error", err.Error())
			observability.Logger.ErrorContext(c.UserContext(), "request failed", fields...)
		} else {
			observability.Logger.InfoContext(c.UserContext(), "request processed", fields...)
		}

		return err
	}
}
