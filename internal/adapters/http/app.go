package http

import (
	"errors"
	"time"

	"github.com/dumu-tech/meta-webhook-gateway/internal/core"
	"github.com/dumu-tech/meta-webhook-gateway/internal/events"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// NewApp builds the fiber app serving h
func NewApp(h *Handler, logger zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Meta Webhook Gateway",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          ErrorHandler(logger),
	})

	// Middleware
	app.Use(RequestLogger(logger))
	app.Use(recover.New())

	h.RegisterRoutes(app)
	return app
}

// ErrorHandler maps domain errors to status codes. Inbound validation
// failures get a status-only response.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if status, ok := statusFor(err); ok {
			return c.Status(status).Send(nil)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).SendString(fiberErr.Message)
		}

		logger.Error().Err(err).Str("path", c.Path()).Msg("Server error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal server error",
			"message": err.Error(),
		})
	}
}

func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, core.ErrMalformedRequest):
		return fiber.StatusBadRequest, true
	case errors.Is(err, core.ErrForbidden):
		return fiber.StatusForbidden, true
	case errors.Is(err, core.ErrMissingSignature), errors.Is(err, core.ErrInvalidSignature):
		return fiber.StatusUnauthorized, true
	case errors.Is(err, core.ErrNotFound):
		return fiber.StatusNotFound, true
	case errors.Is(err, events.ErrClosed):
		return fiber.StatusServiceUnavailable, true
	default:
		return 0, false
	}
}
