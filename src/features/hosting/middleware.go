package hosting

import (
	"log/slog"
	"time"

	"github.com/contre95/djsetlist/src/features/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// LogAllRequestsMiddleware logs every request once the chain has finished.
// Errors returned by the chain are rendered here so the logged status is final.
func LogAllRequestsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		duration := time.Since(start)
		status := c.Response().StatusCode()

		if status >= 400 {
			slog.Error("HTTP request",
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"duration", duration.String(),
				"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			)
		} else {
			slog.Debug("HTTP request",
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"duration", duration.String(),
				"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			)
		}
		return nil
	}
}

// MetricsMiddleware records request count and latency per matched route.
func MetricsMiddleware(recorder *metrics.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if recorder == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		// Label values outlive the request, so they must not alias fasthttp buffers.
		status := c.Response().StatusCode()
		route := utils.CopyString(c.Route().Path)
		if status == fiber.StatusNotFound {
			route = "unmatched"
		}
		recorder.RecordHTTPRequest(utils.CopyString(c.Method()), route, status, time.Since(start))
		return err
	}
}
