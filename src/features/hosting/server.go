package hosting

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/contre95/djsetlist/src/features/config"
	"github.com/contre95/djsetlist/src/features/metrics"
	"github.com/contre95/djsetlist/src/features/recognizing"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// multipartOverhead is the room left in the body limit for multipart
// boundaries and headers around the audio part.
const multipartOverhead = 64 * 1024

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server. recorder may be nil when metrics are disabled.
func NewServer(cfg *config.Manager, recognizingService *recognizing.Service, recorder *metrics.Recorder) *Server {
	current := cfg.Get()

	app := fiber.New(fiber.Config{
		ErrorHandler:          newErrorHandler(current.CORS.AllowOrigins),
		AppName:               "DJ Setlist",
		DisableStartupMessage: true,
		EnablePrintRoutes:     current.Server.PrintRoutes,
		BodyLimit:             int(recognizingService.MaxUploadBytes()) + multipartOverhead,
	})

	// Add middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(MetricsMiddleware(recorder))
	app.Use(LogAllRequestsMiddleware())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     current.CORS.AllowOrigins,
		AllowMethods:     current.CORS.AllowMethods,
		AllowHeaders:     current.CORS.AllowHeaders,
		AllowCredentials: false,
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "DJ Setlist Backend is running!",
			"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			"cors":      "enabled",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	recognizing.RegisterRoutes(app, recognizing.NewHandler(recognizingService))
	if current.Metrics.Enabled && recorder != nil {
		metrics.RegisterRoutes(app, current.Metrics.Path, recorder)
	}

	return &Server{app: app, port: current.Server.Port}
}

// newErrorHandler renders any error that reaches the app as a JSON envelope.
// Errors raised by the transport, such as an exceeded body limit, never pass
// through the CORS middleware, so the allowed origin is set here as well.
func newErrorHandler(allowOrigins string) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}
		if code >= fiber.StatusInternalServerError {
			slog.Error("Internal Server Error", "error", err, "path", c.Path())
		}
		if len(c.Response().Header.Peek(fiber.HeaderAccessControlAllowOrigin)) == 0 {
			if origin := allowedOrigin(allowOrigins, c.Get(fiber.HeaderOrigin)); origin != "" {
				c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
}

// allowedOrigin returns the Access-Control-Allow-Origin value for origin
// under the comma separated allowOrigins list, or "" when it is not allowed.
func allowedOrigin(allowOrigins, origin string) string {
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	for _, allowed := range strings.Split(allowOrigins, ",") {
		allowed = strings.TrimSpace(allowed)
		if allowed == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// App exposes the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "port", s.port)
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(10 * time.Second)
}
