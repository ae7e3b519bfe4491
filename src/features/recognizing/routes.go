package recognizing

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the recognition routes
func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Post("/recognize", handler.Recognize)
}
