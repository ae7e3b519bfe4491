package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// RegisterRoutes mounts the Prometheus exposition endpoint.
func RegisterRoutes(app *fiber.App, path string, recorder *Recorder) {
	if recorder == nil {
		return
	}
	if path == "" {
		path = "/metrics"
	}
	app.Get(path, adaptor.HTTPHandler(recorder.Handler()))
}
