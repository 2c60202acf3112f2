package property

import (
	"estia-crm/internal/common/api"
	"estia-crm/internal/config"
	"estia-crm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PropertyApi struct {
	controller *PropertyController
	config     *config.Config
}

func NewPropertyApi(controller *PropertyController, config *config.Config) api.Route {
	return &PropertyApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all property routes
func (h *PropertyApi) Setup(app *fiber.App) {
	group := app.Group("/api/properties", middleware.AuthMiddleware(h.config.SkipAuth), middleware.TenantMiddleware())

	group.Post("/", h.controller.CreateProperty)
	group.Get("/", h.controller.ListProperties)
	group.Get("/export", h.controller.ExportProperties)
	group.Get("/:id", h.controller.GetProperty)
	group.Get("/:id/publication", h.controller.GetPublicationStatus)
	group.Put("/:id", h.controller.UpdateProperty)
	group.Delete("/:id", h.controller.DeleteProperty)
}
