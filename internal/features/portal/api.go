package portal

import (
	"estia-crm/internal/common/api"
	"estia-crm/internal/config"
	"estia-crm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SyncApi struct {
	controller *SyncController
	config     *config.Config
}

func NewSyncApi(controller *SyncController, config *config.Config) api.Route {
	return &SyncApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all portal sync routes
func (h *SyncApi) Setup(app *fiber.App) {
	group := app.Group("/api/portal", middleware.AuthMiddleware(h.config.SkipAuth), middleware.TenantMiddleware())

	admin := middleware.RequireRole(h.config.SkipAuth, "admin", "owner")
	group.Get("/config", h.controller.GetConfig)
	group.Put("/config", admin, h.controller.SaveConfig)
	group.Delete("/config", admin, h.controller.DeleteConfig)

	group.Post("/sync", h.controller.SubmitSync)
	group.Get("/packages", h.controller.ListHistory)
	group.Get("/packages/:id", h.controller.GetDetail)
	group.Post("/packages/:id/retry", h.controller.Retry)
	group.Post("/packages/:id/reconcile", h.controller.Reconcile)
	group.Get("/stats", h.controller.GetStats)
}
