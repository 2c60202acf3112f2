package agent

import (
	"estia-crm/internal/common/api"
	"estia-crm/internal/config"
	"estia-crm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AgentApi struct {
	controller *AgentController
	config     *config.Config
}

func NewAgentApi(controller *AgentController, config *config.Config) api.Route {
	return &AgentApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all agent routes
func (h *AgentApi) Setup(app *fiber.App) {
	group := app.Group("/api/agents", middleware.AuthMiddleware(h.config.SkipAuth), middleware.TenantMiddleware())

	group.Post("/", h.controller.CreateAgent)
	group.Get("/", h.controller.ListAgents)
	group.Get("/:id", h.controller.GetAgent)
	group.Put("/:id", h.controller.UpdateAgent)
	group.Delete("/:id", h.controller.DeleteAgent)

	group.Get("/:id/portal-settings", h.controller.GetPortalSettings)
	group.Put("/:id/portal-settings", h.controller.SavePortalSettings)
	group.Delete("/:id/portal-settings", h.controller.DeletePortalSettings)
}
