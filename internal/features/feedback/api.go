package feedback

import (
	"estia-crm/internal/common/api"
	"estia-crm/internal/config"
	"estia-crm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type FeedbackApi struct {
	controller *FeedbackController
	config     *config.Config
}

func NewFeedbackApi(controller *FeedbackController, config *config.Config) api.Route {
	return &FeedbackApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all feedback routes
func (h *FeedbackApi) Setup(app *fiber.App) {
	// Public intake
	app.Post("/api/feedback/:tenant", h.controller.SubmitFeedback)

	group := app.Group("/api/feedback", middleware.AuthMiddleware(h.config.SkipAuth), middleware.TenantMiddleware())
	group.Get("/", h.controller.ListFeedback)
	group.Put("/:id/status", h.controller.UpdateStatus)
}
