package notification

import (
	"estia-crm/internal/common/api"
	"estia-crm/internal/config"
	"estia-crm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	controller *NotificationController
	config     *config.Config
}

func NewNotificationApi(controller *NotificationController, config *config.Config) api.Route {
	return &NotificationApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all notification routes
func (h *NotificationApi) Setup(app *fiber.App) {
	group := app.Group("/api/notifications", middleware.AuthMiddleware(h.config.SkipAuth), middleware.TenantMiddleware())

	group.Get("/", h.controller.ListNotifications)
	group.Get("/unread-count", h.controller.UnreadCount)
	group.Put("/:id/read", h.controller.MarkAsRead)
	group.Put("/read-all", h.controller.MarkAllAsRead)
}
