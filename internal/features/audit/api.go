package audit

import (
	"estia-crm/internal/common/api"
	"estia-crm/internal/config"
	"estia-crm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	service AuditService
	config  *config.Config
}

func NewAuditApi(service AuditService, config *config.Config) api.Route {
	return &AuditApi{
		service: service,
		config:  config,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	group := app.Group("/api/audit", middleware.AuthMiddleware(h.config.SkipAuth), middleware.TenantMiddleware())

	group.Get("/", h.listLogs)
}

func (h *AuditApi) listLogs(c *fiber.Ctx) error {
	page := int64(c.QueryInt("page", 1))
	limit := int64(c.QueryInt("limit", 20))

	filters := map[string]interface{}{
		"module": c.Query("module"),
		"action": c.Query("action"),
	}

	logs, err := h.service.ListLogs(c.UserContext(), filters, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": logs,
	})
}
