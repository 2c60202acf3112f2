package agent

import (
	"estia-crm/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AgentController struct {
	Service AgentService
}

func NewAgentController(service AgentService) *AgentController {
	return &AgentController{
		Service: service,
	}
}

// CreateAgent godoc
func (ctrl *AgentController) CreateAgent(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var a Agent
	if err := c.BodyParser(&a); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	a.TenantID = tenantID

	if err := ctrl.Service.CreateAgent(c.UserContext(), &a); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Agent created successfully",
		"data":    a,
	})
}

// ListAgents godoc
func (ctrl *AgentController) ListAgents(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	agents, err := ctrl.Service.ListAgents(c.UserContext(), tenantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": agents,
	})
}

// GetAgent godoc
func (ctrl *AgentController) GetAgent(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	a, err := ctrl.Service.GetAgent(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Agent not found",
		})
	}

	return c.JSON(a)
}

// UpdateAgent godoc
func (ctrl *AgentController) UpdateAgent(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var updates map[string]interface{}
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.UpdateAgent(c.UserContext(), tenantID, c.Params("id"), updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Agent updated successfully",
	})
}

// DeleteAgent godoc
func (ctrl *AgentController) DeleteAgent(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.Service.DeleteAgent(c.UserContext(), tenantID, c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Agent deleted successfully",
	})
}

// GetPortalSettings godoc
func (ctrl *AgentController) GetPortalSettings(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	settings, err := ctrl.Service.GetPortalSettings(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if settings == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No portal settings for agent",
		})
	}

	return c.JSON(settings)
}

// SavePortalSettings godoc
func (ctrl *AgentController) SavePortalSettings(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	agentID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid agent id",
		})
	}

	var settings PortalSettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	settings.TenantID = tenantID
	settings.AgentID = agentID

	if err := ctrl.Service.SavePortalSettings(c.UserContext(), &settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Portal settings saved successfully",
		"data":    settings,
	})
}

// DeletePortalSettings godoc
func (ctrl *AgentController) DeletePortalSettings(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.Service.DeletePortalSettings(c.UserContext(), tenantID, c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Portal settings deleted successfully",
	})
}
