package property

import (
	"fmt"
	"time"

	"estia-crm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PropertyController struct {
	Service PropertyService
}

func NewPropertyController(service PropertyService) *PropertyController {
	return &PropertyController{
		Service: service,
	}
}

// CreateProperty godoc
func (ctrl *PropertyController) CreateProperty(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var p Property
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	p.TenantID = tenantID

	if err := ctrl.Service.CreateProperty(c.UserContext(), &p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Property created successfully",
		"data":    p,
	})
}

// GetProperty godoc
func (ctrl *PropertyController) GetProperty(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	p, err := ctrl.Service.GetProperty(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Property not found",
		})
	}

	return c.JSON(p)
}

// ListProperties godoc
func (ctrl *PropertyController) ListProperties(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	filter := ListFilter{
		Category: Category(c.Query("category")),
		AgentID:  c.Query("agent_id"),
		Limit:    int64(c.QueryInt("limit", 20)),
		Offset:   int64(c.QueryInt("offset", 0)),
	}

	properties, total, err := ctrl.Service.ListProperties(c.UserContext(), tenantID, filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data":  properties,
		"total": total,
	})
}

// UpdateProperty godoc
func (ctrl *PropertyController) UpdateProperty(c *fiber.Ctx) error {
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

	if err := ctrl.Service.UpdateProperty(c.UserContext(), tenantID, c.Params("id"), updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Property updated successfully",
	})
}

// DeleteProperty godoc
func (ctrl *PropertyController) DeleteProperty(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.Service.DeleteProperty(c.UserContext(), tenantID, c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Property deleted successfully",
	})
}

// GetPublicationStatus godoc
func (ctrl *PropertyController) GetPublicationStatus(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	status, err := ctrl.Service.GetPublicationStatus(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Property not found",
		})
	}

	return c.JSON(status)
}

// ExportProperties godoc
func (ctrl *PropertyController) ExportProperties(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	f, err := ctrl.Service.ExportProperties(c.UserContext(), tenantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	filename := fmt.Sprintf("properties-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if _, err := f.WriteTo(c.Response().BodyWriter()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return nil
}
