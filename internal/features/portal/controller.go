package portal

import (
	"errors"

	"estia-crm/internal/middleware"
	"estia-crm/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SyncController struct {
	Service SyncService
}

func NewSyncController(service SyncService) *SyncController {
	return &SyncController{
		Service: service,
	}
}

// httpError maps engine errors to status codes. Anything untyped is a 500.
func httpError(c *fiber.Ctx, err error) error {
	var ve *ValidationError
	var nfe *NotFoundError
	var ise *InvalidStateError

	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Error()})
	case errors.As(err, &nfe):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": nfe.Error()})
	case errors.As(err, &ise):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": ise.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func userFromCtx(c *fiber.Ctx) primitive.ObjectID {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// GetConfig godoc
func (ctrl *SyncController) GetConfig(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	cfg, err := ctrl.Service.GetConfig(c.UserContext(), tenantID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(cfg)
}

// SaveConfig godoc
func (ctrl *SyncController) SaveConfig(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body struct {
		Username        string          `json:"username"`
		Password        string          `json:"password"`
		AuthToken       string          `json:"auth_token"`
		StoreID         string          `json:"store_id"`
		IsActive        bool            `json:"is_active"`
		AutoPublish     bool            `json:"auto_publish"`
		PublicationType PublicationType `json:"publication_type"`
		Trademark       string          `json:"trademark"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	cfg := &IntegrationConfig{
		TenantID:        tenantID,
		Username:        body.Username,
		Password:        body.Password,
		AuthToken:       body.AuthToken,
		StoreID:         body.StoreID,
		IsActive:        body.IsActive,
		AutoPublish:     body.AutoPublish,
		PublicationType: body.PublicationType,
		Trademark:       body.Trademark,
	}
	if err := ctrl.Service.SaveConfig(c.UserContext(), cfg); err != nil {
		return httpError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Portal configuration saved",
		"data":    cfg,
	})
}

// DeleteConfig godoc
func (ctrl *SyncController) DeleteConfig(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.Service.DeleteConfig(c.UserContext(), tenantID); err != nil {
		return httpError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Portal configuration deleted",
	})
}

// SubmitSync godoc
func (ctrl *SyncController) SubmitSync(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body struct {
		PropertyIDs []string    `json:"property_ids"`
		Operation   RequestType `json:"operation"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	propertyIDs := make([]primitive.ObjectID, 0, len(body.PropertyIDs))
	for _, raw := range body.PropertyIDs {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid property id: " + raw,
			})
		}
		propertyIDs = append(propertyIDs, oid)
	}

	result, err := ctrl.Service.SubmitSync(c.UserContext(), tenantID, userFromCtx(c), propertyIDs, body.Operation)
	if err != nil {
		return httpError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// ListHistory godoc
func (ctrl *SyncController) ListHistory(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	filter := HistoryFilter{
		Status: PackageStatus(c.Query("status")),
		Limit:  int64(c.QueryInt("limit", 20)),
		Offset: int64(c.QueryInt("offset", 0)),
	}

	page, err := ctrl.Service.ListHistory(c.UserContext(), tenantID, filter)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(page)
}

// GetDetail godoc
func (ctrl *SyncController) GetDetail(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	packageID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid package id"})
	}

	detail, err := ctrl.Service.GetDetail(c.UserContext(), tenantID, packageID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(detail)
}

// Retry godoc
func (ctrl *SyncController) Retry(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	packageID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid package id"})
	}

	result, err := ctrl.Service.Retry(c.UserContext(), tenantID, userFromCtx(c), packageID)
	if err != nil {
		return httpError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Reconcile godoc
func (ctrl *SyncController) Reconcile(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	packageID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid package id"})
	}

	detail, err := ctrl.Service.Reconcile(c.UserContext(), tenantID, packageID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(detail)
}

// GetStats godoc
func (ctrl *SyncController) GetStats(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	stats, err := ctrl.Service.GetStats(c.UserContext(), tenantID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(stats)
}
