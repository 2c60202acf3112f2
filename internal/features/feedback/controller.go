package feedback

import (
	"estia-crm/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FeedbackController struct {
	Service FeedbackService
}

func NewFeedbackController(service FeedbackService) *FeedbackController {
	return &FeedbackController{
		Service: service,
	}
}

// SubmitFeedback is the public intake endpoint; the tenant is addressed by id
// in the path since visitors have no token.
func (ctrl *FeedbackController) SubmitFeedback(c *fiber.Ctx) error {
	tenantID, err := primitive.ObjectIDFromHex(c.Params("tenant"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid tenant",
		})
	}

	var f Feedback
	if err := c.BodyParser(&f); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	f.TenantID = tenantID

	if err := ctrl.Service.SubmitFeedback(c.UserContext(), &f); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Feedback submitted successfully",
	})
}

// ListFeedback godoc
func (ctrl *FeedbackController) ListFeedback(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	items, total, err := ctrl.Service.ListFeedback(
		c.UserContext(),
		tenantID,
		FeedbackStatus(c.Query("status")),
		int64(c.QueryInt("limit", 20)),
		int64(c.QueryInt("offset", 0)),
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data":  items,
		"total": total,
	})
}

// UpdateStatus godoc
func (ctrl *FeedbackController) UpdateStatus(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body struct {
		Status FeedbackStatus `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.UpdateStatus(c.UserContext(), tenantID, c.Params("id"), body.Status); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Feedback status updated",
	})
}
