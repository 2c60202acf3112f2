package blog

import (
	"estia-crm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type BlogController struct {
	Service BlogService
}

func NewBlogController(service BlogService) *BlogController {
	return &BlogController{
		Service: service,
	}
}

// CreatePost godoc
func (ctrl *BlogController) CreatePost(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var post Post
	if err := c.BodyParser(&post); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	post.TenantID = tenantID

	if err := ctrl.Service.CreatePost(c.UserContext(), &post); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created successfully",
		"data":    post,
	})
}

// GetPost godoc
func (ctrl *BlogController) GetPost(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	post, err := ctrl.Service.GetPost(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post not found",
		})
	}

	return c.JSON(post)
}

// ListPosts godoc
func (ctrl *BlogController) ListPosts(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	posts, total, err := ctrl.Service.ListPosts(
		c.UserContext(),
		tenantID,
		c.QueryBool("published", false),
		int64(c.QueryInt("limit", 20)),
		int64(c.QueryInt("offset", 0)),
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data":  posts,
		"total": total,
	})
}

// UpdatePost godoc
func (ctrl *BlogController) UpdatePost(c *fiber.Ctx) error {
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

	if err := ctrl.Service.UpdatePost(c.UserContext(), tenantID, c.Params("id"), updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Post updated successfully",
	})
}

// DeletePost godoc
func (ctrl *BlogController) DeletePost(c *fiber.Ctx) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.Service.DeletePost(c.UserContext(), tenantID, c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Post deleted successfully",
	})
}

// Publish godoc
func (ctrl *BlogController) Publish(c *fiber.Ctx) error {
	return ctrl.setPublished(c, true)
}

// Unpublish godoc
func (ctrl *BlogController) Unpublish(c *fiber.Ctx) error {
	return ctrl.setPublished(c, false)
}

func (ctrl *BlogController) setPublished(c *fiber.Ctx, published bool) error {
	tenantID, err := middleware.TenantFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := ctrl.Service.SetPublished(c.UserContext(), tenantID, c.Params("id"), published); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Post publication state updated",
	})
}
