package blog

import (
	"estia-crm/internal/common/api"
	"estia-crm/internal/config"
	"estia-crm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type BlogApi struct {
	controller *BlogController
	config     *config.Config
}

func NewBlogApi(controller *BlogController, config *config.Config) api.Route {
	return &BlogApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all blog routes
func (h *BlogApi) Setup(app *fiber.App) {
	group := app.Group("/api/blog", middleware.AuthMiddleware(h.config.SkipAuth), middleware.TenantMiddleware())

	group.Post("/", h.controller.CreatePost)
	group.Get("/", h.controller.ListPosts)
	group.Get("/:id", h.controller.GetPost)
	group.Put("/:id", h.controller.UpdatePost)
	group.Delete("/:id", h.controller.DeletePost)
	group.Post("/:id/publish", h.controller.Publish)
	group.Post("/:id/unpublish", h.controller.Unpublish)
}
