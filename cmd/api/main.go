package main

import (
	"context"
	"fmt"
	"log"

	common_api "estia-crm/internal/common/api"
	"estia-crm/internal/config"
	"estia-crm/internal/database"
	"estia-crm/internal/features/agent"
	"estia-crm/internal/features/audit"
	"estia-crm/internal/features/blog"
	"estia-crm/internal/features/feedback"
	"estia-crm/internal/features/notification"
	"estia-crm/internal/features/portal"
	"estia-crm/internal/features/property"
	"estia-crm/internal/logger"
	"estia-crm/internal/middleware"
	"estia-crm/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Use custom CORS middleware
	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			utils.SetSecret(cfg.JWTSecret)
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			audit.NewAuditRepository,
			notification.NewNotificationRepository,
			property.NewPropertyRepository,
			agent.NewAgentRepository,
			agent.NewSettingsRepository,
			feedback.NewFeedbackRepository,
			blog.NewPostRepository,
			portal.NewConfigRepository,
			portal.NewPackageRepository,

			// Initialize Service
			audit.NewAuditService,
			notification.NewNotificationService,
			property.NewPropertyService,
			agent.NewAgentService,
			feedback.NewFeedbackService,
			blog.NewBlogService,
			portal.NewPortalClient,
			portal.NewPackageBuilder,
			portal.NewSyncService,
			portal.NewReconciler,

			// The portal engine reads properties and agent settings through
			// narrow interfaces; the repositories already satisfy them.
			func(repo property.PropertyRepository) portal.PropertyReader { return repo },
			func(repo agent.SettingsRepository) portal.AgentSettingsReader { return repo },

			// Property creation triggers auto publishing through the portal
			// service without the property package importing it.
			func(s portal.SyncService) property.PublishTrigger { return s },

			// Initialize Controller
			property.NewPropertyController,
			agent.NewAgentController,
			feedback.NewFeedbackController,
			blog.NewBlogController,
			notification.NewNotificationController,
			portal.NewSyncController,

			// Register Routes with fx group annotation
			AsRoute(property.NewPropertyApi),
			AsRoute(agent.NewAgentApi),
			AsRoute(feedback.NewFeedbackApi),
			AsRoute(blog.NewBlogApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(portal.NewSyncApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, reconciler *portal.Reconciler) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return reconciler.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return reconciler.Stop()
					},
				})
			},
		),
	)

	app.Run()
}
