package middleware

import (
	"context"
	"errors"

	common_models "estia-crm/internal/common/models"
	"estia-crm/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNoTenant = errors.New("no tenant in request context")

// TenantMiddleware copies the validated JWT claims and the tenant id into the
// request's user context, so services that only see a context.Context (audit
// actor resolution, background work) can still read them. Must run after
// AuthMiddleware.
func TenantMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if ok {
			ctx := context.WithValue(c.UserContext(), utils.UserClaimsKey, claims)
			if claims.TenantID != "" {
				ctx = context.WithValue(ctx, common_models.TenantIDKey, claims.TenantID)
			}
			c.SetUserContext(ctx)
		}
		return c.Next()
	}
}

// TenantFromCtx resolves the caller's tenant id. Every tenant-scoped
// controller goes through this instead of trusting request parameters.
func TenantFromCtx(c *fiber.Ctx) (primitive.ObjectID, error) {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok || claims.TenantID == "" {
		return primitive.NilObjectID, ErrNoTenant
	}
	oid, err := primitive.ObjectIDFromHex(claims.TenantID)
	if err != nil {
		return primitive.NilObjectID, ErrNoTenant
	}
	return oid, nil
}
