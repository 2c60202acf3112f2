package middleware

import (
	"net/http/httptest"
	"testing"

	common_models "estia-crm/internal/common/models"
	"estia-crm/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

func TestTenantMiddlewareSeedsUserContext(t *testing.T) {
	app := fiber.New()

	var gotClaims interface{}
	var gotTenant interface{}
	app.Get("/whoami", AuthMiddleware(true), TenantMiddleware(), func(c *fiber.Ctx) error {
		gotClaims = c.UserContext().Value(utils.UserClaimsKey)
		gotTenant = c.UserContext().Value(common_models.TenantIDKey)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	claims, ok := gotClaims.(*utils.UserClaims)
	if !ok {
		t.Fatal("claims must be readable from the user context, not only fiber locals")
	}
	if claims.UserID == "" {
		t.Error("seeded claims should carry the user id")
	}
	if tenant, _ := gotTenant.(string); tenant != claims.TenantID {
		t.Errorf("expected tenant %q in user context, got %q", claims.TenantID, tenant)
	}
}
