package audit

import (
	"context"
	"testing"

	common_models "estia-crm/internal/common/models"
	"estia-crm/pkg/utils"
)

type MockAuditRepo struct {
	Created []common_models.AuditLog
}

func (m *MockAuditRepo) Create(ctx context.Context, log common_models.AuditLog) error {
	m.Created = append(m.Created, log)
	return nil
}

func (m *MockAuditRepo) List(ctx context.Context, filters map[string]interface{}, limit, offset int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func TestLogChangeResolvesActorFromClaims(t *testing.T) {
	repo := &MockAuditRepo{}
	svc := NewAuditService(repo)

	ctx := context.WithValue(context.Background(), utils.UserClaimsKey, &utils.UserClaims{
		UserID:   "user-1",
		TenantID: "64f000000000000000000001",
	})
	if err := svc.LogChange(ctx, common_models.AuditActionSync, "portal", "pkg-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.Created[0].ActorID; got != "user-1" {
		t.Errorf("expected actor user-1, got %q", got)
	}

	// Background work without claims is attributed to the system.
	if err := svc.LogChange(context.Background(), common_models.AuditActionSync, "portal", "pkg-2", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.Created[1].ActorID; got != "system" {
		t.Errorf("expected actor system, got %q", got)
	}
}
