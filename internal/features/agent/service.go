package agent

import (
	"context"
	"fmt"
	"strings"

	common_models "estia-crm/internal/common/models"
	"estia-crm/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AgentService interface {
	CreateAgent(ctx context.Context, a *Agent) error
	GetAgent(ctx context.Context, tenantID primitive.ObjectID, id string) (*Agent, error)
	ListAgents(ctx context.Context, tenantID primitive.ObjectID) ([]Agent, error)
	UpdateAgent(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error
	DeleteAgent(ctx context.Context, tenantID primitive.ObjectID, id string) error

	GetPortalSettings(ctx context.Context, tenantID primitive.ObjectID, agentID string) (*PortalSettings, error)
	SavePortalSettings(ctx context.Context, settings *PortalSettings) error
	DeletePortalSettings(ctx context.Context, tenantID primitive.ObjectID, agentID string) error
}

type AgentServiceImpl struct {
	Repo         AgentRepository
	SettingsRepo SettingsRepository
	AuditService audit.AuditService
}

func NewAgentService(repo AgentRepository, settingsRepo SettingsRepository, auditService audit.AuditService) AgentService {
	return &AgentServiceImpl{
		Repo:         repo,
		SettingsRepo: settingsRepo,
		AuditService: auditService,
	}
}

func (s *AgentServiceImpl) CreateAgent(ctx context.Context, a *Agent) error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("agent name is required")
	}

	err := s.Repo.Create(ctx, a)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "agents", a.ID.Hex(), map[string]common_models.Change{
			"agent": {New: a},
		})
	}
	return err
}

func (s *AgentServiceImpl) GetAgent(ctx context.Context, tenantID primitive.ObjectID, id string) (*Agent, error) {
	return s.Repo.Get(ctx, tenantID, id)
}

func (s *AgentServiceImpl) ListAgents(ctx context.Context, tenantID primitive.ObjectID) ([]Agent, error) {
	return s.Repo.List(ctx, tenantID)
}

func (s *AgentServiceImpl) UpdateAgent(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error {
	oldAgent, _ := s.Repo.Get(ctx, tenantID, id)

	err := s.Repo.Update(ctx, tenantID, id, updates)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "agents", id, map[string]common_models.Change{
			"agent": {Old: oldAgent, New: updates},
		})
	}
	return err
}

func (s *AgentServiceImpl) DeleteAgent(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oldAgent, _ := s.Repo.Get(ctx, tenantID, id)

	err := s.Repo.Delete(ctx, tenantID, id)
	if err == nil {
		name := id
		if oldAgent != nil {
			name = oldAgent.Name
		}
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "agents", name, map[string]common_models.Change{
			"agent": {Old: oldAgent, New: "DELETED"},
		})
	}
	return err
}

func (s *AgentServiceImpl) GetPortalSettings(ctx context.Context, tenantID primitive.ObjectID, agentID string) (*PortalSettings, error) {
	oid, err := primitive.ObjectIDFromHex(agentID)
	if err != nil {
		return nil, err
	}
	return s.SettingsRepo.GetByAgent(ctx, tenantID, oid)
}

func (s *AgentServiceImpl) SavePortalSettings(ctx context.Context, settings *PortalSettings) error {
	if strings.TrimSpace(settings.PrimaryPhone) == "" {
		return fmt.Errorf("primary phone is required and must be portal-verified")
	}
	if settings.PublicationType == "" {
		settings.PublicationType = "BASIC"
	}

	err := s.SettingsRepo.Upsert(ctx, settings)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionSettings, "agent_portal_settings", settings.AgentID.Hex(), map[string]common_models.Change{
			"settings": {New: settings},
		})
	}
	return err
}

func (s *AgentServiceImpl) DeletePortalSettings(ctx context.Context, tenantID primitive.ObjectID, agentID string) error {
	oid, err := primitive.ObjectIDFromHex(agentID)
	if err != nil {
		return err
	}

	old, _ := s.SettingsRepo.GetByAgent(ctx, tenantID, oid)

	err = s.SettingsRepo.Delete(ctx, tenantID, oid)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionSettings, "agent_portal_settings", agentID, map[string]common_models.Change{
			"settings": {Old: old, New: "DELETED"},
		})
	}
	return err
}
