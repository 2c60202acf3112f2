package property

import (
	"context"
	"fmt"
	"strings"

	common_models "estia-crm/internal/common/models"
	"estia-crm/internal/features/audit"
	"estia-crm/pkg/utils"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PublishTrigger is implemented by the portal engine. When a tenant has
// auto-publish enabled, newly created public properties are handed to it.
// The trigger is best-effort: submission failures surface as FAILED packages
// in sync history, never as a failed property create.
type PublishTrigger interface {
	AutoPublish(ctx context.Context, tenantID, propertyID primitive.ObjectID)
}

type PropertyService interface {
	CreateProperty(ctx context.Context, p *Property) error
	GetProperty(ctx context.Context, tenantID primitive.ObjectID, id string) (*Property, error)
	ListProperties(ctx context.Context, tenantID primitive.ObjectID, filter ListFilter) ([]Property, int64, error)
	UpdateProperty(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error
	DeleteProperty(ctx context.Context, tenantID primitive.ObjectID, id string) error
	GetPublicationStatus(ctx context.Context, tenantID primitive.ObjectID, id string) (*PublicationStatus, error)
	ExportProperties(ctx context.Context, tenantID primitive.ObjectID) (*excelize.File, error)
}

type PropertyServiceImpl struct {
	Repo           PropertyRepository
	AuditService   audit.AuditService
	PublishTrigger PublishTrigger
}

func NewPropertyService(repo PropertyRepository, auditService audit.AuditService, trigger PublishTrigger) PropertyService {
	return &PropertyServiceImpl{
		Repo:           repo,
		AuditService:   auditService,
		PublishTrigger: trigger,
	}
}

func (s *PropertyServiceImpl) CreateProperty(ctx context.Context, p *Property) error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("property title is required")
	}
	if p.Slug == "" {
		p.Slug = utils.UniqueSlug(p.Title)
	}

	if err := s.Repo.Create(ctx, p); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "properties", p.ID.Hex(), map[string]common_models.Change{
		"property": {New: p},
	})

	if p.IsPublic {
		s.PublishTrigger.AutoPublish(ctx, p.TenantID, p.ID)
	}
	return nil
}

func (s *PropertyServiceImpl) GetProperty(ctx context.Context, tenantID primitive.ObjectID, id string) (*Property, error) {
	return s.Repo.Get(ctx, tenantID, id)
}

func (s *PropertyServiceImpl) ListProperties(ctx context.Context, tenantID primitive.ObjectID, filter ListFilter) ([]Property, int64, error) {
	return s.Repo.List(ctx, tenantID, filter)
}

func (s *PropertyServiceImpl) UpdateProperty(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error {
	// Publication fields are owned by the portal engine and only change
	// inside its transactional apply.
	for _, reserved := range []string{"is_published", "xe_ref_id", "last_sync_at", "last_sync_status", "last_package_id", "tenant_id"} {
		delete(updates, reserved)
	}
	if len(updates) == 0 {
		return fmt.Errorf("no updatable fields provided")
	}

	oldProperty, _ := s.Repo.Get(ctx, tenantID, id)

	err := s.Repo.Update(ctx, tenantID, id, updates)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "properties", id, map[string]common_models.Change{
			"property": {Old: oldProperty, New: updates},
		})
	}
	return err
}

func (s *PropertyServiceImpl) DeleteProperty(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oldProperty, _ := s.Repo.Get(ctx, tenantID, id)

	err := s.Repo.Delete(ctx, tenantID, id)
	if err == nil {
		name := id
		if oldProperty != nil {
			name = oldProperty.Title
		}
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "properties", name, map[string]common_models.Change{
			"property": {Old: oldProperty, New: "DELETED"},
		})
	}
	return err
}

func (s *PropertyServiceImpl) GetPublicationStatus(ctx context.Context, tenantID primitive.ObjectID, id string) (*PublicationStatus, error) {
	p, err := s.Repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &PublicationStatus{
		IsPublished:    p.IsPublished,
		XERefID:        p.XERefID,
		LastSyncAt:     p.LastSyncAt,
		LastSyncStatus: p.LastSyncStatus,
	}, nil
}

var exportHeaders = []string{"Title", "Category", "Type", "Price", "Size (m²)", "Bedrooms", "Bathrooms", "City", "Region", "Public", "Published on xe.gr", "xe.gr Ref"}

func (s *PropertyServiceImpl) ExportProperties(ctx context.Context, tenantID primitive.ObjectID) (*excelize.File, error) {
	properties, _, err := s.Repo.List(ctx, tenantID, ListFilter{Limit: 10000})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Properties"
	f.SetSheetName("Sheet1", sheet)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, p := range properties {
		values := []interface{}{
			p.Title,
			string(p.Category),
			p.Type,
			p.Price,
			p.Size,
			p.Bedrooms,
			p.Bathrooms,
			p.Address.City,
			p.Address.Region,
			p.IsPublic,
			p.IsPublished,
			p.XERefID,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionExport, "properties", tenantID.Hex(), map[string]common_models.Change{
		"exported": {New: len(properties)},
	})

	return f, nil
}
