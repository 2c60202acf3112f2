package portal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"estia-crm/internal/features/agent"
	"estia-crm/internal/features/property"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockPropertyReader struct {
	Properties     []property.Property
	PublishedCount int64
}

func (m *MockPropertyReader) FindByIDs(ctx context.Context, tenantID primitive.ObjectID, ids []primitive.ObjectID) ([]property.Property, error) {
	var out []property.Property
	for _, p := range m.Properties {
		if p.TenantID != tenantID {
			continue
		}
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (m *MockPropertyReader) CountPublished(ctx context.Context, tenantID primitive.ObjectID) (int64, error) {
	return m.PublishedCount, nil
}

type MockAgentSettings struct {
	Settings map[primitive.ObjectID]*agent.PortalSettings
}

func (m *MockAgentSettings) GetByAgent(ctx context.Context, tenantID, agentID primitive.ObjectID) (*agent.PortalSettings, error) {
	return m.Settings[agentID], nil
}

func validProperty(tenantID primitive.ObjectID) property.Property {
	return property.Property{
		ID:       primitive.NewObjectID(),
		TenantID: tenantID,
		Title:    "Kolonaki apartment",
		Category: property.CategorySale,
		Type:     "apartment",
		Price:    250000,
		Size:     85,
		Address:  property.Address{City: "Athens", Street: "Skoufa 12"},
	}
}

func activeConfig(tenantID primitive.ObjectID) *IntegrationConfig {
	return &IntegrationConfig{
		TenantID:        tenantID,
		Username:        "estia",
		Password:        "pw",
		StoreID:         "store-42",
		IsActive:        true,
		PublicationType: PublicationGold,
	}
}

func TestBuildRejectsEmptyList(t *testing.T) {
	tenantID := primitive.NewObjectID()
	b := NewPackageBuilder(&MockPropertyReader{}, &MockAgentSettings{})

	_, err := b.Build(context.Background(), tenantID, nil, RequestTypeAddItems, activeConfig(tenantID))

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBuildRejectsInactiveConfig(t *testing.T) {
	tenantID := primitive.NewObjectID()
	p := validProperty(tenantID)
	b := NewPackageBuilder(&MockPropertyReader{Properties: []property.Property{p}}, &MockAgentSettings{})

	cfg := activeConfig(tenantID)
	cfg.IsActive = false
	_, err := b.Build(context.Background(), tenantID, []primitive.ObjectID{p.ID}, RequestTypeAddItems, cfg)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBuildRejectsUnknownProperty(t *testing.T) {
	tenantID := primitive.NewObjectID()
	b := NewPackageBuilder(&MockPropertyReader{}, &MockAgentSettings{})

	_, err := b.Build(context.Background(), tenantID, []primitive.ObjectID{primitive.NewObjectID()}, RequestTypeAddItems, activeConfig(tenantID))

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBuildRejectsCrossTenantProperty(t *testing.T) {
	tenantID := primitive.NewObjectID()
	other := validProperty(primitive.NewObjectID())
	b := NewPackageBuilder(&MockPropertyReader{Properties: []property.Property{other}}, &MockAgentSettings{})

	_, err := b.Build(context.Background(), tenantID, []primitive.ObjectID{other.ID}, RequestTypeAddItems, activeConfig(tenantID))

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBuildPreFailsIncompleteListing(t *testing.T) {
	tenantID := primitive.NewObjectID()
	good := validProperty(tenantID)
	bad := validProperty(tenantID)
	bad.Price = 0
	bad.Address.City = ""

	b := NewPackageBuilder(&MockPropertyReader{Properties: []property.Property{good, bad}}, &MockAgentSettings{})

	pkg, err := b.Build(context.Background(), tenantID, []primitive.ObjectID{good.ID, bad.ID}, RequestTypeAddItems, activeConfig(tenantID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pkg.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(pkg.Items))
	}
	if pkg.Items[0].Failed {
		t.Errorf("complete property should not be pre-failed: %s", pkg.Items[0].FailReason)
	}
	if pkg.Items[0].Listing == nil {
		t.Error("complete property should carry a listing payload")
	}
	if !pkg.Items[1].Failed {
		t.Fatal("incomplete property should be pre-failed")
	}
	if !strings.Contains(pkg.Items[1].FailReason, "price") || !strings.Contains(pkg.Items[1].FailReason, "city") {
		t.Errorf("fail reason should name the missing fields, got %q", pkg.Items[1].FailReason)
	}
}

func TestBuildRemovePreFailsUnpublished(t *testing.T) {
	tenantID := primitive.NewObjectID()
	published := validProperty(tenantID)
	published.XERefID = "xe-123"
	unpublished := validProperty(tenantID)

	b := NewPackageBuilder(&MockPropertyReader{Properties: []property.Property{published, unpublished}}, &MockAgentSettings{})

	pkg, err := b.Build(context.Background(), tenantID, []primitive.ObjectID{published.ID, unpublished.ID}, RequestTypeRemoveItems, activeConfig(tenantID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkg.Items[0].Failed {
		t.Error("published property should be removable")
	}
	if pkg.Items[0].XERefID != "xe-123" {
		t.Errorf("expected ref id xe-123, got %q", pkg.Items[0].XERefID)
	}
	if !pkg.Items[1].Failed || pkg.Items[1].FailReason != "not published" {
		t.Errorf("unpublished property should pre-fail with 'not published', got %q", pkg.Items[1].FailReason)
	}
}

func TestBuildOwnerIDFallsBackToStore(t *testing.T) {
	tenantID := primitive.NewObjectID()
	p := validProperty(tenantID)
	b := NewPackageBuilder(&MockPropertyReader{Properties: []property.Property{p}}, &MockAgentSettings{})

	pkg, err := b.Build(context.Background(), tenantID, []primitive.ObjectID{p.ID}, RequestTypeAddItems, activeConfig(tenantID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pkg.Items[0].Listing.OwnerID; got != "store-42" {
		t.Errorf("expected owner store-42, got %q", got)
	}
}

func TestBuildOwnerIDUsesActiveAgentSettings(t *testing.T) {
	tenantID := primitive.NewObjectID()
	agentID := primitive.NewObjectID()
	p := validProperty(tenantID)
	p.AgentID = agentID

	settings := &MockAgentSettings{Settings: map[primitive.ObjectID]*agent.PortalSettings{
		agentID: {AgentID: agentID, ExternalOwnerID: "agent-7", PrimaryPhone: "2101234567", IsActive: true},
	}}
	b := NewPackageBuilder(&MockPropertyReader{Properties: []property.Property{p}}, settings)

	pkg, err := b.Build(context.Background(), tenantID, []primitive.ObjectID{p.ID}, RequestTypeAddItems, activeConfig(tenantID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pkg.Items[0].Listing.OwnerID; got != "agent-7" {
		t.Errorf("expected owner agent-7, got %q", got)
	}
}

func TestBuildListingCarriesConfigPublicationType(t *testing.T) {
	tenantID := primitive.NewObjectID()
	p := validProperty(tenantID)
	b := NewPackageBuilder(&MockPropertyReader{Properties: []property.Property{p}}, &MockAgentSettings{})

	pkg, err := b.Build(context.Background(), tenantID, []primitive.ObjectID{p.ID}, RequestTypeAddItems, activeConfig(tenantID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	listing := pkg.Items[0].Listing
	if listing.PublicationType != PublicationGold {
		t.Errorf("expected GOLD publication, got %s", listing.PublicationType)
	}
	if listing.ItemRef != p.ID.Hex() {
		t.Errorf("item ref should be the property id, got %q", listing.ItemRef)
	}
}
