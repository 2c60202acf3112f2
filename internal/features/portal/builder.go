package portal

import (
	"context"
	"fmt"
	"strings"

	"estia-crm/internal/features/agent"
	"estia-crm/internal/features/property"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PropertyReader is the slice of the property repository the engine needs.
type PropertyReader interface {
	FindByIDs(ctx context.Context, tenantID primitive.ObjectID, ids []primitive.ObjectID) ([]property.Property, error)
	CountPublished(ctx context.Context, tenantID primitive.ObjectID) (int64, error)
}

// AgentSettingsReader resolves per-agent portal identities.
type AgentSettingsReader interface {
	GetByAgent(ctx context.Context, tenantID, agentID primitive.ObjectID) (*agent.PortalSettings, error)
}

// PackageBuilder turns a set of property ids into an in-memory sync package.
// Construction is pure: nothing is persisted and the portal is not contacted.
type PackageBuilder struct {
	Properties    PropertyReader
	AgentSettings AgentSettingsReader
}

func NewPackageBuilder(properties PropertyReader, agentSettings AgentSettingsReader) *PackageBuilder {
	return &PackageBuilder{
		Properties:    properties,
		AgentSettings: agentSettings,
	}
}

// Build validates the batch and serializes each property. A single property
// with missing listing fields (ADD) or no ref id (REMOVE) is pre-failed
// rather than aborting the batch; only batch-level problems return an error.
func (b *PackageBuilder) Build(ctx context.Context, tenantID primitive.ObjectID, propertyIDs []primitive.ObjectID, op RequestType, cfg *IntegrationConfig) (*BuiltPackage, error) {
	if len(propertyIDs) == 0 {
		return nil, &ValidationError{Msg: "property list is empty"}
	}
	if cfg == nil || !cfg.IsActive {
		return nil, &ValidationError{Msg: "xe.gr integration is not active for this tenant"}
	}
	if op != RequestTypeAddItems && op != RequestTypeRemoveItems {
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown operation: %s", op)}
	}

	properties, err := b.Properties.FindByIDs(ctx, tenantID, propertyIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*property.Property, len(properties))
	for i := range properties {
		byID[properties[i].ID] = &properties[i]
	}
	for _, id := range propertyIDs {
		if _, ok := byID[id]; !ok {
			return nil, &ValidationError{Msg: fmt.Sprintf("property %s does not exist in this tenant", id.Hex())}
		}
	}

	pkg := &BuiltPackage{
		PackageID:   primitive.NewObjectID(),
		TenantID:    tenantID,
		RequestType: op,
		Items:       make([]BuiltItem, 0, len(propertyIDs)),
	}

	for _, id := range propertyIDs {
		p := byID[id]
		item := BuiltItem{
			PropertyID:   p.ID,
			PropertyName: p.Title,
		}

		switch op {
		case RequestTypeAddItems:
			if missing := missingListingFields(p); len(missing) > 0 {
				item.Failed = true
				item.FailReason = "missing required listing fields: " + strings.Join(missing, ", ")
				break
			}
			item.Listing = b.buildListing(ctx, p, cfg)
		case RequestTypeRemoveItems:
			if p.XERefID == "" {
				item.Failed = true
				item.FailReason = "not published"
				break
			}
			item.XERefID = p.XERefID
		}

		pkg.Items = append(pkg.Items, item)
	}

	return pkg, nil
}

func missingListingFields(p *property.Property) []string {
	var missing []string
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if p.Price <= 0 {
		missing = append(missing, "price")
	}
	if p.Size <= 0 {
		missing = append(missing, "size")
	}
	if strings.TrimSpace(p.Address.City) == "" {
		missing = append(missing, "city")
	}
	if p.Category != property.CategorySale && p.Category != property.CategoryRent {
		missing = append(missing, "category")
	}
	return missing
}

func (b *PackageBuilder) buildListing(ctx context.Context, p *property.Property, cfg *IntegrationConfig) *ListingPayload {
	ownerID := cfg.StoreID
	if !p.AgentID.IsZero() {
		// Agents with their own verified portal identity publish under it.
		if settings, err := b.AgentSettings.GetByAgent(ctx, p.TenantID, p.AgentID); err == nil && settings != nil && settings.IsActive {
			ownerID = settings.ExternalOwnerID
		}
	}

	return &ListingPayload{
		ItemRef:         p.ID.Hex(),
		OwnerID:         ownerID,
		Title:           p.Title,
		Category:        string(p.Category),
		Type:            p.Type,
		Price:           p.Price,
		Size:            p.Size,
		Bedrooms:        p.Bedrooms,
		Bathrooms:       p.Bathrooms,
		Floor:           p.Floor,
		Street:          p.Address.Street,
		City:            p.Address.City,
		Region:          p.Address.Region,
		Zip:             p.Address.Zip,
		Amenities:       p.Amenities,
		Description:     p.Description,
		Images:          p.Images,
		PublicationType: cfg.PublicationType,
		Trademark:       cfg.Trademark,
	}
}
