package property

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category string

const (
	CategorySale Category = "sale"
	CategoryRent Category = "rent"
)

type Address struct {
	Street string `bson:"street" json:"street"`
	City   string `bson:"city" json:"city"`
	Region string `bson:"region" json:"region"`
	Zip    string `bson:"zip" json:"zip"`
}

type Property struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID    primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	AgentID     primitive.ObjectID `bson:"agent_id,omitempty" json:"agent_id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Slug        string             `bson:"slug" json:"slug"`
	Category    Category           `bson:"category" json:"category"`
	Type        string             `bson:"type" json:"type"` // apartment, house, land, commercial
	Price       float64            `bson:"price" json:"price"`
	Size        float64            `bson:"size" json:"size"` // square meters
	Bedrooms    int                `bson:"bedrooms" json:"bedrooms"`
	Bathrooms   int                `bson:"bathrooms" json:"bathrooms"`
	Floor       int                `bson:"floor" json:"floor"`
	YearBuilt   int                `bson:"year_built,omitempty" json:"year_built,omitempty"`
	Address     Address            `bson:"address" json:"address"`
	Amenities   []string           `bson:"amenities,omitempty" json:"amenities,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Images      []string           `bson:"images,omitempty" json:"images,omitempty"`

	// IsPublic controls site visibility; publication to xe.gr is tracked
	// separately by the fields below, written only by the portal engine.
	IsPublic       bool       `bson:"is_public" json:"is_public"`
	IsPublished    bool       `bson:"is_published" json:"is_published"`
	XERefID        string     `bson:"xe_ref_id,omitempty" json:"xe_ref_id,omitempty"`
	LastSyncAt     *time.Time `bson:"last_sync_at,omitempty" json:"last_sync_at,omitempty"`
	LastSyncStatus string     `bson:"last_sync_status,omitempty" json:"last_sync_status,omitempty"`
	LastPackageID  string     `bson:"last_package_id,omitempty" json:"last_package_id,omitempty"`

	CreatedBy primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// PublicationStatus is the O(1) projection of a property's portal state,
// read straight off the property document.
type PublicationStatus struct {
	IsPublished    bool       `json:"is_published"`
	XERefID        string     `json:"xe_ref_id,omitempty"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	LastSyncStatus string     `json:"last_sync_status,omitempty"`
}

type ListFilter struct {
	Category Category
	AgentID  string
	Public   *bool
	Limit    int64
	Offset   int64
}
