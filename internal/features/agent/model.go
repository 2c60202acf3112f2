package agent

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Agent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Phone     string             `bson:"phone" json:"phone"`
	PhotoURL  string             `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Bio       string             `bson:"bio,omitempty" json:"bio,omitempty"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// PortalSettings lets an agent publish to xe.gr under its own identity
// instead of the tenant's store account. At most one record per agent;
// deleting it disables that agent's publishing without touching history.
type PortalSettings struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID        primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	AgentID         primitive.ObjectID `bson:"agent_id" json:"agent_id"`
	ExternalOwnerID string             `bson:"external_owner_id" json:"external_owner_id"`
	PrimaryPhone    string             `bson:"primary_phone" json:"primary_phone"` // must be portal-verified
	ExtraPhones     []string           `bson:"extra_phones,omitempty" json:"extra_phones,omitempty"`
	IsActive        bool               `bson:"is_active" json:"is_active"`
	AutoPublish     bool               `bson:"auto_publish" json:"auto_publish"`
	PublicationType string             `bson:"publication_type" json:"publication_type"` // BASIC or GOLD
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}
