package portal

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestType string

const (
	RequestTypeAddItems    RequestType = "ADD_ITEMS"
	RequestTypeRemoveItems RequestType = "REMOVE_ITEMS"
)

// PackageStatus is the package state machine:
//
//	PROCESSING -> {SUCCESS, FAILED}
//
// Synchronous portal responses skip PROCESSING and land terminal directly.
// A package is FAILED only on transport failure or when every item failed;
// any successful item makes the package SUCCESS with accurate counts.
// Terminal packages are immutable; a retry creates a new package row.
type PackageStatus string

const (
	PackageStatusPending    PackageStatus = "PENDING"
	PackageStatusProcessing PackageStatus = "PROCESSING"
	PackageStatusSuccess    PackageStatus = "SUCCESS"
	PackageStatusFailed     PackageStatus = "FAILED"
)

func (s PackageStatus) Terminal() bool {
	return s == PackageStatusSuccess || s == PackageStatusFailed
}

type ItemStatus string

const (
	ItemStatusPending ItemStatus = "PENDING"
	ItemStatusSuccess ItemStatus = "SUCCESS"
	ItemStatusFailed  ItemStatus = "FAILED"
)

type PublicationType string

const (
	PublicationBasic PublicationType = "BASIC"
	PublicationGold  PublicationType = "GOLD"
)

// IntegrationConfig holds a tenant's xe.gr credentials and publishing policy.
// Deleting it stops future publishing; already-published listings stay up.
type IntegrationConfig struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID        primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	Username        string             `bson:"username" json:"username"`
	Password        string             `bson:"password" json:"-"`
	AuthToken       string             `bson:"auth_token" json:"-"`
	StoreID         string             `bson:"store_id" json:"store_id"` // external agent/store identifier
	IsActive        bool               `bson:"is_active" json:"is_active"`
	AutoPublish     bool               `bson:"auto_publish" json:"auto_publish"`
	PublicationType PublicationType    `bson:"publication_type" json:"publication_type"`
	Trademark       string             `bson:"trademark,omitempty" json:"trademark,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// SyncPackage is one submission batch sent to the portal.
type SyncPackage struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID     primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	SubmittedBy  primitive.ObjectID `bson:"submitted_by,omitempty" json:"submitted_by,omitempty"`
	RequestType  RequestType        `bson:"request_type" json:"request_type"`
	Status       PackageStatus      `bson:"status" json:"status"`
	TotalItems   int                `bson:"total_items" json:"total_items"`
	SuccessCount int                `bson:"success_count" json:"success_count"`
	FailureCount int                `bson:"failure_count" json:"failure_count"`
	ErrorMessage string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
	AckID        string             `bson:"ack_id,omitempty" json:"ack_id,omitempty"` // portal acknowledgement for async polling
	SubmittedAt  time.Time          `bson:"submitted_at" json:"submitted_at"`
	CompletedAt  *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// SyncItem is one property's outcome within a package. PropertyName is a
// snapshot taken at submission time so history stays readable after renames
// or deletions.
type SyncItem struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PackageID    primitive.ObjectID `bson:"package_id" json:"package_id"`
	TenantID     primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	PropertyID   primitive.ObjectID `bson:"property_id" json:"property_id"`
	PropertyName string             `bson:"property_name" json:"property_name"`
	XERefID      string             `bson:"xe_ref_id,omitempty" json:"xe_ref_id,omitempty"`
	Status       ItemStatus         `bson:"status" json:"status"`
	Error        string             `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// ListingPayload is the external xe.gr listing schema for ADD entries.
type ListingPayload struct {
	ItemRef         string          `json:"item_ref"` // our property id, echoed back by the portal
	OwnerID         string          `json:"owner_id"`
	Title           string          `json:"title"`
	Category        string          `json:"category"`
	Type            string          `json:"type"`
	Price           float64         `json:"price"`
	Size            float64         `json:"size"`
	Bedrooms        int             `json:"bedrooms,omitempty"`
	Bathrooms       int             `json:"bathrooms,omitempty"`
	Floor           int             `json:"floor,omitempty"`
	Street          string          `json:"street,omitempty"`
	City            string          `json:"city"`
	Region          string          `json:"region,omitempty"`
	Zip             string          `json:"zip,omitempty"`
	Amenities       []string        `json:"amenities,omitempty"`
	Description     string          `json:"description,omitempty"`
	Images          []string        `json:"images,omitempty"`
	PublicationType PublicationType `json:"publication_type"`
	Trademark       string          `json:"trademark,omitempty"`
}

// BuiltItem is one property's entry in an in-memory package under
// construction. Items can be pre-failed by the builder (missing required
// fields for ADD, no ref id for REMOVE) without aborting the batch.
type BuiltItem struct {
	PropertyID   primitive.ObjectID
	PropertyName string
	XERefID      string          // existing listing ref, set for REMOVE
	Listing      *ListingPayload // set for ADD
	Failed       bool
	FailReason   string
}

// BuiltPackage is the builder's pure output; nothing is persisted until the
// submitter runs.
type BuiltPackage struct {
	PackageID   primitive.ObjectID
	TenantID    primitive.ObjectID
	RequestType RequestType
	Items       []BuiltItem
}

// PublicationUpdate carries the property-field mutations applied in the same
// transaction as package/item writes.
type PublicationUpdate struct {
	PropertyID     primitive.ObjectID
	SetPublished   *bool  // nil leaves the flag untouched (failed items)
	SetRefID       bool   // when true, xe_ref_id is set to RefID (possibly empty to clear)
	RefID          string
	LastSyncAt     time.Time
	LastSyncStatus ItemStatus
	LastPackageID  primitive.ObjectID
}

type HistoryFilter struct {
	Status PackageStatus
	Limit  int64
	Offset int64
}

type HistoryPage struct {
	Items   []SyncPackage `json:"items"`
	Total   int64         `json:"total"`
	HasMore bool          `json:"has_more"`
}

type PackageDetail struct {
	Package SyncPackage `json:"package"`
	Items   []SyncItem  `json:"items"`
}

type SubmitResult struct {
	Package SyncPackage `json:"package"`
	Items   []SyncItem  `json:"items"`
}

type SyncStats struct {
	TotalSyncs            int64      `json:"total_syncs"`
	SuccessfulSyncs       int64      `json:"successful_syncs"`
	FailedSyncs           int64      `json:"failed_syncs"`
	PendingSyncs          int64      `json:"pending_syncs"`
	TotalPropertiesSynced int64      `json:"total_properties_synced"`
	// SuccessRate is the plain ratio successful/total, 0 when no syncs exist.
	SuccessRate float64 `json:"success_rate"`
	LastSyncAt            *time.Time `json:"last_sync_at,omitempty"`
}
