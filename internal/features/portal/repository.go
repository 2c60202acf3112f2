package portal

import (
	"context"
	"time"

	"estia-crm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ConfigRepository interface {
	GetByTenant(ctx context.Context, tenantID primitive.ObjectID) (*IntegrationConfig, error)
	Upsert(ctx context.Context, cfg *IntegrationConfig) error
	Delete(ctx context.Context, tenantID primitive.ObjectID) error
}

type PackageRepository interface {
	// SaveSubmission persists a new package, its items and the property
	// publication updates in one transaction.
	SaveSubmission(ctx context.Context, pkg *SyncPackage, items []SyncItem, updates []PublicationUpdate) error
	// SaveReconciliation rewrites an existing package and its resolved items
	// plus property updates, again atomically.
	SaveReconciliation(ctx context.Context, pkg *SyncPackage, items []SyncItem, updates []PublicationUpdate) error
	Get(ctx context.Context, tenantID primitive.ObjectID, id primitive.ObjectID) (*SyncPackage, error)
	List(ctx context.Context, tenantID primitive.ObjectID, filter HistoryFilter) ([]SyncPackage, int64, error)
	ListItems(ctx context.Context, packageID primitive.ObjectID) ([]SyncItem, error)
	ListProcessing(ctx context.Context) ([]SyncPackage, error)
	CountByStatus(ctx context.Context, tenantID primitive.ObjectID) (map[PackageStatus]int64, error)
	LatestSubmittedAt(ctx context.Context, tenantID primitive.ObjectID) (*time.Time, error)
}

type ConfigRepositoryImpl struct {
	collection *mongo.Collection
}

func NewConfigRepository(db *database.MongodbDB) ConfigRepository {
	return &ConfigRepositoryImpl{
		collection: db.DB.Collection("portal_configs"),
	}
}

func (r *ConfigRepositoryImpl) GetByTenant(ctx context.Context, tenantID primitive.ObjectID) (*IntegrationConfig, error) {
	var cfg IntegrationConfig
	err := r.collection.FindOne(ctx, bson.M{"tenant_id": tenantID}).Decode(&cfg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *ConfigRepositoryImpl) Upsert(ctx context.Context, cfg *IntegrationConfig) error {
	cfg.UpdatedAt = time.Now()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now()
	}
	if cfg.ID.IsZero() {
		cfg.ID = primitive.NewObjectID()
	}

	filter := bson.M{"tenant_id": cfg.TenantID}
	update := bson.M{"$set": cfg}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

func (r *ConfigRepositoryImpl) Delete(ctx context.Context, tenantID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"tenant_id": tenantID})
	return err
}

type PackageRepositoryImpl struct {
	client     *mongo.Client
	packages   *mongo.Collection
	items      *mongo.Collection
	properties *mongo.Collection
}

func NewPackageRepository(db *database.MongodbDB) PackageRepository {
	return &PackageRepositoryImpl{
		client:     db.Client,
		packages:   db.DB.Collection("sync_packages"),
		items:      db.DB.Collection("sync_items"),
		properties: db.DB.Collection("properties"),
	}
}

func (r *PackageRepositoryImpl) SaveSubmission(ctx context.Context, pkg *SyncPackage, items []SyncItem, updates []PublicationUpdate) error {
	return r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.packages.InsertOne(sc, pkg); err != nil {
			return err
		}
		if len(items) > 0 {
			docs := make([]interface{}, len(items))
			for i := range items {
				docs[i] = items[i]
			}
			if _, err := r.items.InsertMany(sc, docs); err != nil {
				return err
			}
		}
		return r.applyPropertyUpdates(sc, updates)
	})
}

func (r *PackageRepositoryImpl) SaveReconciliation(ctx context.Context, pkg *SyncPackage, items []SyncItem, updates []PublicationUpdate) error {
	return r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.packages.ReplaceOne(sc, bson.M{"_id": pkg.ID}, pkg); err != nil {
			return err
		}
		for i := range items {
			items[i].UpdatedAt = time.Now()
			if _, err := r.items.ReplaceOne(sc, bson.M{"_id": items[i].ID}, items[i]); err != nil {
				return err
			}
		}
		return r.applyPropertyUpdates(sc, updates)
	})
}

func (r *PackageRepositoryImpl) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *PackageRepositoryImpl) applyPropertyUpdates(sc mongo.SessionContext, updates []PublicationUpdate) error {
	for _, u := range updates {
		set := bson.M{
			"last_sync_at":     u.LastSyncAt,
			"last_sync_status": string(u.LastSyncStatus),
			"last_package_id":  u.LastPackageID.Hex(),
		}
		if u.SetPublished != nil {
			set["is_published"] = *u.SetPublished
		}
		if u.SetRefID {
			set["xe_ref_id"] = u.RefID
		}
		if _, err := r.properties.UpdateOne(sc, bson.M{"_id": u.PropertyID}, bson.M{"$set": set}); err != nil {
			return err
		}
	}
	return nil
}

func (r *PackageRepositoryImpl) Get(ctx context.Context, tenantID primitive.ObjectID, id primitive.ObjectID) (*SyncPackage, error) {
	var pkg SyncPackage
	err := r.packages.FindOne(ctx, bson.M{"_id": id, "tenant_id": tenantID}).Decode(&pkg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &NotFoundError{Resource: "package", ID: id.Hex()}
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *PackageRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID, filter HistoryFilter) ([]SyncPackage, int64, error) {
	query := bson.M{"tenant_id": tenantID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.packages.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "submitted_at", Value: -1}}).
		SetSkip(filter.Offset).
		SetLimit(limit)

	cursor, err := r.packages.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var packages []SyncPackage
	if err = cursor.All(ctx, &packages); err != nil {
		return nil, 0, err
	}

	return packages, total, nil
}

func (r *PackageRepositoryImpl) ListItems(ctx context.Context, packageID primitive.ObjectID) ([]SyncItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.items.Find(ctx, bson.M{"package_id": packageID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []SyncItem
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PackageRepositoryImpl) ListProcessing(ctx context.Context) ([]SyncPackage, error) {
	cursor, err := r.packages.Find(ctx, bson.M{
		"status": bson.M{"$in": []PackageStatus{PackageStatusPending, PackageStatusProcessing}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var packages []SyncPackage
	if err = cursor.All(ctx, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

func (r *PackageRepositoryImpl) CountByStatus(ctx context.Context, tenantID primitive.ObjectID) (map[PackageStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tenant_id": tenantID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.packages.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status PackageStatus `bson:"_id"`
		Count  int64         `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[PackageStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *PackageRepositoryImpl) LatestSubmittedAt(ctx context.Context, tenantID primitive.ObjectID) (*time.Time, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	var pkg SyncPackage
	err := r.packages.FindOne(ctx, bson.M{"tenant_id": tenantID}, opts).Decode(&pkg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &pkg.SubmittedAt, nil
}
