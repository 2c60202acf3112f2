package property

import (
	"context"
	"time"

	"estia-crm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PropertyRepository interface {
	Create(ctx context.Context, p *Property) error
	Get(ctx context.Context, tenantID primitive.ObjectID, id string) (*Property, error)
	List(ctx context.Context, tenantID primitive.ObjectID, filter ListFilter) ([]Property, int64, error)
	FindByIDs(ctx context.Context, tenantID primitive.ObjectID, ids []primitive.ObjectID) ([]Property, error)
	Update(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error
	CountPublished(ctx context.Context, tenantID primitive.ObjectID) (int64, error)
}

type PropertyRepositoryImpl struct {
	collection *mongo.Collection
}

func NewPropertyRepository(db *database.MongodbDB) PropertyRepository {
	return &PropertyRepositoryImpl{
		collection: db.DB.Collection("properties"),
	}
}

func (r *PropertyRepositoryImpl) Create(ctx context.Context, p *Property) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, p)
	return err
}

func (r *PropertyRepositoryImpl) Get(ctx context.Context, tenantID primitive.ObjectID, id string) (*Property, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var p Property
	err = r.collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&p)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *PropertyRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID, filter ListFilter) ([]Property, int64, error) {
	query := bson.M{"tenant_id": tenantID}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.AgentID != "" {
		if oid, err := primitive.ObjectIDFromHex(filter.AgentID); err == nil {
			query["agent_id"] = oid
		}
	}
	if filter.Public != nil {
		query["is_public"] = *filter.Public
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(filter.Offset).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var properties []Property
	if err = cursor.All(ctx, &properties); err != nil {
		return nil, 0, err
	}

	return properties, total, nil
}

func (r *PropertyRepositoryImpl) FindByIDs(ctx context.Context, tenantID primitive.ObjectID, ids []primitive.ObjectID) ([]Property, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"_id":       bson.M{"$in": ids},
		"tenant_id": tenantID,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var properties []Property
	if err = cursor.All(ctx, &properties); err != nil {
		return nil, err
	}

	return properties, nil
}

func (r *PropertyRepositoryImpl) Update(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	updates["updated_at"] = time.Now()
	_, err = r.collection.UpdateOne(
		ctx,
		bson.M{"_id": oid, "tenant_id": tenantID},
		bson.M{"$set": updates},
	)
	return err
}

func (r *PropertyRepositoryImpl) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID})
	return err
}

func (r *PropertyRepositoryImpl) CountPublished(ctx context.Context, tenantID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"tenant_id": tenantID, "is_published": true})
}
