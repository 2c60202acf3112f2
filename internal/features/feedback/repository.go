package feedback

import (
	"context"
	"time"

	"estia-crm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FeedbackRepository interface {
	Create(ctx context.Context, f *Feedback) error
	Get(ctx context.Context, tenantID primitive.ObjectID, id string) (*Feedback, error)
	List(ctx context.Context, tenantID primitive.ObjectID, status FeedbackStatus, limit, offset int64) ([]Feedback, int64, error)
	UpdateStatus(ctx context.Context, tenantID primitive.ObjectID, id string, status FeedbackStatus) error
}

type FeedbackRepositoryImpl struct {
	collection *mongo.Collection
}

func NewFeedbackRepository(db *database.MongodbDB) FeedbackRepository {
	return &FeedbackRepositoryImpl{
		collection: db.DB.Collection("feedback"),
	}
}

func (r *FeedbackRepositoryImpl) Create(ctx context.Context, f *Feedback) error {
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	if f.Status == "" {
		f.Status = FeedbackStatusNew
	}
	f.CreatedAt = time.Now()
	f.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, f)
	return err
}

func (r *FeedbackRepositoryImpl) Get(ctx context.Context, tenantID primitive.ObjectID, id string) (*Feedback, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var f Feedback
	err = r.collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&f)
	if err != nil {
		return nil, err
	}

	return &f, nil
}

func (r *FeedbackRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID, status FeedbackStatus, limit, offset int64) ([]Feedback, int64, error) {
	query := bson.M{"tenant_id": tenantID}
	if status != "" {
		query["status"] = status
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var items []Feedback
	if err = cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *FeedbackRepositoryImpl) UpdateStatus(ctx context.Context, tenantID primitive.ObjectID, id string, status FeedbackStatus) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(
		ctx,
		bson.M{"_id": oid, "tenant_id": tenantID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	return err
}
