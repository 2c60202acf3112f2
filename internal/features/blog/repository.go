package blog

import (
	"context"
	"time"

	"estia-crm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	Get(ctx context.Context, tenantID primitive.ObjectID, id string) (*Post, error)
	List(ctx context.Context, tenantID primitive.ObjectID, publishedOnly bool, limit, offset int64) ([]Post, int64, error)
	Update(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error
}

type PostRepositoryImpl struct {
	collection *mongo.Collection
}

func NewPostRepository(db *database.MongodbDB) PostRepository {
	return &PostRepositoryImpl{
		collection: db.DB.Collection("blog_posts"),
	}
}

func (r *PostRepositoryImpl) Create(ctx context.Context, post *Post) error {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	post.CreatedAt = time.Now()
	post.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, post)
	return err
}

func (r *PostRepositoryImpl) Get(ctx context.Context, tenantID primitive.ObjectID, id string) (*Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var post Post
	err = r.collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&post)
	if err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *PostRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID, publishedOnly bool, limit, offset int64) ([]Post, int64, error) {
	query := bson.M{"tenant_id": tenantID}
	if publishedOnly {
		query["is_published"] = true
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

	var posts []Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *PostRepositoryImpl) Update(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error {
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

func (r *PostRepositoryImpl) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID})
	return err
}
