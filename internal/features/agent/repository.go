package agent

import (
	"context"
	"time"

	"estia-crm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AgentRepository interface {
	Create(ctx context.Context, a *Agent) error
	Get(ctx context.Context, tenantID primitive.ObjectID, id string) (*Agent, error)
	List(ctx context.Context, tenantID primitive.ObjectID) ([]Agent, error)
	Update(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error
}

type SettingsRepository interface {
	GetByAgent(ctx context.Context, tenantID, agentID primitive.ObjectID) (*PortalSettings, error)
	Upsert(ctx context.Context, settings *PortalSettings) error
	Delete(ctx context.Context, tenantID, agentID primitive.ObjectID) error
}

type AgentRepositoryImpl struct {
	collection *mongo.Collection
}

func NewAgentRepository(db *database.MongodbDB) AgentRepository {
	return &AgentRepositoryImpl{
		collection: db.DB.Collection("agents"),
	}
}

func (r *AgentRepositoryImpl) Create(ctx context.Context, a *Agent) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, a)
	return err
}

func (r *AgentRepositoryImpl) Get(ctx context.Context, tenantID primitive.ObjectID, id string) (*Agent, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var a Agent
	err = r.collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&a)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func (r *AgentRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID) ([]Agent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var agents []Agent
	if err = cursor.All(ctx, &agents); err != nil {
		return nil, err
	}

	return agents, nil
}

func (r *AgentRepositoryImpl) Update(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error {
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

func (r *AgentRepositoryImpl) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID})
	return err
}

type SettingsRepositoryImpl struct {
	collection *mongo.Collection
}

func NewSettingsRepository(db *database.MongodbDB) SettingsRepository {
	return &SettingsRepositoryImpl{
		collection: db.DB.Collection("agent_portal_settings"),
	}
}

func (r *SettingsRepositoryImpl) GetByAgent(ctx context.Context, tenantID, agentID primitive.ObjectID) (*PortalSettings, error) {
	var settings PortalSettings
	err := r.collection.FindOne(ctx, bson.M{"tenant_id": tenantID, "agent_id": agentID}).Decode(&settings)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *SettingsRepositoryImpl) Upsert(ctx context.Context, settings *PortalSettings) error {
	settings.UpdatedAt = time.Now()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = time.Now()
	}
	filter := bson.M{"tenant_id": settings.TenantID, "agent_id": settings.AgentID}
	update := bson.M{"$set": settings}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

func (r *SettingsRepositoryImpl) Delete(ctx context.Context, tenantID, agentID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"tenant_id": tenantID, "agent_id": agentID})
	return err
}
