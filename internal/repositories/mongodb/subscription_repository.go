package mongodb

import (
	"context"
	"fmt"
	"time"

	"raddiwala/internal/models"
	"raddiwala/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type subscriptionRepository struct {
	collection *mongo.Collection
}

func NewSubscriptionRepository(db *mongo.Database) interfaces.SubscriptionRepository {
	return &subscriptionRepository{
		collection: db.Collection("subscriptions"),
	}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	sub.ID = primitive.NewObjectID()
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, sub); err != nil {
		return insertError(err, "subscription")
	}
	return nil
}

func (r *subscriptionRepository) GetLatestActive(ctx context.Context, collectorID primitive.ObjectID) (*models.Subscription, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "expiry_date", Value: -1}})

	var sub models.Subscription
	err := r.collection.FindOne(ctx, bson.M{"collector_id": collectorID, "is_active": true}, opts).Decode(&sub)
	if err != nil {
		return nil, findError(err, "subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepository) ListByCollector(ctx context.Context, collectorID primitive.ObjectID) ([]*models.Subscription, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"collector_id": collectorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	subs := []*models.Subscription{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", err)
	}
	return subs, nil
}
