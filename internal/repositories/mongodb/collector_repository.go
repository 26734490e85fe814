package mongodb

import (
	"context"
	"time"

	"raddiwala/internal/models"
	"raddiwala/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type collectorRepository struct {
	*partyStore
}

func NewCollectorRepository(db *mongo.Database, cache CacheService, ttl time.Duration) interfaces.CollectorRepository {
	return &collectorRepository{
		partyStore: newPartyStore(db, "collectors", "collector", cache, ttl),
	}
}

func (r *collectorRepository) Create(ctx context.Context, collector *models.Collector) error {
	now := time.Now()
	collector.ID = primitive.NewObjectID()
	collector.CreatedAt = now
	collector.UpdatedAt = now
	collector.IsActive = true
	if collector.LastResetDate.IsZero() {
		collector.LastResetDate = now
	}
	return r.insert(ctx, collector)
}

func (r *collectorRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Collector, error) {
	var collector models.Collector
	if err := r.findByID(ctx, id, &collector); err != nil {
		return nil, err
	}
	return &collector, nil
}

func (r *collectorRepository) GetByEmail(ctx context.Context, email string) (*models.Collector, error) {
	var collector models.Collector
	if err := r.findOne(ctx, bson.M{"email": email}, &collector); err != nil {
		return nil, err
	}
	return &collector, nil
}

func (r *collectorRepository) GetByPhone(ctx context.Context, phone string) (*models.Collector, error) {
	var collector models.Collector
	if err := r.findOne(ctx, bson.M{"phone": phone}, &collector); err != nil {
		return nil, err
	}
	return &collector, nil
}

func (r *collectorRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return r.update(ctx, id, updates)
}

func (r *collectorRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return r.deactivate(ctx, id)
}

func (r *collectorRepository) ApplyRating(ctx context.Context, id primitive.ObjectID, stars int) error {
	return r.applyRating(ctx, id, stars)
}

func (r *collectorRepository) AddDeviceToken(ctx context.Context, id primitive.ObjectID, token models.DeviceToken) error {
	return r.addDeviceToken(ctx, id, token)
}

func (r *collectorRepository) ResetMonthlyCount(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"monthly_pickups_count": 0,
		"last_reset_date":       at,
	})
}

func (r *collectorRepository) IncrementMonthlyPickups(ctx context.Context, id primitive.ObjectID) error {
	return r.updateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"monthly_pickups_count": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
		id,
	)
}

func (r *collectorRepository) SetPremium(ctx context.Context, id primitive.ObjectID, premium bool) error {
	return r.updateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_premium_user": premium, "updated_at": time.Now()}},
		id,
	)
}
