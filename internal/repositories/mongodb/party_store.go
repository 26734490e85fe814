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
)

const defaultPartyTTL = 15 * time.Minute

// partyStore holds the operations customers and collectors share.
type partyStore struct {
	collection *mongo.Collection
	cache      CacheService
	kind       string
	ttl        time.Duration
}

func newPartyStore(db *mongo.Database, name, kind string, cache CacheService, ttl time.Duration) *partyStore {
	if ttl <= 0 {
		ttl = defaultPartyTTL
	}
	return &partyStore{
		collection: db.Collection(name),
		cache:      cache,
		kind:       kind,
		ttl:        ttl,
	}
}

func (s *partyStore) cacheKey(id primitive.ObjectID) string {
	return fmt.Sprintf("%s:%s", s.kind, id.Hex())
}

func (s *partyStore) insert(ctx context.Context, doc interface{}) error {
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return insertError(err, s.kind)
	}
	return nil
}

// findByID reads through the cache. Inactive parties are never returned.
func (s *partyStore) findByID(ctx context.Context, id primitive.ObjectID, dest interface{}) error {
	if s.cache != nil {
		var raw []byte
		if err := s.cache.Get(ctx, s.cacheKey(id), &raw); err == nil && bson.Unmarshal(raw, dest) == nil {
			return nil
		}
	}

	err := s.collection.FindOne(ctx, bson.M{"_id": id, "is_active": true}).Decode(dest)
	if err != nil {
		return findError(err, s.kind)
	}

	// Cached as BSON so fields hidden from JSON survive the round trip.
	if s.cache != nil {
		if raw, err := bson.Marshal(dest); err == nil {
			s.cache.Set(ctx, s.cacheKey(id), raw, s.ttl)
		}
	}
	return nil
}

func (s *partyStore) findOne(ctx context.Context, filter bson.M, dest interface{}) error {
	filter["is_active"] = true
	if err := s.collection.FindOne(ctx, filter).Decode(dest); err != nil {
		return findError(err, s.kind)
	}
	return nil
}

func (s *partyStore) updateOne(ctx context.Context, filter bson.M, update bson.M, id primitive.ObjectID) error {
	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to update %s: %w", s.kind, interfaces.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to update %s: %w", s.kind, err)
	}

	s.invalidate(ctx, id)

	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (s *partyStore) update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return s.updateOne(ctx, bson.M{"_id": id, "is_active": true}, bson.M{"$set": updates}, id)
}

func (s *partyStore) deactivate(ctx context.Context, id primitive.ObjectID) error {
	return s.update(ctx, id, map[string]interface{}{"is_active": false})
}

// applyRating folds one more rating into the running aggregate in a single write.
func (s *partyStore) applyRating(ctx context.Context, id primitive.ObjectID, stars int) error {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"rating.total_stars":   bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$rating.total_stars", 0}}, stars}},
			"rating.total_ratings": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$rating.total_ratings", 0}}, 1}},
			"updated_at":           time.Now(),
		}}},
		{{Key: "$set", Value: bson.M{
			"rating.average": bson.M{"$divide": bson.A{"$rating.total_stars", "$rating.total_ratings"}},
		}}},
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to apply %s rating: %w", s.kind, err)
	}
	s.invalidate(ctx, id)
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

// addDeviceToken replaces any earlier registration of the same token.
func (s *partyStore) addDeviceToken(ctx context.Context, id primitive.ObjectID, token models.DeviceToken) error {
	if _, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$pull": bson.M{"device_tokens": bson.M{"token": token.Token}}},
	); err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}

	return s.updateOne(ctx,
		bson.M{"_id": id, "is_active": true},
		bson.M{
			"$push": bson.M{"device_tokens": token},
			"$set":  bson.M{"updated_at": time.Now()},
		},
		id,
	)
}

func (s *partyStore) invalidate(ctx context.Context, id primitive.ObjectID) {
	if s.cache != nil {
		s.cache.Delete(ctx, s.cacheKey(id))
	}
}
