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

type bidRepository struct {
	collection *mongo.Collection
}

func NewBidRepository(db *mongo.Database) interfaces.BidRepository {
	return &bidRepository{
		collection: db.Collection("bids"),
	}
}

func (r *bidRepository) Create(ctx context.Context, bid *models.Bid) error {
	bid.ID = primitive.NewObjectID()
	bid.CreatedAt = time.Now()
	bid.UpdatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, bid); err != nil {
		return insertError(err, "bid")
	}
	return nil
}

func (r *bidRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bid, error) {
	var bid models.Bid
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&bid); err != nil {
		return nil, findError(err, "bid")
	}
	return &bid, nil
}

func (r *bidRepository) UpdateUnaccepted(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "is_accepted": false},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update bid: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrStaleState
	}
	return nil
}

func (r *bidRepository) DeleteUnaccepted(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "is_accepted": false})
	if err != nil {
		return fmt.Errorf("failed to delete bid: %w", err)
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrStaleState
	}
	return nil
}

func (r *bidRepository) MarkAccepted(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_accepted": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to accept bid: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *bidRepository) FindByRequestAndCollector(ctx context.Context, requestID, collectorID primitive.ObjectID) (*models.Bid, error) {
	var bid models.Bid
	err := r.collection.FindOne(ctx, bson.M{
		"pickup_request_id": requestID,
		"collector_id":      collectorID,
	}).Decode(&bid)
	if err != nil {
		return nil, findError(err, "bid")
	}
	return &bid, nil
}

func (r *bidRepository) ListByRequest(ctx context.Context, requestID primitive.ObjectID) ([]*models.Bid, error) {
	return r.find(ctx, bson.M{"pickup_request_id": requestID})
}

func (r *bidRepository) ListByCollector(ctx context.Context, collectorID primitive.ObjectID, accepted *bool) ([]*models.Bid, error) {
	filter := bson.M{"collector_id": collectorID}
	if accepted != nil {
		filter["is_accepted"] = *accepted
	}
	return r.find(ctx, filter)
}

func (r *bidRepository) RequestIDsWithBidFrom(ctx context.Context, collectorID primitive.ObjectID, requestIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	result := make(map[primitive.ObjectID]bool)
	if len(requestIDs) == 0 {
		return result, nil
	}

	values, err := r.collection.Distinct(ctx, "pickup_request_id", bson.M{
		"collector_id":      collectorID,
		"pickup_request_id": bson.M{"$in": requestIDs},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find bid requests: %w", err)
	}
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			result[id] = true
		}
	}
	return result, nil
}

func (r *bidRepository) find(ctx context.Context, filter bson.M) ([]*models.Bid, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer cursor.Close(ctx)

	bids := []*models.Bid{}
	if err := cursor.All(ctx, &bids); err != nil {
		return nil, fmt.Errorf("failed to decode bids: %w", err)
	}
	return bids, nil
}
