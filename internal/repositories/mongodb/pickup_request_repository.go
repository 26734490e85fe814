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

type pickupRequestRepository struct {
	collection *mongo.Collection
}

func NewPickupRequestRepository(db *mongo.Database) interfaces.PickupRequestRepository {
	return &pickupRequestRepository{
		collection: db.Collection("pickup_requests"),
	}
}

func (r *pickupRequestRepository) Create(ctx context.Context, request *models.PickupRequest) error {
	request.ID = primitive.NewObjectID()
	request.CreatedAt = time.Now()
	request.UpdatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, request); err != nil {
		return insertError(err, "pickup request")
	}
	return nil
}

func (r *pickupRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PickupRequest, error) {
	var request models.PickupRequest
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request); err != nil {
		return nil, findError(err, "pickup request")
	}
	return &request, nil
}

func (r *pickupRequestRepository) UpdateWhereStatus(ctx context.Context, id primitive.ObjectID, status models.PickupStatus, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": status},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update pickup request: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrStaleState
	}
	return nil
}

func (r *pickupRequestRepository) ListByCustomer(ctx context.Context, customerID primitive.ObjectID, status models.PickupStatus) ([]*models.PickupRequest, error) {
	filter := bson.M{"customer_id": customerID}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter)
}

func (r *pickupRequestRepository) ListOpenByAddresses(ctx context.Context, addressIDs []primitive.ObjectID) ([]*models.PickupRequest, error) {
	if len(addressIDs) == 0 {
		return []*models.PickupRequest{}, nil
	}
	return r.find(ctx, bson.M{
		"address_id": bson.M{"$in": addressIDs},
		"status":     models.PickupStatusOpen,
		"is_active":  true,
	})
}

func (r *pickupRequestRepository) CountActiveByAddress(ctx context.Context, addressID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"address_id": addressID,
		"status":     bson.M{"$in": bson.A{models.PickupStatusOpen, models.PickupStatusAccepted}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count pickup requests: %w", err)
	}
	return count, nil
}

func (r *pickupRequestRepository) find(ctx context.Context, filter bson.M) ([]*models.PickupRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pickup requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := []*models.PickupRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode pickup requests: %w", err)
	}
	return requests, nil
}
