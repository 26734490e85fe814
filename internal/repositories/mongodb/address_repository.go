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

type addressRepository struct {
	collection *mongo.Collection
}

func NewAddressRepository(db *mongo.Database) interfaces.AddressRepository {
	return &addressRepository{
		collection: db.Collection("addresses"),
	}
}

func (r *addressRepository) Create(ctx context.Context, address *models.Address) error {
	address.ID = primitive.NewObjectID()
	address.CityKey = models.CityKey(address.City)
	address.CreatedAt = time.Now()
	address.UpdatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, address); err != nil {
		return insertError(err, "address")
	}
	return nil
}

func (r *addressRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Address, error) {
	var address models.Address
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&address); err != nil {
		return nil, findError(err, "address")
	}
	return &address, nil
}

func (r *addressRepository) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.Address, error) {
	if len(ids) == 0 {
		return []*models.Address{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get addresses: %w", err)
	}
	defer cursor.Close(ctx)

	var found []*models.Address
	if err := cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("failed to decode addresses: %w", err)
	}

	// Keep the caller's ordering.
	byID := make(map[primitive.ObjectID]*models.Address, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	addresses := make([]*models.Address, 0, len(found))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			addresses = append(addresses, a)
		}
	}
	return addresses, nil
}

func (r *addressRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	if city, ok := updates["city"].(string); ok {
		updates["city_key"] = models.CityKey(city)
	}
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *addressRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *addressRepository) FindIDsByCity(ctx context.Context, city string) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"city_key": models.CityKey(city)}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find addresses by city: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode address id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}
