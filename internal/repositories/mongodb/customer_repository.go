package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raddiwala/internal/models"
	"raddiwala/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type customerRepository struct {
	*partyStore
}

func NewCustomerRepository(db *mongo.Database, cache CacheService, ttl time.Duration) interfaces.CustomerRepository {
	return &customerRepository{
		partyStore: newPartyStore(db, "customers", "customer", cache, ttl),
	}
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	customer.ID = primitive.NewObjectID()
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = time.Now()
	customer.IsActive = true
	if customer.AddressIDs == nil {
		customer.AddressIDs = []primitive.ObjectID{}
	}
	return r.insert(ctx, customer)
}

func (r *customerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.findByID(ctx, id, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.findOne(ctx, bson.M{"email": email}, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.findOne(ctx, bson.M{"phone": phone}, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return r.update(ctx, id, updates)
}

func (r *customerRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return r.deactivate(ctx, id)
}

func (r *customerRepository) AddAddress(ctx context.Context, id, addressID primitive.ObjectID, limit int) error {
	filter := bson.M{"_id": id, "is_active": true}
	filter[fmt.Sprintf("addresses.%d", limit-1)] = bson.M{"$exists": false}
	update := bson.M{
		"$push": bson.M{"addresses": addressID},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	err := r.updateOne(ctx, filter, update, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return interfaces.ErrStaleState
	}
	return err
}

func (r *customerRepository) RemoveAddress(ctx context.Context, id, addressID primitive.ObjectID) error {
	return r.updateOne(ctx,
		bson.M{"_id": id, "is_active": true},
		bson.M{
			"$pull": bson.M{"addresses": addressID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
		id,
	)
}

func (r *customerRepository) ApplyRating(ctx context.Context, id primitive.ObjectID, stars int) error {
	return r.applyRating(ctx, id, stars)
}

func (r *customerRepository) AddDeviceToken(ctx context.Context, id primitive.ObjectID, token models.DeviceToken) error {
	return r.addDeviceToken(ctx, id, token)
}
