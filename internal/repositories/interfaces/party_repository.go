package interfaces

import (
	"context"
	"time"

	"raddiwala/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error

	// AddAddress appends only while the customer holds fewer than limit addresses.
	AddAddress(ctx context.Context, id, addressID primitive.ObjectID, limit int) error
	RemoveAddress(ctx context.Context, id, addressID primitive.ObjectID) error

	ApplyRating(ctx context.Context, id primitive.ObjectID, stars int) error
	AddDeviceToken(ctx context.Context, id primitive.ObjectID, token models.DeviceToken) error
}

type CollectorRepository interface {
	Create(ctx context.Context, collector *models.Collector) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Collector, error)
	GetByEmail(ctx context.Context, email string) (*models.Collector, error)
	GetByPhone(ctx context.Context, phone string) (*models.Collector, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error

	ApplyRating(ctx context.Context, id primitive.ObjectID, stars int) error
	AddDeviceToken(ctx context.Context, id primitive.ObjectID, token models.DeviceToken) error

	// Quota bookkeeping
	ResetMonthlyCount(ctx context.Context, id primitive.ObjectID, at time.Time) error
	IncrementMonthlyPickups(ctx context.Context, id primitive.ObjectID) error
	SetPremium(ctx context.Context, id primitive.ObjectID, premium bool) error
}

type AddressRepository interface {
	Create(ctx context.Context, address *models.Address) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Address, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.Address, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindIDsByCity(ctx context.Context, city string) ([]primitive.ObjectID, error)
}
