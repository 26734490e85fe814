package interfaces

import (
	"context"

	"raddiwala/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PickupRequestRepository interface {
	Create(ctx context.Context, request *models.PickupRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.PickupRequest, error)

	// UpdateWhereStatus applies updates only if the request is still in status.
	// It returns ErrStaleState when nothing matched.
	UpdateWhereStatus(ctx context.Context, id primitive.ObjectID, status models.PickupStatus, updates map[string]interface{}) error

	ListByCustomer(ctx context.Context, customerID primitive.ObjectID, status models.PickupStatus) ([]*models.PickupRequest, error)
	ListOpenByAddresses(ctx context.Context, addressIDs []primitive.ObjectID) ([]*models.PickupRequest, error)
	CountActiveByAddress(ctx context.Context, addressID primitive.ObjectID) (int64, error)
}

type BidRepository interface {
	// Create returns ErrDuplicateKey when the collector already bid on the request.
	Create(ctx context.Context, bid *models.Bid) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bid, error)
	UpdateUnaccepted(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	DeleteUnaccepted(ctx context.Context, id primitive.ObjectID) error
	MarkAccepted(ctx context.Context, id primitive.ObjectID) error

	FindByRequestAndCollector(ctx context.Context, requestID, collectorID primitive.ObjectID) (*models.Bid, error)
	ListByRequest(ctx context.Context, requestID primitive.ObjectID) ([]*models.Bid, error)
	ListByCollector(ctx context.Context, collectorID primitive.ObjectID, accepted *bool) ([]*models.Bid, error)
	RequestIDsWithBidFrom(ctx context.Context, collectorID primitive.ObjectID, requestIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error)
}
