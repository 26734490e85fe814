package interfaces

import (
	"context"

	"raddiwala/internal/models"
	"raddiwala/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionRepository interface {
	// Create returns ErrDuplicateKey when the request already has a transaction.
	Create(ctx context.Context, txn *models.CompletedTransaction) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.CompletedTransaction, error)
	GetByPickupRequest(ctx context.Context, requestID primitive.ObjectID) (*models.CompletedTransaction, error)
	List(ctx context.Context, filter *models.TransactionFilter, params *utils.PaginationParams) ([]*models.CompletedTransaction, int64, error)

	// Ratings are written only while the slot is still empty, else ErrStaleState.
	SetCustomerRating(ctx context.Context, id primitive.ObjectID, rating *models.PartyRating) error
	SetCollectorRating(ctx context.Context, id primitive.ObjectID, rating *models.PartyRating) error

	UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error
	Stats(ctx context.Context, filter *models.TransactionFilter) (*models.TransactionStats, error)
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	GetLatestActive(ctx context.Context, collectorID primitive.ObjectID) (*models.Subscription, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	ListByCollector(ctx context.Context, collectorID primitive.ObjectID) ([]*models.Subscription, error)
}

type OTPRepository interface {
	Create(ctx context.Context, otp *models.OneTimeCode) error
	DeleteOutstanding(ctx context.Context, email string, purpose models.OTPPurpose, role models.Role) error
	FindLatest(ctx context.Context, email string, purpose models.OTPPurpose, role models.Role) (*models.OneTimeCode, error)
	// MarkUsed flips the used flag once, else ErrStaleState.
	MarkUsed(ctx context.Context, id primitive.ObjectID) error
}
