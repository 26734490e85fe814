package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusDisputed  PaymentStatus = "disputed"
)

func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusPending || s == PaymentStatusCompleted || s == PaymentStatusDisputed
}

type PartyRating struct {
	Rating  int       `json:"rating" bson:"rating"`
	Review  string    `json:"review,omitempty" bson:"review,omitempty"`
	RatedAt time.Time `json:"rated_at" bson:"rated_at"`
}

// CompletedTransaction is written once per completed pickup. CustomerRating is the
// customer's rating of the collector, CollectorRating the collector's rating of the customer.
type CompletedTransaction struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PickupRequestID primitive.ObjectID `json:"pickup_request_id" bson:"pickup_request_id"`
	BidID           primitive.ObjectID `json:"bid_id" bson:"bid_id"`
	CustomerID      primitive.ObjectID `json:"customer_id" bson:"customer_id"`
	CollectorID     primitive.ObjectID `json:"collector_id" bson:"collector_id"`
	TotalAmount     float64            `json:"total_amount" bson:"total_amount"`
	ActualWeight    *float64           `json:"actual_weight,omitempty" bson:"actual_weight,omitempty"`
	PaymentStatus   PaymentStatus      `json:"payment_status" bson:"payment_status"`
	CustomerRating  *PartyRating       `json:"customer_rating" bson:"customer_rating"`
	CollectorRating *PartyRating       `json:"collector_rating" bson:"collector_rating"`
	CompletedAt     time.Time          `json:"completed_at" bson:"completed_at"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

func (t *CompletedTransaction) Involves(partyID primitive.ObjectID, role Role) bool {
	switch role {
	case RoleCustomer:
		return t.CustomerID == partyID
	case RoleCollector:
		return t.CollectorID == partyID
	}
	return false
}

type TransactionView struct {
	*CompletedTransaction
	PickupRequest *PickupRequest `json:"pickup_request,omitempty"`
	Customer      *PartySummary  `json:"customer,omitempty"`
	Collector     *PartySummary  `json:"collector,omitempty"`
}

type TransactionFilter struct {
	CustomerID    *primitive.ObjectID
	CollectorID   *primitive.ObjectID
	PaymentStatus PaymentStatus
}

type TransactionStats struct {
	TotalTransactions      int64   `json:"total_transactions" bson:"total_transactions"`
	TotalAmount            float64 `json:"total_amount" bson:"total_amount"`
	AverageAmount          float64 `json:"average_amount" bson:"average_amount"`
	AverageCustomerRating  float64 `json:"average_customer_rating" bson:"average_customer_rating"`
	AverageCollectorRating float64 `json:"average_collector_rating" bson:"average_collector_rating"`
}
