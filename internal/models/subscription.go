package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodUPI    PaymentMethod = "upi"
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodOnline || m == PaymentMethodCash || m == PaymentMethodUPI
}

type Subscription struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CollectorID   primitive.ObjectID `json:"collector_id" bson:"collector_id"`
	StartDate     time.Time          `json:"start_date" bson:"start_date"`
	ExpiryDate    time.Time          `json:"expiry_date" bson:"expiry_date"`
	IsActive      bool               `json:"is_active" bson:"is_active"`
	PricePaid     float64            `json:"price_paid" bson:"price_paid"`
	PaymentMethod PaymentMethod      `json:"payment_method" bson:"payment_method"`
	TransactionID string             `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	OrderID       string             `json:"order_id,omitempty" bson:"order_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

func (s *Subscription) IsValid(now time.Time) bool {
	return s.IsActive && !now.After(s.ExpiryDate)
}

// SubscriptionStatus is what a collector sees about premium and quota.
type SubscriptionStatus struct {
	HasActiveSubscription bool          `json:"has_active_subscription"`
	IsPremium             bool          `json:"is_premium"`
	Subscription          *Subscription `json:"subscription"`
	MonthlyPickups        int           `json:"monthly_pickups"`
	MonthlyLimit          int           `json:"monthly_limit"`
	CanPlaceBids          bool          `json:"can_place_bids"`
	NeedsPremium          bool          `json:"needs_premium"`
}
