package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PickupStatus string

const (
	PickupStatusOpen      PickupStatus = "open"
	PickupStatusAccepted  PickupStatus = "accepted"
	PickupStatusCompleted PickupStatus = "completed"
	PickupStatusCancelled PickupStatus = "cancelled"
)

func (s PickupStatus) IsValid() bool {
	switch s {
	case PickupStatusOpen, PickupStatusAccepted, PickupStatusCompleted, PickupStatusCancelled:
		return true
	}
	return false
}

func (s PickupStatus) IsTerminal() bool {
	return s == PickupStatusCompleted || s == PickupStatusCancelled
}

type Photo struct {
	Key string `json:"-" bson:"key"`
	URL string `json:"url" bson:"url"`
}

type StatusTimestamps struct {
	AcceptedAt  *time.Time `json:"accepted_at,omitempty" bson:"accepted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

type PickupRequest struct {
	ID               primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	CustomerID       primitive.ObjectID  `json:"customer_id" bson:"customer_id"`
	Photos           []Photo             `json:"photos" bson:"photos"`
	WasteTypes       []WasteType         `json:"waste_types" bson:"waste_types"`
	WeightCategory   WeightCategory      `json:"weight_category" bson:"weight_category"`
	Description      string              `json:"description,omitempty" bson:"description,omitempty"`
	AddressID        primitive.ObjectID  `json:"address_id" bson:"address_id"`
	TimeWindow       string              `json:"time_window,omitempty" bson:"time_window,omitempty"`
	Status           PickupStatus        `json:"status" bson:"status"`
	AcceptedBidID    *primitive.ObjectID `json:"accepted_bid_id,omitempty" bson:"accepted_bid_id,omitempty"`
	StatusTimestamps StatusTimestamps    `json:"status_timestamps" bson:"status_timestamps"`
	IsActive         bool                `json:"is_active" bson:"is_active"`
	CreatedAt        time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" bson:"updated_at"`
}

func (p *PickupRequest) PhotoKeys() []string {
	keys := make([]string, 0, len(p.Photos))
	for _, photo := range p.Photos {
		keys = append(keys, photo.Key)
	}
	return keys
}

// PickupRequestView is a request joined with the records a reader needs to act on it.
type PickupRequestView struct {
	*PickupRequest
	Customer    *PartySummary `json:"customer,omitempty"`
	Address     *Address      `json:"address,omitempty"`
	AcceptedBid *BidView      `json:"accepted_bid,omitempty"`
	Bids        []*BidView    `json:"bids,omitempty"`
	HasMyBid    *bool         `json:"has_my_bid,omitempty"`
}
