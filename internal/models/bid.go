package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ItemRate struct {
	WasteType  WasteType `json:"waste_type" bson:"waste_type"`
	PricePerKg float64   `json:"price_per_kg" bson:"price_per_kg"`
}

type Bid struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PickupRequestID      primitive.ObjectID `json:"pickup_request_id" bson:"pickup_request_id"`
	CollectorID          primitive.ObjectID `json:"collector_id" bson:"collector_id"`
	ItemRates            []ItemRate         `json:"item_rates" bson:"item_rates"`
	ProposedPickupTime   string             `json:"proposed_pickup_time" bson:"proposed_pickup_time"`
	IsAccepted           bool               `json:"is_accepted" bson:"is_accepted"`
	TotalEstimatedAmount float64            `json:"total_estimated_amount" bson:"total_estimated_amount"`
	Notes                string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt            time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" bson:"updated_at"`
}

// EstimateAmount prices the band midpoint at the first quoted rate.
func EstimateAmount(category WeightCategory, rates []ItemRate) float64 {
	if len(rates) == 0 {
		return 0
	}
	return category.Midpoint() * rates[0].PricePerKg
}

func (b *Bid) Recalculate(category WeightCategory) {
	b.TotalEstimatedAmount = EstimateAmount(category, b.ItemRates)
}

type BidView struct {
	*Bid
	Collector     *PartySummary      `json:"collector,omitempty"`
	PickupRequest *PickupRequestView `json:"pickup_request,omitempty"`
}
