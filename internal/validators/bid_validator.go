package validators

type ItemRateRequest struct {
	WasteType  string  `json:"waste_type" validate:"required,waste_type"`
	PricePerKg float64 `json:"price_per_kg" validate:"gte=0"`
}

type BidCreateRequest struct {
	PickupRequestID    string            `json:"pickup_request_id" validate:"required,object_id"`
	ItemRates          []ItemRateRequest `json:"item_rates" validate:"required,min=1,dive"`
	ProposedPickupTime string            `json:"proposed_pickup_time" validate:"required,max=100"`
	Notes              string            `json:"notes" validate:"omitempty,max=200"`
}

type BidUpdateRequest struct {
	ItemRates          []ItemRateRequest `json:"item_rates" validate:"omitempty,min=1,dive"`
	ProposedPickupTime *string           `json:"proposed_pickup_time" validate:"omitempty,min=1,max=100"`
	Notes              *string           `json:"notes" validate:"omitempty,max=200"`
}

type CompletePickupRequest struct {
	TotalAmount  *float64 `json:"total_amount" validate:"omitempty,gte=0"`
	ActualWeight *float64 `json:"actual_weight" validate:"omitempty,gt=0"`
}
