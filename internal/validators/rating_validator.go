package validators

type RatingRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"omitempty,max=300"`
}

type PaymentStatusUpdateRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=pending completed disputed"`
}
