package validators

import "fmt"

type PickupRequestCreateRequest struct {
	WasteTypes     []string `json:"waste_types" form:"waste_types" validate:"required,min=1,dive,waste_type"`
	WeightCategory string   `json:"weight_category" form:"weight_category" validate:"required,weight_category"`
	AddressID      string   `json:"address_id" form:"address_id" validate:"required,object_id"`
	Description    string   `json:"description" form:"description" validate:"omitempty,max=500"`
	TimeWindow     string   `json:"time_window" form:"time_window" validate:"omitempty,max=100"`
}

type PickupRequestUpdateRequest struct {
	Description *string `json:"description" validate:"omitempty,max=500"`
	TimeWindow  *string `json:"time_window" validate:"omitempty,max=100"`
}

type AcceptBidRequest struct {
	BidID string `json:"bid_id" validate:"required,object_id"`
}

// ValidatePickupRequestCreate checks the form fields and the number of photos attached.
func ValidatePickupRequestCreate(req *PickupRequestCreateRequest, photoCount, maxPhotos int) ValidationErrors {
	errors := ValidateStruct(req)

	switch {
	case photoCount == 0:
		errors = append(errors, ValidationError{
			Field:   "photos",
			Tag:     "required",
			Message: "At least one photo is required",
		})
	case photoCount > maxPhotos:
		errors = append(errors, ValidationError{
			Field:   "photos",
			Tag:     "max",
			Value:   fmt.Sprintf("%d", photoCount),
			Message: fmt.Sprintf("At most %d photos are allowed", maxPhotos),
		})
	}

	return errors
}
