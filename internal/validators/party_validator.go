package validators

type AddressRequest struct {
	Line     string `json:"line" validate:"required,min=3,max=200"`
	Area     string `json:"area" validate:"required,max=100"`
	City     string `json:"city" validate:"required,min=2,max=50"`
	Pincode  string `json:"pincode" validate:"required,pincode"`
	Landmark string `json:"landmark" validate:"omitempty,max=100"`
}

// AddressUpdateRequest carries only the fields being changed.
type AddressUpdateRequest struct {
	Line     *string `json:"line" validate:"omitempty,min=3,max=200"`
	Area     *string `json:"area" validate:"omitempty,max=100"`
	City     *string `json:"city" validate:"omitempty,min=2,max=50"`
	Pincode  *string `json:"pincode" validate:"omitempty,pincode"`
	Landmark *string `json:"landmark" validate:"omitempty,max=100"`
}

func (r *AddressUpdateRequest) IsEmpty() bool {
	return r.Line == nil && r.Area == nil && r.City == nil && r.Pincode == nil && r.Landmark == nil
}

type ProfileUpdateRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=50"`
	Phone *string `json:"phone" validate:"omitempty,indian_phone"`
}

type DeviceTokenRequest struct {
	Token    string `json:"token" validate:"required,max=4096"`
	Platform string `json:"platform" validate:"required,oneof=android ios web"`
}
