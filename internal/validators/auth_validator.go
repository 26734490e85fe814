package validators

import "raddiwala/internal/models"

type SendOTPRequest struct {
	Email   string `json:"email" validate:"required,email,max=254"`
	Purpose string `json:"purpose" validate:"required,oneof=signup login email_change"`
	Role    string `json:"role" validate:"required,oneof=customer raddiwala"`
}

type SignupRequest struct {
	Email   string          `json:"email" validate:"required,email,max=254"`
	OTP     string          `json:"otp" validate:"required,otp_code"`
	Role    string          `json:"role" validate:"required,oneof=customer raddiwala"`
	Name    string          `json:"name" validate:"required,min=2,max=50"`
	Phone   string          `json:"phone" validate:"required,indian_phone"`
	Address *AddressRequest `json:"address"`
}

type LoginRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	OTP   string `json:"otp" validate:"required,otp_code"`
	Role  string `json:"role" validate:"required,oneof=customer raddiwala"`
}

// ValidateSignup also requires a shop address from collectors.
func ValidateSignup(req *SignupRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if models.Role(req.Role) == models.RoleCollector && req.Address == nil {
		errors = append(errors, ValidationError{
			Field:   "address",
			Tag:     "required",
			Message: "Shop address is required for raddiwala signup",
		})
	}

	return errors
}
