package validators

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"raddiwala/internal/models"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

var (
	indianPhoneRegex = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodeRegex     = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	otpRegex         = regexp.MustCompile(`^[1-9][0-9]{3}$`)
)

func init() {
	validate = validator.New()

	// Report fields by their wire names.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})

	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("indian_phone", validateIndianPhone)
	validate.RegisterValidation("pincode", validatePincode)
	validate.RegisterValidation("otp_code", validateOTPCode)
	validate.RegisterValidation("waste_type", validateWasteType)
	validate.RegisterValidation("weight_category", validateWeightCategory)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Fields flattens the errors into the field -> message map used in API error details.
func (v ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(v))
	for _, err := range v {
		if _, seen := fields[err.Field]; !seen {
			fields[err.Field] = err.Message
		}
	}
	return fields
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err != nil {
		fieldErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return ValidationErrors{{Field: "request", Tag: "invalid", Message: err.Error()}}
		}
		for _, err := range fieldErrors {
			validationErrors = append(validationErrors, ValidationError{
				Field:   fieldPath(err),
				Tag:     err.Tag(),
				Value:   fmt.Sprintf("%v", err.Value()),
				Message: getErrorMessage(err),
			})
		}
	}

	return validationErrors
}

// fieldPath drops the struct name prefix, keeping indices for nested slices.
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "Invalid email format"
	case "min":
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", err.Field(), err.Param())
		}
		if isNumber(err.Kind()) {
			return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
	case "max":
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", err.Field(), err.Param())
		}
		if isNumber(err.Kind()) {
			return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", err.Field(), err.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	case "object_id":
		return "Invalid ID format"
	case "indian_phone":
		return "Phone must be a 10 digit Indian mobile number"
	case "pincode":
		return "Pincode must be 6 digits and cannot start with 0"
	case "otp_code":
		return "OTP must be a 4 digit code"
	case "waste_type":
		return fmt.Sprintf("Unknown waste type %v", err.Value())
	case "weight_category":
		return fmt.Sprintf("Unknown weight category %v", err.Value())
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

func isNumber(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Custom validation functions
func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let required tag handle empty values
	}
	_, err := primitive.ObjectIDFromHex(value)
	return err == nil
}

func validateIndianPhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return true
	}
	return indianPhoneRegex.MatchString(phone)
}

func validatePincode(fl validator.FieldLevel) bool {
	return pincodeRegex.MatchString(fl.Field().String())
}

func validateOTPCode(fl validator.FieldLevel) bool {
	return otpRegex.MatchString(fl.Field().String())
}

func validateWasteType(fl validator.FieldLevel) bool {
	return models.WasteType(fl.Field().String()).IsValid()
}

func validateWeightCategory(fl validator.FieldLevel) bool {
	return models.WeightCategory(fl.Field().String()).IsValid()
}

// Helper functions for common validations
func IsValidObjectID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

func SanitizeInput(input string) string {
	htmlRegex := regexp.MustCompile(`<[^>]*>`)
	cleaned := htmlRegex.ReplaceAllString(input, "")
	return strings.TrimSpace(cleaned)
}
