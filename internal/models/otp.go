package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OTPPurpose string

const (
	OTPPurposeSignup      OTPPurpose = "signup"
	OTPPurposeLogin       OTPPurpose = "login"
	OTPPurposeEmailChange OTPPurpose = "email_change"
)

func (p OTPPurpose) IsValid() bool {
	return p == OTPPurposeSignup || p == OTPPurposeLogin || p == OTPPurposeEmailChange
}

// OneTimeCode stores only a hash of the issued code.
type OneTimeCode struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	CodeHash  string             `json:"-" bson:"code_hash"`
	Purpose   OTPPurpose         `json:"purpose" bson:"purpose"`
	Role      Role               `json:"role" bson:"role"`
	IsUsed    bool               `json:"is_used" bson:"is_used"`
	ExpiresAt time.Time          `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
