package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GeoPoint struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

type Address struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Line      string             `json:"line" bson:"line"`
	Area      string             `json:"area" bson:"area"`
	City      string             `json:"city" bson:"city"`
	CityKey   string             `json:"-" bson:"city_key"`
	Pincode   string             `json:"pincode" bson:"pincode"`
	Landmark  string             `json:"landmark,omitempty" bson:"landmark,omitempty"`
	Location  *GeoPoint          `json:"location,omitempty" bson:"location,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// CityKey folds a city name for comparisons and lookups.
func CityKey(city string) string {
	return strings.ToLower(strings.Join(strings.Fields(city), " "))
}

func (a *Address) SameCity(other *Address) bool {
	if a == nil || other == nil {
		return false
	}
	return CityKey(a.City) == CityKey(other.City)
}

func (a *Address) FormattedAddress() string {
	parts := []string{a.Line, a.Area}
	if a.Landmark != "" {
		parts = append(parts, "near "+a.Landmark)
	}
	parts = append(parts, a.City, a.Pincode)
	return strings.Join(parts, ", ")
}
