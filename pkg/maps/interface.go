package maps

import (
	"context"
	"errors"
)

var ErrNoResults = errors.New("no geocoding results")

type Geocoder interface {
	Geocode(ctx context.Context, request *GeocodeRequest) (*GeocodeResult, error)
}

type GeocodeRequest struct {
	Address    string `json:"address"`
	PostalCode string `json:"postal_code"`
	Region     string `json:"region"`
}

type GeocodeResult struct {
	PlaceID   string  `json:"place_id"`
	Address   string  `json:"formatted_address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
