package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client *maps.Client
}

func NewGoogleMapsProvider(apiKey string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
	}, nil
}

// Geocode returns the best match, restricted to the postal code when one is given.
func (g *GoogleMapsProvider) Geocode(ctx context.Context, request *GeocodeRequest) (*GeocodeResult, error) {
	req := &maps.GeocodingRequest{
		Address: request.Address,
		Region:  strings.ToLower(request.Region),
	}
	if request.PostalCode != "" {
		req.Components = map[maps.Component]string{
			maps.ComponentPostalCode: request.PostalCode,
		}
	}

	resp, err := g.client.Geocode(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("geocoding failed: %w", err)
	}
	if len(resp) == 0 {
		return nil, ErrNoResults
	}

	best := resp[0]
	return &GeocodeResult{
		PlaceID:   best.PlaceID,
		Address:   best.FormattedAddress,
		Latitude:  best.Geometry.Location.Lat,
		Longitude: best.Geometry.Location.Lng,
	}, nil
}
