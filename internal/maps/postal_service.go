// README: Geocoding of street addresses to postal codes for tax lookup.
package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

var ErrNoPostalCode = errors.New("address has no postal code")

// PostalService resolves addresses through the Google Geocoding API.
type PostalService struct {
	client *maps.Client
	region string
}

// NewPostalService creates a PostalService with the given API key. Extra
// client options are passed through to the maps client.
func NewPostalService(apiKey, region string, opts ...maps.ClientOption) (*PostalService, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PostalService{client: client, region: strings.ToLower(region)}, nil
}

// PostalCode geocodes address and returns the postal_code component of the
// first result that has one.
func (s *PostalService) PostalCode(ctx context.Context, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", ErrNoPostalCode
	}
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  s.region,
	})
	if err != nil {
		return "", fmt.Errorf("geocoding api error: %w", err)
	}
	for _, r := range results {
		for _, c := range r.AddressComponents {
			if hasType(c.Types, "postal_code") {
				return c.ShortName, nil
			}
		}
	}
	return "", ErrNoPostalCode
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
