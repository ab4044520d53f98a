package gps

import (
	"context"
	"time"

	"googlemaps.github.io/maps"
)

// GoogleGeolocationProvider estimates position from nearby WiFi access
// points and cell towers via the Google Maps Geolocation API. It is the
// fallback for devices without a GPS receiver; it never supplies a heading.
type GoogleGeolocationProvider struct {
	client     *maps.Client
	modemIndex int
}

// NewGoogleGeolocationProvider creates a new GoogleGeolocationProvider instance.
func NewGoogleGeolocationProvider(apiKey string, modemIndex int) (*GoogleGeolocationProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GoogleGeolocationProvider{
		client:     c,
		modemIndex: modemIndex,
	}, nil
}

// CurrentFix retrieves the device's position using the Geolocation API.
// Missing WiFi or cell data is tolerated; the request falls back to IP
// geolocation when both scans come up empty.
func (g *GoogleGeolocationProvider) CurrentFix() (Reading, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := &maps.GeolocationRequest{
		ConsiderIP: true,
	}

	if wifiAPs, err := getWiFiAccessPoints(ctx); err == nil {
		req.WiFiAccessPoints = wifiAPs
	}
	if cellTowers, err := getCellTowers(ctx, g.modemIndex); err == nil {
		req.CellTowers = cellTowers
	}

	resp, err := g.client.Geolocate(ctx, req)
	if err != nil {
		return Reading{}, err
	}

	return Reading{
		Latitude:  resp.Location.Lat,
		Longitude: resp.Location.Lng,
		Timestamp: time.Now(),
	}, nil
}

// Close is a no-op; the API client holds no connection state.
func (g *GoogleGeolocationProvider) Close() error {
	return nil
}
