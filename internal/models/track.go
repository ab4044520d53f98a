package models

import (
	"math"
	"time"
)

// TransportMode is a transport category, either selected manually by the
// operator or inferred from estimated ground speed.
type TransportMode string

const (
	ModeWalking    TransportMode = "Walking"
	ModeATV        TransportMode = "ATV"
	ModeTruck      TransportMode = "Truck"
	ModeHelicopter TransportMode = "Helicopter"
	ModeOther      TransportMode = "Other"
)

// TransportModes lists every selectable transport category.
var TransportModes = []TransportMode{ModeWalking, ModeATV, ModeTruck, ModeHelicopter, ModeOther}

// Fix is a single raw GPS sample delivered by a position provider.
// Heading is optional; HasHeading reports whether it was supplied.
type Fix struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Timestamp  time.Time `json:"timestamp"`
	Heading    float64   `json:"heading,omitempty"`
	HasHeading bool      `json:"-"`
}

// Valid reports whether the fix carries finite coordinates within range.
// Providers occasionally emit NaN coordinates on a cold start; those fixes
// must be dropped before they reach the classifier or the track log.
func (f Fix) Valid() bool {
	if math.IsNaN(f.Latitude) || math.IsInf(f.Latitude, 0) {
		return false
	}
	if math.IsNaN(f.Longitude) || math.IsInf(f.Longitude, 0) {
		return false
	}
	return f.Latitude >= -90 && f.Latitude <= 90 && f.Longitude >= -180 && f.Longitude <= 180
}

// TrackPoint is a persisted, annotated track log entry derived from a Fix.
// Once a later point has been appended, a point is immutable except for
// Note and TakeOff, which may only be edited while the point is the tail.
type TrackPoint struct {
	Time              string        `json:"time"`    // display time, e.g. "10:05:00 AM"
	Timestamp         time.Time     `json:"timestamp"`
	Latitude          float64       `json:"latitude"`
	Longitude         float64       `json:"longitude"`
	Heading           string        `json:"heading"` // whole degrees, or "--" when unknown
	Note              string        `json:"note"`
	TakeOff           bool          `json:"take_off"`
	Transport         string        `json:"transport"`          // operator-selected mode
	InferredTransport TransportMode `json:"inferred_transport"` // classifier output at capture
	SpeedKmh          *float64      `json:"speed_kmh,omitempty"`
	User              string        `json:"user"`
}

// HasValidCoordinates reports whether the point is exportable.
func (p TrackPoint) HasValidCoordinates() bool {
	return !math.IsNaN(p.Latitude) && !math.IsInf(p.Latitude, 0) &&
		!math.IsNaN(p.Longitude) && !math.IsInf(p.Longitude, 0)
}
