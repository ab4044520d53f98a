package gps

import (
	"errors"
	"time"
)

// Reading is one position sample produced by a provider. Heading is only
// meaningful when HasHeading is set; NMEA course data disappears whenever
// the receiver loses its motion vector.
type Reading struct {
	Latitude   float64
	Longitude  float64
	Timestamp  time.Time
	Heading    float64
	HasHeading bool
}

// ErrSensorUnavailable signals that no GPS capability exists; tracking
// cannot start without a working provider.
var ErrSensorUnavailable = errors.New("no GPS capability available")

// ErrReplayDone signals that a replay provider has served every recorded
// sample.
var ErrReplayDone = errors.New("replay exhausted")

// Provider interface defines the methods for position providers.
type Provider interface {
	CurrentFix() (Reading, error)
	Close() error
}
