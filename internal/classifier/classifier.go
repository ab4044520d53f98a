// Package classifier infers a transport category from the spacing of recent
// GPS fixes. It keeps a short window of samples, estimates instantaneous
// speed from the two most recent ones, and maps the speed onto the same
// categories the operator can pick manually.
package classifier

import (
	"math"

	"github.com/detect-field/trackpoint/internal/geo"
	"github.com/detect-field/trackpoint/internal/models"
	"github.com/rs/zerolog"
)

const (
	// windowSize bounds the fix window; only the last two entries feed the
	// speed estimate, the third absorbs jitter on eviction.
	windowSize = 3

	// maxPlausibleSpeedKmh marks anything faster as a sensor spike.
	maxPlausibleSpeedKmh = 400

	walkingMaxKmh = 6
	atvMaxKmh     = 45
	truckMaxKmh   = 120
)

// Classifier maintains the sliding fix window. It is not safe for concurrent
// use; the owning session serializes calls.
type Classifier struct {
	window   []models.Fix
	speedKmh *float64
	logger   zerolog.Logger
}

// New creates a Classifier with an empty window.
func New(logger zerolog.Logger) *Classifier {
	return &Classifier{
		window: make([]models.Fix, 0, windowSize),
		logger: logger,
	}
}

// Observe pushes a fix into the window and returns the inferred transport
// mode for it. With fewer than two fixes observed the mode is always Other.
func (c *Classifier) Observe(fix models.Fix) models.TransportMode {
	c.window = append(c.window, fix)
	if len(c.window) > windowSize {
		c.window = c.window[1:]
	}

	if len(c.window) < 2 {
		c.speedKmh = nil
		return models.ModeOther
	}

	prev := c.window[len(c.window)-2]
	curr := c.window[len(c.window)-1]

	dtSeconds := curr.Timestamp.Sub(prev.Timestamp).Seconds()
	if dtSeconds <= 0 {
		// Stale or duplicate timestamp; the previous estimate is no longer
		// trustworthy either.
		c.speedKmh = nil
		return classify(c.speedKmh)
	}

	distance := geo.DistanceMeters(prev.Latitude, prev.Longitude, curr.Latitude, curr.Longitude)
	speed := distance / dtSeconds * 3.6

	if speed > maxPlausibleSpeedKmh || math.IsNaN(speed) || math.IsInf(speed, 0) {
		c.logger.Debug().Float64("speed_kmh", speed).Msg("Discarding implausible speed estimate")
		c.speedKmh = nil
	} else {
		c.speedKmh = &speed
	}

	return classify(c.speedKmh)
}

// SpeedKmh returns the latest speed estimate, or nil when no trustworthy
// estimate exists.
func (c *Classifier) SpeedKmh() *float64 {
	return c.speedKmh
}

// WindowLen returns the number of fixes currently buffered.
func (c *Classifier) WindowLen() int {
	return len(c.window)
}

// Reset clears the window and the speed estimate.
func (c *Classifier) Reset() {
	c.window = c.window[:0]
	c.speedKmh = nil
}

// classify maps a speed estimate onto a transport mode. Bands are closed on
// the left: exactly 6 km/h is ATV, exactly 120 km/h is Helicopter.
func classify(speedKmh *float64) models.TransportMode {
	if speedKmh == nil {
		return models.ModeOther
	}
	switch s := *speedKmh; {
	case s < walkingMaxKmh:
		return models.ModeWalking
	case s < atvMaxKmh:
		return models.ModeATV
	case s < truckMaxKmh:
		return models.ModeTruck
	default:
		return models.ModeHelicopter
	}
}
