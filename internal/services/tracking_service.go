package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/detect-field/trackpoint/internal/models"
	"github.com/detect-field/trackpoint/internal/session"
	"github.com/detect-field/trackpoint/pkg/gps"
	"github.com/rs/zerolog"
)

// TrackingService polls the position provider and feeds every sample through
// the session pipeline: validation, classification and, while tracking is
// active, a track log append. Fixes are processed strictly one at a time.
type TrackingService struct {
	// Configuration fields
	interval time.Duration

	// Dependencies
	provider gps.Provider
	session  *session.Session
	logger   zerolog.Logger

	// Internal state management
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewTrackingService creates a new TrackingService instance.
func NewTrackingService(interval time.Duration, provider gps.Provider, sess *session.Session,
	logger zerolog.Logger) *TrackingService {
	return &TrackingService{
		interval: interval,
		provider: provider,
		session:  sess,
		logger:   logger,
		running:  false,
	}
}

// Start begins polling the provider.
func (t *TrackingService) Start() error {
	if t.running {
		t.logger.Warn().Msg("TrackingService is already running")
		return errors.New("tracking service is already running")
	}
	if t.provider == nil {
		return gps.ErrSensorUnavailable
	}

	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.running = true

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.pollOnce()
			case <-t.ctx.Done():
				t.logger.Info().Msg("TrackingService is stopping")
				t.running = false
				return
			}
		}
	}()

	t.logger.Info().
		Dur("interval_ms", t.interval).
		Msg("TrackingService started")
	return nil
}

// Stop gracefully stops the TrackingService.
func (t *TrackingService) Stop() error {
	if !t.running {
		t.logger.Warn().Msg("TrackingService is not running")
		return errors.New("tracking service is not running")
	}

	t.cancel()
	t.wg.Wait()

	if err := t.provider.Close(); err != nil {
		t.logger.Error().Err(err).Msg("Failed to close position provider")
		return err
	}

	t.running = false
	t.logger.Info().Msg("TrackingService stopped")
	return nil
}

// pollOnce fetches a single sample and runs it through the session.
func (t *TrackingService) pollOnce() {
	reading, err := t.provider.CurrentFix()
	if err != nil {
		if errors.Is(err, gps.ErrReplayDone) {
			t.logger.Info().Msg("Replay provider exhausted, stopping poll loop")
			t.cancel()
			return
		}
		t.logger.Error().Err(err).Msg("Failed to get fix from provider")
		return
	}

	point, err := t.session.OnFix(models.Fix{
		Latitude:   reading.Latitude,
		Longitude:  reading.Longitude,
		Timestamp:  reading.Timestamp,
		Heading:    reading.Heading,
		HasHeading: reading.HasHeading,
	})
	if err != nil {
		// Invalid fixes are dropped silently; the session already logged it.
		return
	}

	if point != nil {
		t.logger.Debug().
			Float64("lat", point.Latitude).
			Float64("lng", point.Longitude).
			Str("inferred", string(point.InferredTransport)).
			Msg("Track point appended")
	}
}
