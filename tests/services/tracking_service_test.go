package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/detect-field/trackpoint/internal/services"
	"github.com/detect-field/trackpoint/internal/session"
	"github.com/detect-field/trackpoint/pkg/gps"
	"github.com/detect-field/trackpoint/tests/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestTrackingServiceStartAndStop(t *testing.T) {
	provider := new(mocks.MockGPSProvider)
	provider.On("CurrentFix").Return(gps.Reading{
		Latitude:  45.0,
		Longitude: -75.0,
		Timestamp: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}, nil)
	provider.On("Close").Return(nil)

	sess := session.New("Walking", "alice", zerolog.Nop())
	sess.StartTracking()

	service := services.NewTrackingService(20*time.Millisecond, provider, sess, zerolog.Nop())

	err := service.Start()
	assert.NoError(t, err)

	// Let a few poll cycles run.
	time.Sleep(100 * time.Millisecond)

	err = service.Stop()
	assert.NoError(t, err)

	assert.NotEmpty(t, sess.Snapshot(), "polled fixes reach the track log")
	provider.AssertCalled(t, "CurrentFix")
	provider.AssertCalled(t, "Close")
}

func TestTrackingServiceStartTwice(t *testing.T) {
	provider := new(mocks.MockGPSProvider)
	provider.On("CurrentFix").Return(gps.Reading{Latitude: 45, Longitude: -75, Timestamp: time.Now()}, nil)
	provider.On("Close").Return(nil)

	sess := session.New("Walking", "alice", zerolog.Nop())
	service := services.NewTrackingService(time.Second, provider, sess, zerolog.Nop())

	err := service.Start()
	assert.NoError(t, err)

	err = service.Start()
	assert.Error(t, err)
	assert.Equal(t, "tracking service is already running", err.Error())

	err = service.Stop()
	assert.NoError(t, err)
}

func TestTrackingServiceStopWithoutStart(t *testing.T) {
	provider := new(mocks.MockGPSProvider)
	sess := session.New("Walking", "alice", zerolog.Nop())
	service := services.NewTrackingService(time.Second, provider, sess, zerolog.Nop())

	err := service.Stop()
	assert.Error(t, err)
	assert.Equal(t, "tracking service is not running", err.Error())
}

func TestTrackingServiceNilProvider(t *testing.T) {
	sess := session.New("Walking", "alice", zerolog.Nop())
	service := services.NewTrackingService(time.Second, nil, sess, zerolog.Nop())

	err := service.Start()
	assert.ErrorIs(t, err, gps.ErrSensorUnavailable)
}

func TestTrackingServiceKeepsPollingOnSensorError(t *testing.T) {
	provider := new(mocks.MockGPSProvider)
	provider.On("CurrentFix").Return(gps.Reading{}, errors.New("no satellite lock"))
	provider.On("Close").Return(nil)

	sess := session.New("Walking", "alice", zerolog.Nop())
	sess.StartTracking()

	service := services.NewTrackingService(20*time.Millisecond, provider, sess, zerolog.Nop())

	assert.NoError(t, service.Start())
	time.Sleep(100 * time.Millisecond)
	assert.NoError(t, service.Stop())

	assert.Empty(t, sess.Snapshot())
	assert.Greater(t, len(provider.Calls), 1, "failed reads must not stop the loop")
}

func TestTrackingServiceStopsWhenReplayExhausted(t *testing.T) {
	provider := new(mocks.MockGPSProvider)
	provider.On("CurrentFix").Return(gps.Reading{}, gps.ErrReplayDone)

	sess := session.New("Walking", "alice", zerolog.Nop())
	service := services.NewTrackingService(20*time.Millisecond, provider, sess, zerolog.Nop())

	assert.NoError(t, service.Start())
	time.Sleep(100 * time.Millisecond)

	provider.AssertNumberOfCalls(t, "CurrentFix", 1)
}
