package services_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/detect-field/trackpoint/internal/models"
	"github.com/detect-field/trackpoint/internal/services"
	"github.com/detect-field/trackpoint/internal/session"
	"github.com/detect-field/trackpoint/tests/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTelemetryServicePublishesStatus(t *testing.T) {
	token := new(mocks.MockToken)
	token.On("Wait").Return(true)
	token.On("Error").Return(nil)

	payloads := make(chan []byte, 16)
	publisher := new(mocks.MockPublisher)
	publisher.On("Publish", "trackpoint/telemetry", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) {
			select {
			case payloads <- args.Get(3).([]byte):
			default:
			}
		}).
		Return(token)

	sess := session.New("Walking", "alice", zerolog.Nop())
	service := services.NewTelemetryService("trackpoint/telemetry", 30*time.Millisecond, 1,
		sess, publisher, nil, zerolog.Nop())

	err := service.Start()
	assert.NoError(t, err)

	var payload []byte
	select {
	case payload = <-payloads:
	case <-time.After(time.Second):
		t.Fatal("no telemetry published within a second")
	}

	err = service.Stop()
	assert.NoError(t, err)

	var message models.Telemetry
	require.NoError(t, json.Unmarshal(payload, &message))
	assert.Equal(t, sess.ID(), message.SessionID)
	assert.Equal(t, "alice", message.User)
	assert.Equal(t, "Walking", message.Transport)
	assert.False(t, message.Tracking)
	assert.Equal(t, 0, message.PointCount)
}

func TestTelemetryServiceStartTwice(t *testing.T) {
	publisher := new(mocks.MockPublisher)
	sess := session.New("Walking", "alice", zerolog.Nop())
	service := services.NewTelemetryService("trackpoint/telemetry", time.Second, 1,
		sess, publisher, nil, zerolog.Nop())

	err := service.Start()
	assert.NoError(t, err)

	err = service.Start()
	assert.Error(t, err)
	assert.Equal(t, "telemetry service is already running", err.Error())

	err = service.Stop()
	assert.NoError(t, err)
}

func TestTelemetryServiceStopWithoutStart(t *testing.T) {
	publisher := new(mocks.MockPublisher)
	sess := session.New("Walking", "alice", zerolog.Nop())
	service := services.NewTelemetryService("trackpoint/telemetry", time.Second, 1,
		sess, publisher, nil, zerolog.Nop())

	err := service.Stop()
	assert.Error(t, err)
	assert.Equal(t, "telemetry service is not running", err.Error())
}
