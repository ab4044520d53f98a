package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/detect-field/trackpoint/internal/health"
	"github.com/detect-field/trackpoint/internal/models"
	"github.com/detect-field/trackpoint/internal/session"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// Publisher abstracts the MQTT hand-off for telemetry messages.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// TelemetryService periodically publishes the live session status, with a
// device health snapshot, to an MQTT broker.
type TelemetryService struct {
	// Configuration fields
	topic    string
	interval time.Duration
	qos      int

	// Dependencies
	session   *session.Session
	publisher Publisher
	collector *health.Collector
	logger    zerolog.Logger

	// Internal state management
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewTelemetryService creates a new TelemetryService instance with the provided configuration.
func NewTelemetryService(topic string, interval time.Duration, qos int, sess *session.Session,
	publisher Publisher, collector *health.Collector, logger zerolog.Logger) *TelemetryService {
	return &TelemetryService{
		topic:     topic,
		interval:  interval,
		qos:       qos,
		session:   sess,
		publisher: publisher,
		collector: collector,
		logger:    logger,
		running:   false,
	}
}

// Start initiates the TelemetryService, periodically publishing session status.
func (t *TelemetryService) Start() error {
	if t.running {
		t.logger.Warn().Msg("TelemetryService is already running")
		return errors.New("telemetry service is already running")
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
				if err := t.publishStatus(); err != nil {
					t.logger.Error().
						Err(err).
						Msg("Failed to publish telemetry")
				}
			case <-t.ctx.Done():
				t.logger.Info().Msg("TelemetryService is stopping")
				t.running = false
				return
			}
		}
	}()

	t.logger.Info().
		Str("topic", t.topic).
		Dur("interval_ms", t.interval).
		Int("qos", t.qos).
		Msg("TelemetryService started")
	return nil
}

// Stop gracefully stops the TelemetryService.
func (t *TelemetryService) Stop() error {
	if !t.running {
		t.logger.Warn().Msg("TelemetryService is not running")
		return errors.New("telemetry service is not running")
	}

	t.cancel()
	t.wg.Wait()

	t.running = false
	t.logger.Info().Msg("TelemetryService stopped")
	return nil
}

// publishStatus assembles and publishes one telemetry message.
func (t *TelemetryService) publishStatus() error {
	status := t.session.Status()

	message := models.Telemetry{
		SessionID:    status.SessionID,
		Timestamp:    time.Now(),
		Latitude:     status.Latitude,
		Longitude:    status.Longitude,
		Heading:      status.Heading,
		Transport:    status.Transport,
		InferredMode: status.InferredMode,
		SpeedKmh:     status.SpeedKmh,
		User:         status.User,
		PointCount:   status.PointCount,
		Tracking:     status.Tracking,
	}
	if t.collector != nil {
		message.Health = t.collector.Collect()
	}

	payload, err := json.Marshal(message)
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to serialize telemetry message")
		return err
	}

	token := t.publisher.Publish(t.topic, byte(t.qos), false, payload)
	if token.Wait() && token.Error() != nil {
		t.logger.Error().
			Err(token.Error()).
			Str("topic", t.topic).
			Msg("Failed to publish telemetry message to MQTT")
		return token.Error()
	}

	t.logger.Debug().
		Str("topic", t.topic).
		Str("session_id", status.SessionID).
		Msg("Telemetry published successfully")
	return nil
}
