package models

import (
	"time"
)

// HealthSnapshot carries device resource usage sampled alongside telemetry.
type HealthSnapshot struct {
	CPUPercent    *float64 `json:"cpu_percent,omitempty"`
	MemoryPercent *float64 `json:"memory_percent,omitempty"`
}

// Telemetry is the live-position message published to the MQTT broker.
type Telemetry struct {
	SessionID     string          `json:"session_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Latitude      float64         `json:"latitude"`
	Longitude     float64         `json:"longitude"`
	Heading       string          `json:"heading"`
	Transport     string          `json:"transport"`
	InferredMode  TransportMode   `json:"inferred_mode"`
	SpeedKmh      *float64        `json:"speed_kmh,omitempty"`
	User          string          `json:"user"`
	PointCount    int             `json:"point_count"`
	Tracking      bool            `json:"tracking"`
	Health        *HealthSnapshot `json:"health,omitempty"`
}
