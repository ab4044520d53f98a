package utils

import (
	"time"

	"github.com/detect-field/trackpoint/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Agent struct {
		PrefsFile    string `yaml:"prefs_file"`    // Path to the sticky operator preferences file
		DatabaseFile string `yaml:"database_file"` // Path to the SQLite session archive
		ExportDir    string `yaml:"export_dir"`    // Directory receiving CSV/KML exports
		ExportPrefix string `yaml:"export_prefix"` // Product variant prefix for export filenames
	} `yaml:"agent"`

	GPS struct {
		Provider     string        `yaml:"provider"`       // Position source: "nmea", "google" or "replay"
		DevicePort   string        `yaml:"device_port"`    // Serial port where the GPS receiver is mounted
		BaudRate     int           `yaml:"baud_rate"`      // Baud rate for the GPS receiver
		MapsAPIKey   string        `yaml:"maps_api_key"`   // Google Maps API key for the geolocation fallback
		ModemIndex   int           `yaml:"modem_index"`    // mmcli modem index for cell tower scans
		PollInterval time.Duration `yaml:"poll_interval"`  // Interval between position polls
		ReplayFile   string        `yaml:"replay_file"`    // NMEA log for the replay provider
		AutoStart    bool          `yaml:"auto_start"`     // Begin logging immediately on startup
	} `yaml:"gps"`

	MQTT struct {
		Enabled       bool          `yaml:"enabled"`        // Enable/disable live telemetry publishing
		Broker        string        `yaml:"broker"`         // MQTT broker address
		ClientID      string        `yaml:"client_id"`      // MQTT client ID
		CACertificate string        `yaml:"ca_certificate"` // Path to the CA certificate (optional)
		Topic         string        `yaml:"topic"`          // MQTT topic for telemetry messages
		QOS           int           `yaml:"qos"`            // MQTT QoS level for telemetry messages
		Interval      time.Duration `yaml:"interval"`       // Interval between telemetry messages
	} `yaml:"mqtt"`

	API struct {
		Enabled bool `yaml:"enabled"` // Enable/disable the local status HTTP server
		Port    int  `yaml:"port"`    // Listen port for the status server
	} `yaml:"api"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Agent.ExportPrefix == "" {
		config.Agent.ExportPrefix = "TrackPoint"
	}
	if config.GPS.PollInterval <= 0 {
		config.GPS.PollInterval = 2 * time.Second
	}
	if config.GPS.BaudRate == 0 {
		config.GPS.BaudRate = 9600
	}
	if config.MQTT.Interval <= 0 {
		config.MQTT.Interval = 10 * time.Second
	}
	if config.API.Port == 0 {
		config.API.Port = 8080
	}
}
