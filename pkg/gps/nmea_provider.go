package gps

import (
	"bufio"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

// NMEAProvider reads position samples from a GPS receiver connected via
// serial port.
type NMEAProvider struct {
	port     string // Serial port to which the GPS device is connected
	baudRate int    // Baud rate for the serial communication
}

// NewNMEAProvider creates a new NMEAProvider for the specified port and baud rate.
func NewNMEAProvider(port string, baudRate int) *NMEAProvider {
	return &NMEAProvider{
		port:     port,
		baudRate: baudRate,
	}
}

// CurrentFix reads sentences from the receiver until it finds a usable
// position. RMC sentences are preferred since they carry course over ground;
// GGA sentences are accepted as a fallback.
func (p *NMEAProvider) CurrentFix() (Reading, error) {
	c := &serial.Config{Name: p.port, Baud: p.baudRate, ReadTimeout: 5 * time.Second}
	s, err := serial.OpenPort(c)
	if err != nil {
		return Reading{}, ErrSensorUnavailable
	}
	defer s.Close()

	scanner := bufio.NewScanner(s)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			continue // partial or corrupted sentence, keep reading
		}

		switch v := sentence.(type) {
		case nmea.RMC:
			if v.Validity != nmea.ValidRMC {
				continue
			}
			return Reading{
				Latitude:   v.Latitude,
				Longitude:  v.Longitude,
				Timestamp:  time.Now(),
				Heading:    v.Course,
				HasHeading: true,
			}, nil
		case nmea.GGA:
			if v.FixQuality == nmea.Invalid {
				continue
			}
			return Reading{
				Latitude:  v.Latitude,
				Longitude: v.Longitude,
				Timestamp: time.Now(),
			}, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return Reading{}, err
	}

	return Reading{}, ErrSensorUnavailable
}

// Close is a no-op; the serial port is opened and closed per read.
func (p *NMEAProvider) Close() error {
	return nil
}
