package gps

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
)

// ReplayProvider serves position samples from a recorded NMEA log, one per
// CurrentFix call, so a full field session can be pushed through the
// pipeline on a desk.
type ReplayProvider struct {
	readings []Reading
	next     int
}

// NewReplayProvider parses the NMEA log at path. Only valid RMC sentences
// are replayed; they carry date, time and course alongside the position.
func NewReplayProvider(path string) (*ReplayProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	var readings []Reading
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			continue
		}

		rmc, ok := sentence.(nmea.RMC)
		if !ok || rmc.Validity != nmea.ValidRMC {
			continue
		}

		readings = append(readings, Reading{
			Latitude:   rmc.Latitude,
			Longitude:  rmc.Longitude,
			Timestamp:  rmcTimestamp(rmc),
			Heading:    rmc.Course,
			HasHeading: true,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read replay file: %w", err)
	}
	if len(readings) == 0 {
		return nil, fmt.Errorf("%w: no valid RMC sentences in %s", ErrSensorUnavailable, path)
	}

	return &ReplayProvider{readings: readings}, nil
}

// CurrentFix returns the next recorded sample, or ErrReplayDone once the log
// is exhausted.
func (p *ReplayProvider) CurrentFix() (Reading, error) {
	if p.next >= len(p.readings) {
		return Reading{}, ErrReplayDone
	}
	r := p.readings[p.next]
	p.next++
	return r, nil
}

// Remaining returns how many samples are left to replay.
func (p *ReplayProvider) Remaining() int {
	return len(p.readings) - p.next
}

// Close is a no-op; the log is fully parsed at construction.
func (p *ReplayProvider) Close() error {
	return nil
}

func rmcTimestamp(rmc nmea.RMC) time.Time {
	return time.Date(
		2000+rmc.Date.YY, time.Month(rmc.Date.MM), rmc.Date.DD,
		rmc.Time.Hour, rmc.Time.Minute, rmc.Time.Second,
		rmc.Time.Millisecond*int(time.Millisecond),
		time.UTC,
	)
}
