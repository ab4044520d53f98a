package gps

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sentence wraps an NMEA body with the leading $ and computed checksum.
func sentence(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, sum)
}

func writeReplayFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.nmea")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600))
	return path
}

func TestReplayProvider_ServesRMCInOrder(t *testing.T) {
	path := writeReplayFile(t,
		sentence("GPRMC,100000.00,A,4500.0000,N,07500.0000,W,2.7,90.0,010625,0.0,W,A"),
		sentence("GPRMC,100005.00,A,4500.0600,N,07500.0000,W,2.7,90.0,010625,0.0,W,A"),
	)

	p, err := NewReplayProvider(path)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Remaining())

	first, err := p.CurrentFix()
	require.NoError(t, err)
	assert.InDelta(t, 45.0, first.Latitude, 1e-6)
	assert.InDelta(t, -75.0, first.Longitude, 1e-6)
	assert.True(t, first.HasHeading)
	assert.InDelta(t, 90.0, first.Heading, 1e-6)
	assert.Equal(t, 2025, first.Timestamp.Year())
	assert.Equal(t, 10, first.Timestamp.Hour())

	second, err := p.CurrentFix()
	require.NoError(t, err)
	assert.InDelta(t, 45.001, second.Latitude, 1e-6)
	assert.True(t, second.Timestamp.After(first.Timestamp))

	_, err = p.CurrentFix()
	assert.ErrorIs(t, err, ErrReplayDone)
	assert.Equal(t, 0, p.Remaining())
}

func TestReplayProvider_SkipsInvalidAndNonRMC(t *testing.T) {
	path := writeReplayFile(t,
		"garbage line",
		sentence("GPGGA,100000.00,4500.0000,N,07500.0000,W,1,08,0.9,12.0,M,0.0,M,,"),
		sentence("GPRMC,100000.00,V,4500.0000,N,07500.0000,W,2.7,90.0,010625,0.0,W,N"),
		sentence("GPRMC,100005.00,A,4500.0600,N,07500.0000,W,2.7,90.0,010625,0.0,W,A"),
	)

	p, err := NewReplayProvider(path)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Remaining())
}

func TestReplayProvider_NoUsableSentences(t *testing.T) {
	path := writeReplayFile(t, "garbage line")

	_, err := NewReplayProvider(path)
	assert.ErrorIs(t, err, ErrSensorUnavailable)
}

func TestReplayProvider_MissingFile(t *testing.T) {
	_, err := NewReplayProvider(filepath.Join(t.TempDir(), "missing.nmea"))
	assert.Error(t, err)
}
