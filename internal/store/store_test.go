package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/detect-field/trackpoint/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tracklog.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func archivedPoint(timeLabel string, lat float64) models.TrackPoint {
	speed := 4.2
	return models.TrackPoint{
		Time:              timeLabel,
		Timestamp:         time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Latitude:          lat,
		Longitude:         -75.0,
		Heading:           "90",
		Transport:         "Walking",
		InferredTransport: models.ModeWalking,
		SpeedKmh:          &speed,
		User:              "alice",
	}
}

func TestAppendAndLoadPoints(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.CreateSession("sess-1", "alice", time.Now()))
	require.NoError(t, s.AppendPoint("sess-1", 0, archivedPoint("10:00:00 AM", 45.0)))
	require.NoError(t, s.AppendPoint("sess-1", 1, archivedPoint("10:05:00 AM", 45.001)))

	points, err := s.LoadPoints("sess-1")
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "10:00:00 AM", points[0].Time)
	assert.Equal(t, 45.001, points[1].Latitude)
	assert.Equal(t, models.ModeWalking, points[0].InferredTransport)
	if assert.NotNil(t, points[0].SpeedKmh) {
		assert.InDelta(t, 4.2, *points[0].SpeedKmh, 0.001)
	}
}

func TestNoteAndTakeOffUpdates(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.CreateSession("sess-1", "alice", time.Now()))
	require.NoError(t, s.AppendPoint("sess-1", 0, archivedPoint("10:00:00 AM", 45.0)))

	require.NoError(t, s.SetNote("sess-1", 0, "fuel cache"))
	require.NoError(t, s.SetTakeOff("sess-1", 0))

	points, err := s.LoadPoints("sess-1")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "fuel cache", points[0].Note)
	assert.True(t, points[0].TakeOff)
}

func TestListAndDeleteSessions(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.CreateSession("sess-1", "alice", time.Now().Add(-time.Hour)))
	require.NoError(t, s.CreateSession("sess-2", "bob", time.Now()))
	require.NoError(t, s.AppendPoint("sess-2", 0, archivedPoint("10:00:00 AM", 45.0)))

	records, err := s.ListSessions()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "sess-2", records[0].ID, "newest session first")
	assert.Equal(t, 1, records[0].PointCount)
	assert.Equal(t, 0, records[1].PointCount)

	require.NoError(t, s.DeleteSession("sess-2"))

	records, err = s.ListSessions()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "sess-1", records[0].ID)

	points, err := s.LoadPoints("sess-2")
	require.NoError(t, err)
	assert.Len(t, points, 0)
}

func TestArchiveListenerMirrorsSession(t *testing.T) {
	s := openTestStore(t)
	listener := NewArchiveListener(s, zerolog.Nop())

	p := archivedPoint("10:00:00 AM", 45.0)
	listener.PointAppended("sess-1", 0, p)

	p2 := archivedPoint("10:05:00 AM", 45.001)
	listener.PointAppended("sess-1", 1, p2)

	p2.Note = "ridge"
	listener.NoteSet("sess-1", 1, p2)
	listener.TakeOffSet("sess-1", 1, p2)

	points, err := s.LoadPoints("sess-1")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "ridge", points[1].Note)
	assert.True(t, points[1].TakeOff)

	listener.SessionReset("sess-1")

	points, err = s.LoadPoints("sess-1")
	require.NoError(t, err)
	assert.Len(t, points, 0)
}
