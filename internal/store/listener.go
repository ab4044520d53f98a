package store

import (
	"time"

	"github.com/detect-field/trackpoint/internal/models"
	"github.com/rs/zerolog"
)

// ArchiveListener mirrors track log changes into the SQLite archive. It
// implements session.Listener; archive failures are logged and never stall
// fix processing.
type ArchiveListener struct {
	store  *Store
	logger zerolog.Logger
}

// NewArchiveListener creates a listener writing to the given store.
func NewArchiveListener(store *Store, logger zerolog.Logger) *ArchiveListener {
	return &ArchiveListener{store: store, logger: logger}
}

func (a *ArchiveListener) PointAppended(sessionID string, seq int, point models.TrackPoint) {
	if seq == 0 {
		if err := a.store.CreateSession(sessionID, point.User, time.Now()); err != nil {
			a.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to archive session")
			return
		}
	}
	if err := a.store.AppendPoint(sessionID, seq, point); err != nil {
		a.logger.Error().Err(err).Str("session_id", sessionID).Int("seq", seq).Msg("Failed to archive point")
	}
}

func (a *ArchiveListener) NoteSet(sessionID string, seq int, point models.TrackPoint) {
	if err := a.store.SetNote(sessionID, seq, point.Note); err != nil {
		a.logger.Error().Err(err).Str("session_id", sessionID).Int("seq", seq).Msg("Failed to archive note")
	}
}

func (a *ArchiveListener) TakeOffSet(sessionID string, seq int, point models.TrackPoint) {
	if err := a.store.SetTakeOff(sessionID, seq); err != nil {
		a.logger.Error().Err(err).Str("session_id", sessionID).Int("seq", seq).Msg("Failed to archive take-off flag")
	}
}

func (a *ArchiveListener) SessionReset(sessionID string) {
	if err := a.store.DeleteSession(sessionID); err != nil {
		a.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to clear archived session")
	}
}
