// Package session owns all mutable tracking state: the append-only track
// log, the classifier window, the latest heading, the operator identity and
// the sticky manual transport mode. Every fix flows through a single OnFix
// entry point; annotations only ever touch the tail of the log.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/detect-field/trackpoint/internal/classifier"
	"github.com/detect-field/trackpoint/internal/geo"
	"github.com/detect-field/trackpoint/internal/models"
	"github.com/detect-field/trackpoint/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidFix is returned for fixes with non-finite or out-of-range
	// coordinates. Such fixes are dropped without touching session state.
	ErrInvalidFix = errors.New("invalid fix coordinates")

	// ErrNoPoints is returned when an annotation is attempted on an empty log.
	ErrNoPoints = errors.New("no track points recorded yet")

	// ErrEmptyNote is returned when a note is blank after trimming.
	ErrEmptyNote = errors.New("note is empty")

	// ErrUnknownTransportMode is returned for manual modes outside the
	// selectable set.
	ErrUnknownTransportMode = errors.New("unknown transport mode")
)

// displayTimeLayout matches the 12-hour clock the log table has always shown.
const displayTimeLayout = "3:04:05 PM"

const unknownHeading = "--"

// Listener receives track log change notifications, e.g. to refresh a UI,
// publish telemetry or archive points. Callbacks run synchronously on the
// fix-processing goroutine and must not block.
type Listener interface {
	PointAppended(sessionID string, seq int, point models.TrackPoint)
	NoteSet(sessionID string, seq int, point models.TrackPoint)
	TakeOffSet(sessionID string, seq int, point models.TrackPoint)
	SessionReset(sessionID string)
}

// Status is a read-only snapshot of the live session state.
type Status struct {
	SessionID    string               `json:"session_id"`
	Tracking     bool                 `json:"tracking"`
	Latitude     float64              `json:"latitude"`
	Longitude    float64              `json:"longitude"`
	Heading      string               `json:"heading"`
	Direction    string               `json:"direction"`
	LastFixAt    time.Time            `json:"last_fix_at"`
	Transport    string               `json:"transport"`
	InferredMode models.TransportMode `json:"inferred_mode"`
	SpeedKmh     *float64             `json:"speed_kmh,omitempty"`
	User         string               `json:"user"`
	PointCount   int                  `json:"point_count"`
}

// Session is the single owner of tracking state. All methods are safe for
// concurrent use; fixes themselves are processed one at a time.
type Session struct {
	mu sync.Mutex

	id         string
	log        []models.TrackPoint
	path       [][2]float64
	classifier *classifier.Classifier

	tracking     bool
	heading      float64
	hasHeading   bool
	manualMode   string
	user         string
	inferredMode models.TransportMode
	lastFix      *models.Fix

	listeners []Listener
	logger    zerolog.Logger

	validModes map[models.TransportMode]struct{}
}

// New creates a session with a fresh UUID, an empty log and the supplied
// sticky defaults.
func New(manualMode, user string, logger zerolog.Logger) *Session {
	if manualMode == "" {
		manualMode = string(models.ModeWalking)
	}
	if user == "" {
		user = "Unknown"
	}
	return &Session{
		id:           uuid.New().String(),
		classifier:   classifier.New(logger),
		manualMode:   manualMode,
		user:         user,
		inferredMode: models.ModeOther,
		logger:       logger,
		validModes:   utils.SliceToSet(models.TransportModes),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// AddListener registers a change listener. Listeners must be registered
// before tracking starts.
func (s *Session) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// StartTracking begins appending accepted fixes to the log.
func (s *Session) StartTracking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking = true
	s.logger.Info().Str("session_id", s.id).Msg("Tracking started")
}

// StopTracking stops appending fixes. Position and classifier state keep
// updating so the live readout stays current.
func (s *Session) StopTracking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking = false
	s.logger.Info().Str("session_id", s.id).Msg("Tracking stopped")
}

// IsTracking reports whether fixes are currently being logged.
func (s *Session) IsTracking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracking
}

// UpdateHeading stores the latest heading in degrees. Heading updates never
// create log entries; the value is stamped onto the next appended point.
func (s *Session) UpdateHeading(deg float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heading = deg
	s.hasHeading = true
}

// SetManualMode updates the operator-selected transport mode. The mode is
// sticky: it survives resets and is persisted by the preferences listener.
func (s *Session) SetManualMode(mode string) error {
	if _, ok := s.validModes[models.TransportMode(mode)]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTransportMode, mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manualMode = mode
	s.logger.Info().Str("transport", mode).Msg("Manual transport mode changed")
	return nil
}

// ManualMode returns the current operator-selected transport mode.
func (s *Session) ManualMode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manualMode
}

// SetUser updates the operator identity stamped onto new points.
func (s *Session) SetUser(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == "" {
		user = "Unknown"
	}
	s.user = user
}

// OnFix processes one raw GPS sample to completion: validation, classifier
// update, heading capture and, while tracking is active, a log append.
// It returns the appended point, or nil if the fix only refreshed the live
// position.
func (s *Session) OnFix(fix models.Fix) (*models.TrackPoint, error) {
	if !fix.Valid() {
		s.logger.Debug().
			Float64("lat", fix.Latitude).
			Float64("lng", fix.Longitude).
			Msg("Dropping fix with invalid coordinates")
		return nil, ErrInvalidFix
	}

	s.mu.Lock()

	if fix.HasHeading {
		s.heading = fix.Heading
		s.hasHeading = true
	}

	s.inferredMode = s.classifier.Observe(fix)
	s.lastFix = &fix

	if !s.tracking {
		s.mu.Unlock()
		return nil, nil
	}

	point := models.TrackPoint{
		Time:              fix.Timestamp.Format(displayTimeLayout),
		Timestamp:         fix.Timestamp,
		Latitude:          fix.Latitude,
		Longitude:         fix.Longitude,
		Heading:           s.headingLabelLocked(),
		Note:              "",
		TakeOff:           false,
		Transport:         s.manualMode,
		InferredTransport: s.inferredMode,
		SpeedKmh:          s.classifier.SpeedKmh(),
		User:              s.user,
	}

	s.log = append(s.log, point)
	s.path = append(s.path, [2]float64{fix.Latitude, fix.Longitude})
	seq := len(s.log) - 1
	listeners := s.listenersLocked()
	id := s.id
	s.mu.Unlock()

	for _, l := range listeners {
		l.PointAppended(id, seq, point)
	}
	return &point, nil
}

// SetNoteOnLatest overwrites the note on the tail point. The text is trimmed
// first; a blank result leaves the log untouched.
func (s *Session) SetNoteOnLatest(text string) error {
	s.mu.Lock()
	if len(s.log) == 0 {
		s.mu.Unlock()
		return ErrNoPoints
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		s.mu.Unlock()
		return ErrEmptyNote
	}

	seq := len(s.log) - 1
	s.log[seq].Note = trimmed
	point := s.log[seq]
	listeners := s.listenersLocked()
	id := s.id
	s.mu.Unlock()

	for _, l := range listeners {
		l.NoteSet(id, seq, point)
	}
	return nil
}

// MarkTakeOffOnLatest flags the tail point as the take-off location. The
// operation is idempotent per point; marking the same tail twice is harmless.
func (s *Session) MarkTakeOffOnLatest() error {
	s.mu.Lock()
	if len(s.log) == 0 {
		s.mu.Unlock()
		return ErrNoPoints
	}

	seq := len(s.log) - 1
	s.log[seq].TakeOff = true
	point := s.log[seq]
	listeners := s.listenersLocked()
	id := s.id
	s.mu.Unlock()

	for _, l := range listeners {
		l.TakeOffSet(id, seq, point)
	}
	return nil
}

// Reset atomically clears the log, the path and the classifier window and
// assigns a fresh session ID. The manual transport mode and operator
// identity are sticky and survive the reset.
func (s *Session) Reset() {
	s.mu.Lock()
	oldID := s.id
	s.id = uuid.New().String()
	s.log = nil
	s.path = nil
	s.classifier.Reset()
	s.inferredMode = models.ModeOther
	s.lastFix = nil
	s.tracking = false
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.logger.Info().Str("session_id", oldID).Msg("Session reset")
	for _, l := range listeners {
		l.SessionReset(oldID)
	}
}

// Snapshot returns an immutable copy of the track log. Export always runs
// over a snapshot so concurrent tail edits cannot tear a document.
func (s *Session) Snapshot() []models.TrackPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	points := make([]models.TrackPoint, len(s.log))
	copy(points, s.log)
	return points
}

// Path returns a copy of the logged path coordinates, oldest first.
func (s *Session) Path() [][2]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := make([][2]float64, len(s.path))
	copy(path, s.path)
	return path
}

// Status returns a snapshot of the live readout values.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		SessionID:    s.id,
		Tracking:     s.tracking,
		Heading:      s.headingLabelLocked(),
		Direction:    s.directionLocked(),
		Transport:    s.manualMode,
		InferredMode: s.inferredMode,
		SpeedKmh:     s.classifier.SpeedKmh(),
		User:         s.user,
		PointCount:   len(s.log),
	}
	if s.lastFix != nil {
		st.Latitude = s.lastFix.Latitude
		st.Longitude = s.lastFix.Longitude
		st.LastFixAt = s.lastFix.Timestamp
	}
	return st
}

func (s *Session) headingLabelLocked() string {
	if !s.hasHeading {
		return unknownHeading
	}
	return fmt.Sprintf("%.0f", s.heading)
}

func (s *Session) directionLocked() string {
	if !s.hasHeading {
		return unknownHeading
	}
	return geo.Direction8(s.heading)
}

func (s *Session) listenersLocked() []Listener {
	out := make([]Listener, len(s.listeners))
	copy(out, s.listeners)
	return out
}
