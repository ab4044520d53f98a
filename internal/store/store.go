// Package store archives track sessions to SQLite so a session survives an
// agent restart and past sessions can be re-exported by ID.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/detect-field/trackpoint/internal/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Store wraps the SQLite connection.
type Store struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// SessionRecord summarizes an archived session.
type SessionRecord struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	User       string    `json:"user"`
	PointCount int       `json:"point_count"`
}

// Open creates (or reuses) the archive database at dbPath.
func Open(dbPath string, logger zerolog.Logger) (*Store, error) {
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	// SQLite works best with a single writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	s := &Store{conn: conn, logger: logger}
	if err := s.initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize archive database: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		user TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS points (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		captured_at DATETIME NOT NULL,
		time_label TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		heading TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		take_off INTEGER NOT NULL DEFAULT 0,
		transport TEXT NOT NULL,
		inferred_transport TEXT NOT NULL,
		speed_kmh REAL,
		user TEXT NOT NULL,
		PRIMARY KEY (session_id, seq),
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_points_session ON points(session_id);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// CreateSession registers a new session row. Re-registering an existing
// session is a no-op.
func (s *Store) CreateSession(id, user string, startedAt time.Time) error {
	query := `INSERT OR IGNORE INTO sessions (id, started_at, user) VALUES (?, ?, ?)`
	_, err := s.conn.Exec(query, id, startedAt, user)
	return err
}

// AppendPoint archives one track point at its log position.
func (s *Store) AppendPoint(sessionID string, seq int, p models.TrackPoint) error {
	query := `
		INSERT OR REPLACE INTO points
		(session_id, seq, captured_at, time_label, latitude, longitude, heading,
		 note, take_off, transport, inferred_transport, speed_kmh, user)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.Exec(query,
		sessionID, seq, p.Timestamp, p.Time, p.Latitude, p.Longitude, p.Heading,
		p.Note, boolToInt(p.TakeOff), p.Transport, string(p.InferredTransport), nullableFloat(p.SpeedKmh), p.User,
	)
	return err
}

// SetNote updates the note on an archived point.
func (s *Store) SetNote(sessionID string, seq int, note string) error {
	_, err := s.conn.Exec(`UPDATE points SET note = ? WHERE session_id = ? AND seq = ?`, note, sessionID, seq)
	return err
}

// SetTakeOff flags an archived point as the take-off location.
func (s *Store) SetTakeOff(sessionID string, seq int) error {
	_, err := s.conn.Exec(`UPDATE points SET take_off = 1 WHERE session_id = ? AND seq = ?`, sessionID, seq)
	return err
}

// DeleteSession removes a session and its points, mirroring the in-memory
// reset.
func (s *Store) DeleteSession(sessionID string) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM points WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListSessions returns archived sessions, newest first.
func (s *Store) ListSessions() ([]SessionRecord, error) {
	query := `
		SELECT s.id, s.started_at, s.user, COUNT(p.seq)
		FROM sessions s
		LEFT JOIN points p ON p.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC
	`

	rows, err := s.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.User, &r.PointCount); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LoadPoints returns the archived track log for a session in log order,
// ready for the export formatter.
func (s *Store) LoadPoints(sessionID string) ([]models.TrackPoint, error) {
	query := `
		SELECT captured_at, time_label, latitude, longitude, heading,
		       note, take_off, transport, inferred_transport, speed_kmh, user
		FROM points
		WHERE session_id = ?
		ORDER BY seq
	`

	rows, err := s.conn.Query(query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.TrackPoint
	for rows.Next() {
		var p models.TrackPoint
		var takeOff int
		var speed sql.NullFloat64
		var inferred string

		err := rows.Scan(&p.Timestamp, &p.Time, &p.Latitude, &p.Longitude, &p.Heading,
			&p.Note, &takeOff, &p.Transport, &inferred, &speed, &p.User)
		if err != nil {
			return nil, err
		}

		p.TakeOff = takeOff != 0
		p.InferredTransport = models.TransportMode(inferred)
		if speed.Valid {
			p.SpeedKmh = &speed.Float64
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
