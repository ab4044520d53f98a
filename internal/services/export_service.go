package services

import (
	"fmt"
	"time"

	"github.com/detect-field/trackpoint/internal/export"
	"github.com/detect-field/trackpoint/internal/session"
	"github.com/detect-field/trackpoint/internal/store"
	"github.com/detect-field/trackpoint/internal/utils"
	"github.com/rs/zerolog"
)

// ExportService renders the track log into CSV and KML documents and hands
// them to the file sink. Rendering happens synchronously over a snapshot;
// the file write is fire-and-forget on a worker pool so a slow disk never
// stalls fix processing.
type ExportService struct {
	prefix  string
	session *session.Session
	archive *store.Store
	sink    *export.Sink
	pool    *utils.WorkerPool
	logger  zerolog.Logger
}

// NewExportService creates a new ExportService instance.
func NewExportService(prefix string, sess *session.Session, archive *store.Store,
	sink *export.Sink, logger zerolog.Logger) *ExportService {
	return &ExportService{
		prefix:  prefix,
		session: sess,
		archive: archive,
		sink:    sink,
		pool:    utils.NewWorkerPool(1),
		logger:  logger,
	}
}

// ExportCurrent renders the live session and queues the file write. The
// returned Files carry the rendered documents and their names.
func (e *ExportService) ExportCurrent() (*export.Files, error) {
	points := e.session.Snapshot()

	files, err := export.Render(points, e.prefix, time.Now())
	if err != nil {
		return nil, err
	}

	e.enqueueWrite(files)
	return files, nil
}

// ExportArchived renders an archived session by ID and queues the file write.
func (e *ExportService) ExportArchived(sessionID string) (*export.Files, error) {
	if e.archive == nil {
		return nil, fmt.Errorf("no archive store configured")
	}

	points, err := e.archive.LoadPoints(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load archived session %s: %w", sessionID, err)
	}

	files, err := export.Render(points, e.prefix, time.Now())
	if err != nil {
		return nil, err
	}

	e.enqueueWrite(files)
	return files, nil
}

// Shutdown drains pending file writes.
func (e *ExportService) Shutdown() {
	e.pool.Shutdown()
}

func (e *ExportService) enqueueWrite(files *export.Files) {
	e.pool.Submit(func() {
		if err := e.sink.Write(files); err != nil {
			e.logger.Error().Err(err).Str("csv", files.CSVName).Msg("Export hand-off failed")
		}
	})
}
