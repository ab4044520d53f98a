package export

import (
	"path/filepath"

	"github.com/detect-field/trackpoint/pkg/file"
	"github.com/rs/zerolog"
)

// Sink hands rendered export files to the filesystem. The caller treats the
// hand-off as fire-and-forget; failures are logged, not returned to the
// formatter.
type Sink struct {
	dir     string
	fileOps file.FileOperations
	logger  zerolog.Logger
}

// NewSink creates a sink writing into the given directory.
func NewSink(dir string, fileOps file.FileOperations, logger zerolog.Logger) *Sink {
	return &Sink{
		dir:     dir,
		fileOps: fileOps,
		logger:  logger,
	}
}

// Write persists both export artifacts. The CSV and KML are written
// independently so a failure on one does not lose the other.
func (s *Sink) Write(files *Files) error {
	var firstErr error

	for _, f := range []struct{ name, content string }{
		{files.CSVName, files.CSVContent},
		{files.KMLName, files.KMLContent},
	} {
		path := filepath.Join(s.dir, f.name)
		if err := s.fileOps.WriteFile(path, f.content); err != nil {
			s.logger.Error().Err(err).Str("path", path).Msg("Failed to write export file")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.logger.Info().Str("path", path).Msg("Export file written")
	}

	return firstErr
}
