// Package export turns a track log snapshot into the two artifacts the field
// crews hand off: a CSV table with a per-mode summary, and a KML document
// with mode-styled pins and path segments. Rendering is pure string
// building; writing the files is the sink's job.
package export

import (
	"errors"
	"fmt"
	"time"

	"github.com/detect-field/trackpoint/internal/models"
)

// ErrExportEmpty is returned when no point in the log has valid coordinates.
var ErrExportEmpty = errors.New("no valid track points to export")

// DefaultPrefix identifies the product variant in exported filenames.
const DefaultPrefix = "TrackPoint"

// Files holds the rendered export artifacts and their filenames.
type Files struct {
	CSVName    string
	CSVContent string
	KMLName    string
	KMLContent string
}

// Render produces the CSV and KML documents for the given points. Points
// with non-finite coordinates are silently excluded; if nothing remains the
// export is refused with ErrExportEmpty. The timestamp fixes both the
// "Generated" header and the filename.
func Render(points []models.TrackPoint, prefix string, now time.Time) (*Files, error) {
	valid := points[:0:0]
	for _, p := range points {
		if p.HasValidCoordinates() {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return nil, ErrExportEmpty
	}

	if prefix == "" {
		prefix = DefaultPrefix
	}
	base := fmt.Sprintf("%s_%s", prefix, now.Format("2006-01-02_15-04"))

	return &Files{
		CSVName:    base + ".csv",
		CSVContent: renderCSV(valid, now),
		KMLName:    base + ".kml",
		KMLContent: renderKML(valid, base),
	}, nil
}
