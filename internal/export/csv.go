package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/detect-field/trackpoint/internal/models"
)

// generatedLayout mirrors the en-US locale datetime the header always used.
const generatedLayout = "1/2/2006, 3:04:05 PM"

var csvColumns = []string{"Time", "Lat", "Lng", "Heading", "Note", "Take-Off", "Transportation", "User"}

// renderCSV builds the CSV document. Row order is fixed: title, generated
// timestamp, point count, blank, per-mode summary, blank, column header,
// then one row per point. Mode summary rows appear in first-seen order.
func renderCSV(points []models.TrackPoint, now time.Time) string {
	var b strings.Builder

	writeRow(&b, "Detect GPS Export")
	writeRow(&b, "Generated: "+now.Format(generatedLayout))
	writeRow(&b, "Total Points: "+strconv.Itoa(len(points)))
	writeRow(&b)

	writeRow(&b, "Summary by Mode (points)")
	modes, counts := modeSummary(points)
	for _, mode := range modes {
		writeRow(&b, mode, strconv.Itoa(counts[mode]))
	}
	writeRow(&b)

	writeRow(&b, csvColumns...)
	for _, p := range points {
		writeRow(&b,
			p.Time,
			fmt.Sprintf("%.5f", p.Latitude),
			fmt.Sprintf("%.5f", p.Longitude),
			p.Heading,
			sanitizeField(p.Note),
			takeOffCell(p),
			sanitizeField(p.Transport),
			sanitizeField(p.User),
		)
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// modeSummary counts points per manual transport mode, keyed by the raw
// transport value ("Unknown" for blanks), preserving first-seen order.
func modeSummary(points []models.TrackPoint) ([]string, map[string]int) {
	var order []string
	counts := make(map[string]int)
	for _, p := range points {
		mode := p.Transport
		if mode == "" {
			mode = "Unknown"
		}
		if _, seen := counts[mode]; !seen {
			order = append(order, mode)
		}
		counts[mode]++
	}
	return order, counts
}

func takeOffCell(p models.TrackPoint) string {
	if p.TakeOff {
		return "X"
	}
	return "--"
}

// sanitizeField keeps rows parseable under the legacy plain comma join by
// replacing embedded separators with spaces instead of quoting.
func sanitizeField(s string) string {
	r := strings.NewReplacer(",", " ", "\n", " ", "\r", " ")
	return r.Replace(s)
}

func writeRow(b *strings.Builder, cells ...string) {
	b.WriteString(strings.Join(cells, ","))
	b.WriteString("\n")
}
