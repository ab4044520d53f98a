package export

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/detect-field/trackpoint/internal/models"
	"github.com/stretchr/testify/assert"
)

var exportedAt = time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

func walkingPoint(timeLabel string, lat, lng float64) models.TrackPoint {
	return models.TrackPoint{
		Time:              timeLabel,
		Latitude:          lat,
		Longitude:         lng,
		Heading:           "90",
		Transport:         "Walking",
		InferredTransport: models.ModeWalking,
		User:              "alice",
	}
}

func TestRender_Filenames(t *testing.T) {
	files, err := Render([]models.TrackPoint{walkingPoint("10:00:00 AM", 45, -75)}, "TrackPoint", exportedAt)

	assert.NoError(t, err)
	assert.Equal(t, "TrackPoint_2025-06-01_14-30.csv", files.CSVName)
	assert.Equal(t, "TrackPoint_2025-06-01_14-30.kml", files.KMLName)
}

func TestRender_EmptyLog(t *testing.T) {
	_, err := Render(nil, "TrackPoint", exportedAt)
	assert.ErrorIs(t, err, ErrExportEmpty)
}

func TestRender_FiltersInvalidCoordinates(t *testing.T) {
	points := []models.TrackPoint{
		walkingPoint("10:00:00 AM", 45.0, -75.0),
		walkingPoint("10:00:05 AM", math.NaN(), -75.0),
	}

	files, err := Render(points, "TrackPoint", exportedAt)
	assert.NoError(t, err)
	assert.Contains(t, files.CSVContent, "Total Points: 1")

	_, err = Render([]models.TrackPoint{walkingPoint("10:00:00 AM", math.NaN(), -75.0)}, "TrackPoint", exportedAt)
	assert.ErrorIs(t, err, ErrExportEmpty)
}

func TestCSV_Layout(t *testing.T) {
	points := []models.TrackPoint{
		walkingPoint("10:00:00 AM", 45.0, -75.0),
		walkingPoint("10:05:00 AM", 45.001, -75.0),
	}
	points[1].Note = "ridge crossing"

	csv := renderCSV(points, exportedAt)
	lines := strings.Split(csv, "\n")

	assert.Equal(t, "Detect GPS Export", lines[0])
	assert.Equal(t, "Generated: 6/1/2025, 2:30:00 PM", lines[1])
	assert.Equal(t, "Total Points: 2", lines[2])
	assert.Equal(t, "", lines[3])
	assert.Equal(t, "Summary by Mode (points)", lines[4])
	assert.Equal(t, "Walking,2", lines[5])
	assert.Equal(t, "", lines[6])
	assert.Equal(t, "Time,Lat,Lng,Heading,Note,Take-Off,Transportation,User", lines[7])
	assert.Equal(t, "10:00:00 AM,45.00000,-75.00000,90,,--,Walking,alice", lines[8])
	assert.Equal(t, "10:05:00 AM,45.00100,-75.00000,90,ridge crossing,--,Walking,alice", lines[9])
	assert.Len(t, lines, 10, "exactly N data rows follow the column header")
}

func TestCSV_ModeSummaryFirstSeenOrder(t *testing.T) {
	points := []models.TrackPoint{
		walkingPoint("10:00:00 AM", 45.0, -75.0),
		walkingPoint("10:01:00 AM", 45.001, -75.0),
		walkingPoint("10:02:00 AM", 45.002, -75.0),
	}
	points[1].Transport = "Helicopter"
	points[2].Transport = ""

	csv := renderCSV(points, exportedAt)
	lines := strings.Split(csv, "\n")

	assert.Equal(t, "Walking,1", lines[5])
	assert.Equal(t, "Helicopter,1", lines[6])
	assert.Equal(t, "Unknown,1", lines[7])
}

func TestCSV_TakeOffCell(t *testing.T) {
	p := walkingPoint("10:00:00 AM", 45.0, -75.0)
	p.TakeOff = true

	csv := renderCSV([]models.TrackPoint{p}, exportedAt)

	assert.Contains(t, csv, "10:00:00 AM,45.00000,-75.00000,90,,X,Walking,alice")
}

func TestCSV_SanitizesEmbeddedSeparators(t *testing.T) {
	p := walkingPoint("10:00:00 AM", 45.0, -75.0)
	p.Note = "left fuel, rope\nand saw"

	csv := renderCSV([]models.TrackPoint{p}, exportedAt)
	lines := strings.Split(csv, "\n")
	lastLine := lines[len(lines)-1]

	assert.Equal(t, "10:00:00 AM,45.00000,-75.00000,90,left fuel  rope and saw,--,Walking,alice", lastLine)
}

func TestKML_SinglePathSegmentUsesWalkingLine(t *testing.T) {
	points := []models.TrackPoint{
		walkingPoint("10:00:00 AM", 45.0, -75.0),
		walkingPoint("10:05:00 AM", 45.001, -75.0),
	}

	kml := renderKML(points, "TrackPoint_2025-06-01_14-30")

	assert.Equal(t, 1, strings.Count(kml, "#walkingLine"))
	assert.Equal(t, 2, strings.Count(kml, "#walkingStyle"))
	assert.Contains(t, kml, "<coordinates>-75.00000,45.00000,0 -75.00000,45.00100,0</coordinates>")
}

func TestKML_NoPathForSinglePoint(t *testing.T) {
	kml := renderKML([]models.TrackPoint{walkingPoint("10:00:00 AM", 45.0, -75.0)}, "x")

	assert.NotContains(t, kml, "<LineString>")
}

func TestKML_PathColoredBySecondPoint(t *testing.T) {
	points := []models.TrackPoint{
		walkingPoint("10:00:00 AM", 45.0, -75.0),
		walkingPoint("10:05:00 AM", 45.001, -75.0),
		walkingPoint("10:10:00 AM", 45.002, -75.0),
	}
	points[1].Transport = "Helicopter"
	points[2].Transport = "Truck"

	kml := renderKML(points, "x")

	assert.Equal(t, 1, strings.Count(kml, "#heliLine"))
	assert.Equal(t, 1, strings.Count(kml, "#drivingLine"))
}

func TestKML_PointStyles(t *testing.T) {
	points := []models.TrackPoint{
		walkingPoint("10:00:00 AM", 45.0, -75.0),
		walkingPoint("10:01:00 AM", 45.001, -75.0),
		walkingPoint("10:02:00 AM", 45.002, -75.0),
	}
	points[1].Transport = "Helicopter"
	points[2].Transport = "ATV"

	kml := renderKML(points, "x")

	assert.Equal(t, 1, strings.Count(kml, "<styleUrl>#walkingStyle</styleUrl>"))
	assert.Equal(t, 1, strings.Count(kml, "<styleUrl>#heliStyle</styleUrl>"))
	assert.Equal(t, 1, strings.Count(kml, "<styleUrl>#drivingStyle</styleUrl>"))
}

func TestKML_TakeOffFolderAndStyle(t *testing.T) {
	points := []models.TrackPoint{
		walkingPoint("10:00:00 AM", 45.0, -75.0),
		walkingPoint("10:05:00 AM", 45.001, -75.0),
	}
	points[1].Transport = "Helicopter"
	points[1].TakeOff = true

	kml := renderKML(points, "x")

	// The take-off point uses the heliport style regardless of transport.
	assert.Equal(t, 1, strings.Count(kml, "<styleUrl>#takeOffStyle</styleUrl>"))
	assert.NotContains(t, kml, "<styleUrl>#heliStyle</styleUrl>")

	// Folders draw paths first, then points, then take-off markers.
	paths := strings.Index(kml, "<name>Paths</name>")
	regular := strings.Index(kml, "<name>Points</name>")
	takeOff := strings.Index(kml, "<name>Take-Off Points</name>")
	assert.True(t, paths < regular && regular < takeOff)
}

func TestKML_DescriptionEmbedsFields(t *testing.T) {
	p := walkingPoint("10:00:00 AM", 45.0, -75.0)
	p.Note = "drop zone"
	p.TakeOff = true

	kml := renderKML([]models.TrackPoint{p}, "x")

	assert.Contains(t, kml, "Time: 10:00:00 AM<br/>")
	assert.Contains(t, kml, "Note: drop zone<br/>")
	assert.Contains(t, kml, "Take-Off: ✔<br/>")
	assert.Contains(t, kml, "User: alice<br/>")
}

func TestNormalizeClockTime(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"10:00:00 AM", "10:00"},
		{"2:05:09 PM", "14:05"},
		{"12:30:00 AM", "00:30"},
		{"12:30:00 PM", "12:30"},
		{"9:41 AM", "09:41"},
		{"18:22:07", "18:22"},
		{"7:03:44", "07:03"},
		{"18:22", "18:22"},
		{"7:03", "07:03"},
		{"noonish", "noonish"},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, normalizeClockTime(tc.in), "input %q", tc.in)
	}
}

func TestRender_EndToEnd(t *testing.T) {
	points := []models.TrackPoint{
		walkingPoint("10:00:00 AM", 45.0, -75.0),
		walkingPoint("10:05:00 AM", 45.001, -75.0),
	}

	files, err := Render(points, "TrackPoint", exportedAt)
	assert.NoError(t, err)

	assert.Contains(t, files.CSVContent, "10:00:00 AM,45.00000,-75.00000,90,,--,Walking,alice")
	assert.Contains(t, files.CSVContent, "10:05:00 AM,45.00100,-75.00000,90,,--,Walking,alice")

	assert.Equal(t, 2, strings.Count(files.KMLContent, "<styleUrl>#walkingStyle</styleUrl>"))
	assert.Equal(t, 1, strings.Count(files.KMLContent, "<styleUrl>#walkingLine</styleUrl>"))
	assert.Contains(t, files.KMLContent, "<name>10:00</name>")
	assert.Contains(t, files.KMLContent, "<name>10:05</name>")
}
