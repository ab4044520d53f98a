package export

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/detect-field/trackpoint/internal/models"
)

// KML colors are aabbggrr.
const (
	walkingLineColor = "ff00ffff" // yellow
	heliLineColor    = "ff00ff00" // green
	drivingLineColor = "ffff0000" // blue

	lineWidth = 4

	walkingIcon = "http://maps.google.com/mapfiles/kml/pushpin/ylw-pushpin.png"
	heliIcon    = "http://maps.google.com/mapfiles/kml/pushpin/grn-pushpin.png"
	drivingIcon = "http://maps.google.com/mapfiles/kml/pushpin/blue-pushpin.png"
	takeOffIcon = "http://maps.google.com/mapfiles/kml/shapes/heliport.png"
)

// renderKML builds the KML document: shared styles, then one folder of path
// segments, one of regular points and one of take-off points. Take-off
// markers go last so they are never occluded by the path or ordinary pins.
func renderKML(points []models.TrackPoint, name string) string {
	var b strings.Builder

	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<kml xmlns=\"http://www.opengis.net/kml/2.2\">\n")
	b.WriteString("  <Document>\n")
	fmt.Fprintf(&b, "    <name>%s</name>\n", name)
	writeStyles(&b)
	writePathFolder(&b, points)
	writePointFolders(&b, points)
	b.WriteString("  </Document>\n")
	b.WriteString("</kml>\n")

	return b.String()
}

func writeStyles(b *strings.Builder) {
	pin := func(id, icon string) {
		fmt.Fprintf(b, "    <Style id=\"%s\">\n      <IconStyle>\n        <Icon><href>%s</href></Icon>\n      </IconStyle>\n    </Style>\n", id, icon)
	}
	line := func(id, color string) {
		fmt.Fprintf(b, "    <Style id=\"%s\">\n      <LineStyle>\n        <color>%s</color>\n        <width>%d</width>\n      </LineStyle>\n    </Style>\n", id, color, lineWidth)
	}

	pin("walkingStyle", walkingIcon)
	pin("heliStyle", heliIcon)
	pin("drivingStyle", drivingIcon)
	pin("takeOffStyle", takeOffIcon)
	line("walkingLine", walkingLineColor)
	line("heliLine", heliLineColor)
	line("drivingLine", drivingLineColor)
}

// writePathFolder emits one line segment per consecutive point pair, colored
// by the second point's transport mode. Fewer than two points means no path.
func writePathFolder(b *strings.Builder, points []models.TrackPoint) {
	if len(points) < 2 {
		return
	}

	b.WriteString("    <Folder>\n      <name>Paths</name>\n")
	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1], points[i]
		fmt.Fprintf(b, "      <Placemark>\n        <name>Segment %d</name>\n        <styleUrl>#%s</styleUrl>\n        <LineString>\n          <coordinates>%s %s</coordinates>\n        </LineString>\n      </Placemark>\n",
			i, lineStyle(curr.Transport), coordinates(prev), coordinates(curr))
	}
	b.WriteString("    </Folder>\n")
}

// writePointFolders emits the regular point folder followed by the take-off
// folder.
func writePointFolders(b *strings.Builder, points []models.TrackPoint) {
	b.WriteString("    <Folder>\n      <name>Points</name>\n")
	for _, p := range points {
		if !p.TakeOff {
			writePlacemark(b, p, pointStyle(p.Transport))
		}
	}
	b.WriteString("    </Folder>\n")

	b.WriteString("    <Folder>\n      <name>Take-Off Points</name>\n")
	for _, p := range points {
		if p.TakeOff {
			writePlacemark(b, p, "takeOffStyle")
		}
	}
	b.WriteString("    </Folder>\n")
}

func writePlacemark(b *strings.Builder, p models.TrackPoint, style string) {
	takeOff := "--"
	if p.TakeOff {
		takeOff = "✔"
	}

	fmt.Fprintf(b, "      <Placemark>\n        <name>%s</name>\n        <styleUrl>#%s</styleUrl>\n", normalizeClockTime(p.Time), style)
	fmt.Fprintf(b, "        <description><![CDATA[\n          Time: %s<br/>\n          Heading: %s<br/>\n          Note: %s<br/>\n          Take-Off: %s<br/>\n          Transport: %s<br/>\n          User: %s<br/>\n        ]]></description>\n",
		p.Time, p.Heading, p.Note, takeOff, p.Transport, p.User)
	fmt.Fprintf(b, "        <Point>\n          <coordinates>%s</coordinates>\n        </Point>\n      </Placemark>\n", coordinates(p))
}

// coordinates renders the KML lng,lat,0 triple to five decimal places. Note
// the coordinate order is the reverse of the CSV columns.
func coordinates(p models.TrackPoint) string {
	return fmt.Sprintf("%.5f,%.5f,0", p.Longitude, p.Latitude)
}

func pointStyle(transport string) string {
	switch strings.ToLower(transport) {
	case "walking":
		return "walkingStyle"
	case "helicopter":
		return "heliStyle"
	default:
		return "drivingStyle"
	}
}

func lineStyle(transport string) string {
	switch strings.ToLower(transport) {
	case "walking":
		return "walkingLine"
	case "helicopter":
		return "heliLine"
	default:
		return "drivingLine"
	}
}

var (
	ampmPattern = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AP]M)`)
	hmsPattern  = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2}):(\d{2})`)
	hmPattern   = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*$`)
)

// normalizeClockTime converts a display time to 24-hour HH:MM for placemark
// names. Three patterns are tried in order: 12-hour with AM/PM, HH:MM:SS and
// HH:MM; anything else passes through unchanged.
func normalizeClockTime(timeStr string) string {
	if m := ampmPattern.FindStringSubmatch(timeStr); m != nil {
		hour, _ := strconv.Atoi(m[1])
		switch strings.ToUpper(m[4]) {
		case "PM":
			if hour != 12 {
				hour += 12
			}
		case "AM":
			if hour == 12 {
				hour = 0
			}
		}
		return fmt.Sprintf("%02d:%s", hour, m[2])
	}

	if m := hmsPattern.FindStringSubmatch(timeStr); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:%s", hour, m[2])
	}

	if m := hmPattern.FindStringSubmatch(timeStr); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:%s", hour, m[2])
	}

	return timeStr
}
