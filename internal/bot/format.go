package bot

import (
	"fmt"
	"strings"
	"time"

	"attendbot/internal/models"
	"attendbot/internal/session"
)

const (
	dateLayout = "Jan 2, 2006"
	timeLayout = "03:04 PM"
)

// formatWhen renders "Mar 2, 2026 at 10:00 AM".
func formatWhen(t time.Time) string {
	return t.Format(dateLayout) + " at " + t.Format(timeLayout)
}

func formatClock(now time.Time) string {
	return now.Format("03:04:05 PM") + "\n" + now.Format("Monday, January 2")
}

func formatLocation(loc models.LocationReading) string {
	return fmt.Sprintf("Lat: %.6f, Long: %.6f\nAccuracy: ±%.0fm", loc.Latitude, loc.Longitude, loc.Accuracy)
}

func formatCaptureState(sess *session.Session) string {
	if sess == nil || sess.Capture() == nil {
		return ""
	}
	c := sess.Capture()

	var b strings.Builder
	if _, ok := c.Photo(); ok {
		b.WriteString("Photo: captured ✓\n")
	} else {
		b.WriteString("Photo: not captured\n")
	}
	if loc, ok := c.Location(); ok {
		b.WriteString("Location: " + strings.ReplaceAll(formatLocation(loc), "\n", " ") + "\n")
	} else {
		b.WriteString("Location: not captured\n")
	}
	if c.IsComplete() {
		b.WriteString("Ready to `/checkin` or `/checkout`")
	} else if _, ok := c.Photo(); ok {
		b.WriteString("Share a location to `/checkin` or `/checkout`")
	} else {
		b.WriteString("Capture a `/photo` to continue")
	}
	return b.String()
}

func formatStatus(now time.Time, sess *session.Session) string {
	var b strings.Builder
	b.WriteString("# Attendance System\n")
	b.WriteString(formatClock(now))
	b.WriteString("\n\n")

	if sess == nil {
		b.WriteString("Nobody is signed in. Use `/login` to continue.")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%s (%s)\nView: %s\n", sess.Name(), sess.Role(), viewLabel(sess.View())))
	if sess.View() == models.ViewEmployee {
		b.WriteString(formatCaptureState(sess))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRecent(records []models.AttendanceRecord) string {
	if len(records) == 0 {
		return "# Recent Activity\nNo attendance records yet"
	}

	var b strings.Builder
	b.WriteString("# Recent Activity\n")
	for _, r := range records {
		b.WriteString(fmt.Sprintf("%s - %s\n", r.Type.Label(), formatWhen(r.Timestamp)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRecordDetail(r models.AttendanceRecord, department string) string {
	if department == "" {
		department = "-"
	}
	lines := []string{
		fmt.Sprintf("ID: %d", r.ID),
		"Employee: " + r.User,
		"Department: " + department,
		"Type: " + r.Type.Label(),
		"Date & Time: " + formatWhen(r.Timestamp),
		"Location: " + r.Address,
		fmt.Sprintf("Accuracy: ±%.0fm", r.Location.Accuracy),
		"Photo: " + string(r.Photo),
	}
	return strings.Join(lines, "\n")
}
