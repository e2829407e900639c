package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"attendbot/internal/attendance"
	"attendbot/internal/query"

	"github.com/bwmarrin/discordgo"
)

// Discord rejects messages over 2000 characters.
const maxDashboardRows = 15

func (b *Bot) handleDashboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)

	period := optionString(opts, "period")
	if period == "" {
		period = string(query.RangeToday)
	}
	dateRange, err := query.ParseDateRange(period)
	if err != nil {
		b.respondWithError(s, i, "Invalid time period")
		return
	}

	department := optionString(opts, "department")
	if department == "" {
		department = query.AllDepartments
	}

	params := query.Params{
		Department: department,
		Range:      dateRange,
		Search:     strings.TrimSpace(optionString(opts, "search")),
	}

	dashboard, err := b.app.Dashboard(params)
	if err != nil {
		b.respondWithError(s, i, errorMessage(err))
		return
	}

	if optionString(opts, "format") == "csv" {
		content, err := dashboardCSV(dashboard, b.app.Department)
		if err != nil {
			b.respondWithError(s, i, "Error building CSV: "+err.Error())
			return
		}
		file := &discordgo.File{
			Name:        fmt.Sprintf("attendance_%s_%s.csv", dateRange, dashboard.GeneratedAt.Format("20060102")),
			ContentType: "text/csv",
			Reader:      bytes.NewReader(content),
		}
		b.respondWithFile(s, i, formatStats(dashboard), file)
		return
	}

	b.respondWithSuccess(s, i, formatDashboard(dashboard, b.app.Department))
}

func formatStats(d attendance.Dashboard) string {
	return fmt.Sprintf("Total: %d | Check-ins: %d | Check-outs: %d | Employees: %d",
		d.Stats.Total, d.Stats.CheckIns, d.Stats.CheckOuts, d.Stats.Employees)
}

func formatDashboard(d attendance.Dashboard, departmentOf func(string) string) string {
	var response strings.Builder

	title := fmt.Sprintf("# Attendance - %s", periodLabel(d.Params.Range))
	if d.Params.Department != "" && d.Params.Department != query.AllDepartments {
		title += " - " + truncateString(d.Params.Department, maxDepartmentLength)
	}
	if d.Params.Search != "" {
		title += fmt.Sprintf(" - %q", truncateString(d.Params.Search, maxSearchLength))
	}
	response.WriteString(title + "\n")
	response.WriteString(formatStats(d) + "\n")

	if len(d.Records) == 0 {
		response.WriteString("No records found")
		return response.String()
	}

	rows := make([][]string, 0, len(d.Records))
	for idx, r := range d.Records {
		if idx == maxDashboardRows {
			break
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			truncateString(r.User, 20),
			truncateString(departmentOf(r.User), 12),
			r.Type.Label(),
			formatWhen(r.Timestamp),
		})
	}
	response.WriteString(formatTable([]string{"ID", "EMPLOYEE", "DEPARTMENT", "TYPE", "TIME"}, rows))

	if hidden := len(d.Records) - len(rows); hidden > 0 {
		response.WriteString(fmt.Sprintf("\n%d more records, use `format:csv` for the full list", hidden))
	}
	return response.String()
}

func periodLabel(r query.DateRange) string {
	switch r {
	case query.RangeToday:
		return "Today"
	case query.RangeWeek:
		return "Last 7 Days"
	case query.RangeMonth:
		return "Last Month"
	default:
		return "All Time"
	}
}

func dashboardCSV(d attendance.Dashboard, departmentOf func(string) string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"ID", "Employee", "Department", "Type", "Timestamp", "Latitude", "Longitude", "Accuracy", "Address", "Photo"}); err != nil {
		return nil, err
	}
	for _, r := range d.Records {
		err := w.Write([]string{
			strconv.FormatInt(r.ID, 10),
			r.User,
			departmentOf(r.User),
			string(r.Type),
			r.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(r.Location.Latitude, 'f', 6, 64),
			strconv.FormatFloat(r.Location.Longitude, 'f', 6, 64),
			strconv.FormatFloat(r.Location.Accuracy, 'f', 0, 64),
			r.Address,
			string(r.Photo),
		})
		if err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
