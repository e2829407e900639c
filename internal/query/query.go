// Package query derives dashboard views from the record store. Everything here
// is a pure function of its arguments.
package query

import (
	"fmt"
	"strings"
	"time"

	"attendbot/internal/directory"
	"attendbot/internal/models"

	"golang.org/x/text/cases"
)

// AllDepartments disables the department filter.
const AllDepartments = "all"

type DateRange string

const (
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
	RangeAll   DateRange = "all"
)

func ParseDateRange(s string) (DateRange, error) {
	switch r := DateRange(strings.ToLower(strings.TrimSpace(s))); r {
	case RangeToday, RangeWeek, RangeMonth, RangeAll:
		return r, nil
	case "":
		return RangeAll, nil
	default:
		return "", fmt.Errorf("invalid time period %q", s)
	}
}

// Params are the dashboard filters. The zero value matches everything.
type Params struct {
	Department string
	Range      DateRange
	Search     string
}

// Statistics summarizes a set of records.
type Statistics struct {
	Total     int
	CheckIns  int
	CheckOuts int
	Employees int
}

// Filter keeps the records matching every active filter. The input is not
// modified and its order is preserved.
func Filter(records []models.AttendanceRecord, dir *directory.Directory, p Params, now time.Time) []models.AttendanceRecord {
	inRange := rangePredicate(p.Range, now)
	fold := cases.Fold()
	search := fold.String(p.Search)

	out := make([]models.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if p.Department != "" && p.Department != AllDepartments {
			u, ok := dir.ByName(r.User)
			if !ok || u.Department != p.Department {
				continue
			}
		}
		if !inRange(r.Timestamp) {
			continue
		}
		if search != "" && !strings.Contains(fold.String(r.User), search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// rangePredicate builds the date check once per Filter call. "Today" compares
// calendar dates in now's location.
func rangePredicate(r DateRange, now time.Time) func(time.Time) bool {
	switch r {
	case RangeToday:
		loc := now.Location()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		return func(ts time.Time) bool {
			t := ts.In(loc)
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc).Equal(startOfDay)
		}
	case RangeWeek:
		since := now.AddDate(0, 0, -7)
		return func(ts time.Time) bool { return !ts.Before(since) }
	case RangeMonth:
		since := now.AddDate(0, -1, 0)
		return func(ts time.Time) bool { return !ts.Before(since) }
	default:
		return func(time.Time) bool { return true }
	}
}

// Stats counts records by type and distinct display name.
func Stats(records []models.AttendanceRecord) Statistics {
	var st Statistics
	employees := make(map[string]struct{})
	for _, r := range records {
		st.Total++
		switch r.Type {
		case models.CheckIn:
			st.CheckIns++
		case models.CheckOut:
			st.CheckOuts++
		}
		employees[r.User] = struct{}{}
	}
	st.Employees = len(employees)
	return st
}

// Recent returns up to n of the user's records, keeping the input order.
func Recent(records []models.AttendanceRecord, user string, n int) []models.AttendanceRecord {
	if n <= 0 {
		return nil
	}
	out := make([]models.AttendanceRecord, 0, n)
	for _, r := range records {
		if len(out) == n {
			break
		}
		if r.User == user {
			out = append(out, r)
		}
	}
	return out
}

func Find(records []models.AttendanceRecord, id int64) (models.AttendanceRecord, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return models.AttendanceRecord{}, false
}
