package utils

import (
	"strings"
	"time"
)

const (
	layoutDate   = "2006-01-02"
	layoutDateBR = "02/01/2006"
)

// ParseDate accepts YYYY-MM-DD or DD/MM/YYYY in local time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		return time.ParseInLocation(layoutDateBR, s, time.Local)
	}
	if len(s) > len(layoutDate) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, nil
		}
		s = s[:len(layoutDate)]
	}
	return time.ParseInLocation(layoutDate, s, time.Local)
}

// FormatDate renders DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(layoutDateBR)
}

// FormatISODate renders YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	return t.In(time.Local).Format(layoutDate)
}

// Day truncates t to local midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.In(time.Local).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// InRange reports whether t falls in [start, end] by calendar day. Zero bounds are open.
func InRange(t, start, end time.Time) bool {
	day := Day(t)
	if !start.IsZero() && day.Before(Day(start)) {
		return false
	}
	if !end.IsZero() && day.After(Day(end)) {
		return false
	}
	return true
}

// AddMonths keeps the day of month, clamping to the last day (31 Jan + 1 = 28/29 Feb).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

// MonthKey renders YYYY-MM.
func MonthKey(t time.Time) string {
	return t.In(time.Local).Format("2006-01")
}
