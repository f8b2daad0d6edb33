package application

import (
	"strconv"
	"strings"
	"time"
)

// serialEpoch is the spreadsheet day-count epoch (1899-12-30).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const (
	minSerial = 1
	maxSerial = 200000
)

// ParseFlexibleDate parses calendar serial numbers and common text
// forms. Ambiguous day/month ordering prefers day-first unless only the
// month-first reading is valid. Unparseable input returns ok=false
// rather than an error.
func ParseFlexibleDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.Atoi(value); err == nil {
		if serial < minSerial || serial > maxSerial {
			return time.Time{}, false
		}
		return serialEpoch.AddDate(0, 0, serial), true
	}

	for _, layout := range []string{"2006-01-02", "2006/01/02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return day(t), true
		}
	}

	if t, ok := parseDayFirst(value); ok {
		return t, true
	}
	return time.Time{}, false
}

// parseDayFirst handles dd/mm/yyyy style forms with /, - or .
// separators, swapping to month-first when the first component cannot
// be a month position's counterpart.
func parseDayFirst(value string) (time.Time, bool) {
	separator := ""
	for _, candidate := range []string{"/", "-", "."} {
		if strings.Count(value, candidate) == 2 {
			separator = candidate
			break
		}
	}
	if separator == "" {
		return time.Time{}, false
	}
	parts := strings.Split(value, separator)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	first, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	second, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}

	day, month := first, second
	if month > 12 && day <= 12 {
		day, month = second, first
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
