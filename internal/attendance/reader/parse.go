package reader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/mywork_tools/internal/domain"
)

var dateLayouts = []string{
	"2006/01/02",
	"2006/1/2",
	"2006-01-02",
	"2006-1-2",
	"01-02-06",
}

// parseDate reads a date cell. Excel serial numbers and textual dates with an
// optional trailing time component are accepted.
func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("date serial %q: %w", s, err)
		}
		return civil(t), nil
	}
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// parseClock reads an optional time cell: "", "9:00", "09:00:00" or a day fraction.
func parseClock(raw string) (*domain.TimeOfDay, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if frac, err := strconv.ParseFloat(s, 64); err == nil {
		_, frac = math.Modf(frac)
		minutes := int(math.Round(frac * 24 * 60))
		if minutes >= 24*60 {
			minutes = 24*60 - 1
		}
		return &domain.TimeOfDay{Hour: minutes / 60, Minute: minutes % 60}, nil
	}
	if i := strings.LastIndex(s, " "); i > 0 {
		// "2024-12-01 09:00:00"
		s = s[i+1:]
	}
	t, err := domain.ParseTimeOfDay(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseHoliday treats any non-empty marker other than an explicit false as a holiday.
func parseHoliday(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "nan":
		return false
	}
	return true
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseSheetDate parses a raw date cell the way the readers do.
func ParseSheetDate(raw string) (time.Time, error) {
	return parseDate(raw)
}
