// Package worktype classifies the free-text work-type labels of a timecard.
//
// Labels are single tokens ("出勤", "在宅", "有休") or two tokens joined by "/"
// ("在宅/出勤", "午前半休/出勤"). Anything outside the vocabulary is treated as
// unknown and yields empty values instead of an error.
package worktype

import (
	"strings"

	"github.com/locvowork/mywork_tools/internal/domain"
)

// Category is the classified kind of a working day.
type Category int

const (
	Unknown Category = iota
	Attended
	HomeWork
	FullLeave
	HalfDay
)

const (
	tokenAttended      = "出勤"
	tokenHome          = "在宅"
	tokenLeave         = "有休"
	tokenLeaveAlt      = "有給"
	tokenHalfMorning   = "午前半休"
	tokenHalfAfternoon = "午後半休"

	displayAttended  = "出勤"
	displayFullLeave = "有給休暇"

	remarksAfternoonArrival = "午後出社"
	remarksMorningArrival   = "午前出社"
)

// Overtime window.
var (
	OvertimeThreshold = domain.TimeOfDay{Hour: 17, Minute: 30}
	OvertimeStart     = domain.TimeOfDay{Hour: 17, Minute: 40}
)

func (c Category) String() string {
	switch c {
	case Attended:
		return "attended"
	case HomeWork:
		return "home-work"
	case FullLeave:
		return "full-leave"
	case HalfDay:
		return "half-day"
	}
	return "unknown"
}

// tokens splits a label and reports false when any part is outside the vocabulary.
func tokens(label string) ([]string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, false
	}
	parts := strings.Split(label, "/")
	if len(parts) > 2 {
		return nil, false
	}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		switch p {
		case tokenAttended, tokenHome, tokenHalfMorning, tokenHalfAfternoon:
		case tokenLeave, tokenLeaveAlt:
			if len(parts) != 1 {
				return nil, false
			}
		default:
			return nil, false
		}
		parts[i] = p
	}
	if len(parts) == 2 && parts[0] == parts[1] {
		return nil, false
	}
	return parts, true
}

func contains(parts []string, token string) bool {
	for _, p := range parts {
		if p == token {
			return true
		}
	}
	return false
}

// Classify returns the category of label.
// Half-day wins over attendance, attendance wins over home work.
func Classify(label string) Category {
	parts, ok := tokens(label)
	if !ok {
		return Unknown
	}
	switch {
	case contains(parts, tokenLeave), contains(parts, tokenLeaveAlt):
		return FullLeave
	case contains(parts, tokenHalfMorning), contains(parts, tokenHalfAfternoon):
		return HalfDay
	case contains(parts, tokenAttended):
		return Attended
	case contains(parts, tokenHome):
		return HomeWork
	}
	return Unknown
}

// Display is the string written to the category column.
func Display(label string) string {
	switch Classify(label) {
	case Attended, HomeWork:
		return displayAttended
	case FullLeave:
		return displayFullLeave
	case HalfDay:
		parts, _ := tokens(label)
		if contains(parts, tokenHalfMorning) {
			return tokenHalfMorning
		}
		return tokenHalfAfternoon
	}
	return ""
}

// IsAttended reports whether the employee came to the office on that day.
func IsAttended(label string) bool {
	parts, ok := tokens(label)
	return ok && contains(parts, tokenAttended)
}

// IsHomeWork reports whether the employee worked from home on that day.
func IsHomeWork(label string) bool {
	parts, ok := tokens(label)
	return ok && contains(parts, tokenHome)
}

// Remarks describes mixed home/office days by the half spent at the office.
func Remarks(label string) string {
	parts, ok := tokens(label)
	if !ok || len(parts) != 2 {
		return ""
	}
	switch {
	case parts[0] == tokenHome && parts[1] == tokenAttended:
		return remarksAfternoonArrival
	case parts[0] == tokenAttended && parts[1] == tokenHome:
		return remarksMorningArrival
	}
	return ""
}

// Overtime returns the overtime start and end strings for a day.
// Both are empty unless the label is known and timeOut is later than 17:30.
func Overtime(label string, timeOut *domain.TimeOfDay) (start, end string) {
	if timeOut == nil || Classify(label) == Unknown {
		return "", ""
	}
	if !timeOut.After(OvertimeThreshold) {
		return "", ""
	}
	return OvertimeStart.String(), timeOut.String()
}

// Row is every derived value the sheet writers need for one entry.
type Row struct {
	Category      string
	Remarks       string
	OvertimeStart string
	OvertimeEnd   string
	Attended      bool
	HomeWork      bool
}

// Derive classifies a timecard entry.
func Derive(e domain.TimecardEntry) Row {
	start, end := Overtime(e.WorkType, e.TimeOut)
	return Row{
		Category:      Display(e.WorkType),
		Remarks:       Remarks(e.WorkType),
		OvertimeStart: start,
		OvertimeEnd:   end,
		Attended:      IsAttended(e.WorkType),
		HomeWork:      IsHomeWork(e.WorkType),
	}
}

// Flag renders a boolean as the sheet's "1" / blank marker.
func Flag(b bool) string {
	if b {
		return "1"
	}
	return ""
}
