package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ==================== ATTENDANCE ====================

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTimeOfDay accepts "H:MM", "HH:MM" and "HH:MM:SS". Seconds are dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, Wrap(ErrInvalidValue, "parse time of day", fmt.Errorf("unexpected format %q", s))
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, Wrap(ErrInvalidValue, "parse time of day", fmt.Errorf("bad hour in %q", s))
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, Wrap(ErrInvalidValue, "parse time of day", fmt.Errorf("bad minute in %q", s))
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// TimeOfDayFromTime keeps only the clock part of t.
func TimeOfDayFromTime(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// After reports whether t is strictly later than o.
func (t TimeOfDay) After(o TimeOfDay) bool {
	return t.Minutes() > o.Minutes()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// FormatTimeOfDay returns "HH:MM" or an empty string for nil.
func FormatTimeOfDay(t *TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// TimecardEntry is one day of attendance.
type TimecardEntry struct {
	Date     time.Time  `json:"date"`
	Holiday  bool       `json:"holiday"`
	WorkType string     `json:"work_type"`
	TimeIn   *TimeOfDay `json:"time_in,omitempty"`
	TimeOut  *TimeOfDay `json:"time_out,omitempty"`
	Total    *TimeOfDay `json:"total,omitempty"`
}

// Key returns the "{month}_{day}" lookup key used by the sheet writers.
func (e TimecardEntry) Key() string {
	return DayKey(int(e.Date.Month()), e.Date.Day())
}

// DayKey builds the "{month}_{day}" key for a sheet row.
func DayKey(month, day int) string {
	return fmt.Sprintf("%d_%d", month, day)
}

// DateRange is an inclusive, optionally open, window of calendar days.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Before reports whether d falls before the start boundary.
func (r DateRange) Before(d time.Time) bool {
	return r.Start != nil && dateOnly(d).Before(dateOnly(*r.Start))
}

// After reports whether d falls after the end boundary.
func (r DateRange) After(d time.Time) bool {
	return r.End != nil && dateOnly(d).After(dateOnly(*r.End))
}

// Contains reports whether d is inside the window.
func (r DateRange) Contains(d time.Time) bool {
	return !r.Before(d) && !r.After(d)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Employee is the person a timecard or leave sheet belongs to.
type Employee struct {
	FamilyName string `json:"family_name"`
	GivenName  string `json:"given_name"`
}

// EmployeeFromFullName splits "山田 太郎" into family and given names.
func EmployeeFromFullName(fullName string) (Employee, error) {
	tokens := strings.Fields(fullName)
	if len(tokens) != 2 {
		return Employee{}, Wrap(ErrInvalidValue, "employee name", fmt.Errorf("%q must be \"<family> <given>\"", fullName))
	}
	return Employee{FamilyName: tokens[0], GivenName: tokens[1]}, nil
}

// FullName joins the names the way the sheets print them.
func (e Employee) FullName() string {
	return e.FamilyName + " " + e.GivenName
}

// LeaveType is the span of a paid-leave day.
type LeaveType string

const (
	LeaveFullDay   LeaveType = "全日休"
	LeaveMorning   LeaveType = "午前休"
	LeaveAfternoon LeaveType = "午後休"
)

// ParseLeaveType maps a sheet label to a LeaveType.
func ParseLeaveType(label string) (LeaveType, error) {
	switch lt := LeaveType(strings.TrimSpace(label)); lt {
	case LeaveFullDay, LeaveMorning, LeaveAfternoon:
		return lt, nil
	}
	return "", Wrap(ErrInvalidValue, "leave type", fmt.Errorf("unknown label %q", label))
}

// PaidLeaveEntry is one row of the paid-leave management sheet.
type PaidLeaveEntry struct {
	ApplicationDate time.Time `json:"application_date"`
	LeaveType       LeaveType `json:"leave_type"`
	StampExists     bool      `json:"stamp_exists"`
	StampApproved   bool      `json:"stamp_approved"`
}

// ==================== MAIL ====================

// Folder identifies a webmail mailbox.
type Folder string

const (
	FolderInbox Folder = "INBOX"
	FolderSent  Folder = "Sent"
)

// Contact is a parsed mail address with its display name.
type Contact struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// RecipientType tags a stored recipient.
type RecipientType string

const (
	RecipientTo RecipientType = "to"
	RecipientCc RecipientType = "cc"
)

// MailMessage is a message as read from the webmail UI.
type MailMessage struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	ReceivedAt  time.Time `json:"received_at"`
	Body        string    `json:"body"`
	Sender      Contact   `json:"sender"`
	To          []Contact `json:"to"`
	Cc          []Contact `json:"cc"`
	Attachments []string  `json:"attachments"`
}

// HasRecipient reports whether email is one of the To addresses.
func (m MailMessage) HasRecipient(email string) bool {
	for _, c := range m.To {
		if strings.EqualFold(c.Email, email) {
			return true
		}
	}
	return false
}

// CompareMessageIDs orders provider ids such as "INBOX_120" by recency.
// Numeric suffixes are compared as numbers; anything else falls back to string order.
func CompareMessageIDs(a, b string) int {
	na, okA := idSuffix(a)
	nb, okB := idSuffix(b)
	if okA && okB {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

func idSuffix(id string) (int64, bool) {
	i := strings.LastIndex(id, "_")
	if i < 0 || i == len(id)-1 {
		return 0, false
	}
	n, err := strconv.ParseInt(id[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Collections used by the mail repository.
const (
	CollectionMessages    = "mail_messages"
	CollectionRecipients  = "mail_recipients"
	CollectionAttachments = "mail_attachments"
)

// MailMessageRecord is the stored parent document.
// Recipients and Attachments hold "collection:id" references to child records.
type MailMessageRecord struct {
	ID          string   `json:"id"`
	Subject     string   `json:"subject"`
	ReceivedAt  string   `json:"received_at"`
	Body        string   `json:"body"`
	SenderEmail string   `json:"sender_email"`
	SenderName  string   `json:"sender_name"`
	Recipients  []string `json:"recipients"`
	Attachments []string `json:"attachments"`
}

// RecipientRecord is a stored To/Cc address.
type RecipientRecord struct {
	ID            string        `json:"id"`
	MailMessageID string        `json:"mail_message_id"`
	Email         string        `json:"email"`
	Name          string        `json:"name"`
	RecipientType RecipientType `json:"recipient_type"`
}

// AttachmentRecord is a stored attachment name.
type AttachmentRecord struct {
	ID            string `json:"id"`
	MailMessageID string `json:"mail_message_id"`
	FilePath      string `json:"file_path"`
}
