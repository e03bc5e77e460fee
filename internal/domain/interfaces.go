package domain

import (
	"context"
	"io"
)

// TimecardReader produces date-ordered timecard entries from a source.
type TimecardReader interface {
	Read(ctx context.Context, r DateRange) ([]TimecardEntry, error)
}

// TimecardWriter writes a month of entries into a template.
type TimecardWriter interface {
	Write(ctx context.Context, month int, employee Employee, entries []TimecardEntry) error
	WriteTo(w io.Writer, month int, employee Employee, entries []TimecardEntry) error
}

// MailRepository persists webmail messages.
type MailRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Save(ctx context.Context, m MailMessage) error
	FindByID(ctx context.Context, id string) (*MailMessage, error)
}

// MailIndex is a full-text index over saved messages.
type MailIndex interface {
	Index(ctx context.Context, m MailMessage) error
	Search(ctx context.Context, keyword string, limit int) ([]MailMessage, error)
}

// ChangeEvent reports a record written to a watched collection.
type ChangeEvent struct {
	Action string
	ID     string
}
