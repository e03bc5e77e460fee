package mail

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
)

// DateTimeLayout is how the message view prints the received time.
const DateTimeLayout = "2006/1/2 15:04"

// DefaultAdvanceAttempts bounds how often a missing next row is scrolled into view.
const DefaultAdvanceAttempts = 2

// OverrunPolicy decides what happens to messages newer than the end date.
type OverrunPolicy int

const (
	// OverrunSkip ignores them and keeps scanning older messages.
	OverrunSkip OverrunPolicy = iota
	// OverrunStop ends the scan at the first one.
	OverrunStop
)

// ParseOverrun accepts "skip" (or empty) and "stop".
func ParseOverrun(s string) (OverrunPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return OverrunSkip, nil
	case "stop":
		return OverrunStop, nil
	}
	return OverrunSkip, domain.Wrap(domain.ErrInvalidValue, "overrun policy", fmt.Errorf("unknown value %q", s))
}

// Query selects messages of one folder.
type Query struct {
	Folder domain.Folder
	Range  domain.DateRange
	// AfterID ends the scan at the first message not newer than it.
	AfterID string
	// Keyword keeps messages whose subject or body contains it.
	Keyword string
	Overrun OverrunPolicy
}

func (q Query) matches(m domain.MailMessage) bool {
	if q.Keyword == "" {
		return true
	}
	kw := strings.ToLower(q.Keyword)
	return strings.Contains(strings.ToLower(m.Subject), kw) || strings.Contains(strings.ToLower(m.Body), kw)
}

// Searcher walks a folder newest first.
type Searcher struct {
	driver   Driver
	attempts int
	location *time.Location
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithAdvanceAttempts overrides DefaultAdvanceAttempts.
func WithAdvanceAttempts(n int) SearcherOption {
	return func(s *Searcher) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithLocation sets the zone the UI prints times in.
func WithLocation(loc *time.Location) SearcherOption {
	return func(s *Searcher) { s.location = loc }
}

func NewSearcher(d Driver, opts ...SearcherOption) *Searcher {
	s := &Searcher{driver: d, attempts: DefaultAdvanceAttempts, location: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search yields matching messages lazily. The sequence ends at the start
// boundary, at AfterID, or when the list has no further rows. A failure is
// yielded once as the error and ends the sequence.
func (s *Searcher) Search(ctx context.Context, q Query) iter.Seq2[domain.MailMessage, error] {
	return func(yield func(domain.MailMessage, error) bool) {
		fail := func(op string, err error) {
			yield(domain.MailMessage{}, domain.Wrap(domain.ErrMailOperation, op, err))
		}

		if err := s.driver.OpenFolder(ctx, q.Folder); err != nil {
			fail("open folder", err)
			return
		}
		if err := s.driver.SelectFirst(ctx, q.Folder); err != nil {
			fail("select first message", err)
			return
		}

		for {
			if err := ctx.Err(); err != nil {
				yield(domain.MailMessage{}, err)
				return
			}

			msg, err := s.read(ctx)
			if err != nil {
				fail("read message", err)
				return
			}

			switch {
			case q.AfterID != "" && domain.CompareMessageIDs(msg.ID, q.AfterID) <= 0:
				logger.DebugLog(ctx, "reached known message %s", msg.ID)
				return
			case q.Range.Before(msg.ReceivedAt):
				logger.DebugLog(ctx, "message %s is older than the start date", msg.ID)
				return
			case q.Range.After(msg.ReceivedAt):
				if q.Overrun == OverrunStop {
					return
				}
			case q.matches(msg):
				if !yield(msg, nil) {
					return
				}
			}

			moved, err := s.advance(ctx, q.Folder, msg.ID)
			if err != nil {
				fail("next message", err)
				return
			}
			if !moved {
				return
			}
		}
	}
}

// SearchAll collects Search into a slice.
func (s *Searcher) SearchAll(ctx context.Context, q Query) ([]domain.MailMessage, error) {
	var out []domain.MailMessage
	for m, err := range s.Search(ctx, q) {
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
	return out, nil
}

// advance selects the next row, scrolling when it is not rendered yet.
// It reports false when the selection did not change.
func (s *Searcher) advance(ctx context.Context, folder domain.Folder, currentID string) (bool, error) {
	for attempt := 0; attempt < s.attempts; attempt++ {
		ok, err := s.driver.SelectNext(ctx, folder, currentID)
		if err != nil {
			return false, err
		}
		if !ok {
			if err := s.driver.Scroll(ctx); err != nil {
				return false, err
			}
			continue
		}
		selected, err := s.driver.SelectedID(ctx)
		if err != nil {
			return false, err
		}
		return selected != currentID, nil
	}
	return false, nil
}

func (s *Searcher) read(ctx context.Context) (domain.MailMessage, error) {
	raw, err := s.driver.ReadMessage(ctx)
	if err != nil {
		return domain.MailMessage{}, err
	}
	return s.toMessage(raw)
}

func (s *Searcher) toMessage(raw RawMessage) (domain.MailMessage, error) {
	at, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(raw.DateTime), s.location)
	if err != nil {
		return domain.MailMessage{}, fmt.Errorf("message %s date %q: %w", raw.ID, raw.DateTime, err)
	}
	return domain.MailMessage{
		ID:          raw.ID,
		Subject:     raw.Subject,
		ReceivedAt:  at,
		Body:        raw.Body,
		Sender:      ParseContact(raw.From),
		To:          ParseContacts(raw.To),
		Cc:          ParseContacts(raw.Cc),
		Attachments: raw.Attachments,
	}, nil
}
