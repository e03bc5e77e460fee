package mail

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/locvowork/mywork_tools/internal/config"
	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
)

// Client runs mailbox operations against one browser session. Operations are
// serialized: at most one runs at a time.
type Client struct {
	driver    Driver
	session   *Session
	searcher  *Searcher
	persister *Persister
	sender    *Sender
	index     domain.MailIndex

	skipSenders []string
	sem         *semaphore.Weighted
	closeOnce   sync.Once
	closeErr    error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithIndex adds saved messages to a search index.
func WithIndex(idx domain.MailIndex) ClientOption {
	return func(c *Client) { c.index = idx }
}

// WithSearcherOptions tunes the folder walk.
func WithSearcherOptions(opts ...SearcherOption) ClientOption {
	return func(c *Client) { c.searcher = NewSearcher(c.driver, opts...) }
}

// NewClient wires the mailbox operations. repo may be nil for clients that
// only search or send.
func NewClient(d Driver, cfg config.WebmailConfig, repo domain.MailRepository, opts ...ClientOption) *Client {
	c := &Client{
		driver:      d,
		session:     NewSession(d, cfg),
		searcher:    NewSearcher(d),
		sender:      NewSender(d),
		skipSenders: cfg.SkipSenders,
		sem:         semaphore.NewWeighted(1),
	}
	if repo != nil {
		c.persister = NewPersister(repo)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Summary reports a save run.
type Summary struct {
	Saved   int
	Skipped int
	// StoppedAt is the id of the first message found in the store, if any.
	StoppedAt string
}

// begin takes the client lock and makes sure the session is usable.
func (c *Client) begin(ctx context.Context) (func(), error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	release := func() { c.sem.Release(1) }

	if err := c.session.EnsureLoggedIn(ctx); err != nil {
		release()
		return nil, err
	}
	if err := c.session.Refresh(ctx); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

// ReceiveMessages lists inbox messages matching q.
func (c *Client) ReceiveMessages(ctx context.Context, q Query) ([]domain.MailMessage, error) {
	release, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	q.Folder = domain.FolderInbox
	return c.searcher.SearchAll(ctx, q)
}

// SearchSent lists sent messages matching q.
func (c *Client) SearchSent(ctx context.Context, q Query) ([]domain.MailMessage, error) {
	release, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	q.Folder = domain.FolderSent
	return c.searcher.SearchAll(ctx, q)
}

// SaveReceived stores new inbox messages, newest first, until it meets one
// that is already stored. Messages from the configured skip senders are ignored.
func (c *Client) SaveReceived(ctx context.Context, q Query) (Summary, error) {
	q.Folder = domain.FolderInbox
	return c.save(ctx, q, func(m domain.MailMessage) bool {
		for _, name := range c.skipSenders {
			if strings.EqualFold(m.Sender.Name, name) {
				return true
			}
		}
		return false
	})
}

// SaveSent stores new sent messages. Messages addressed to the sender
// themselves are ignored.
func (c *Client) SaveSent(ctx context.Context, q Query) (Summary, error) {
	q.Folder = domain.FolderSent
	return c.save(ctx, q, func(m domain.MailMessage) bool {
		return m.HasRecipient(m.Sender.Email)
	})
}

func (c *Client) save(ctx context.Context, q Query, skip func(domain.MailMessage) bool) (Summary, error) {
	var sum Summary
	if c.persister == nil {
		return sum, domain.Wrap(domain.ErrTransaction, "save messages", domain.ErrUnsupported)
	}

	release, err := c.begin(ctx)
	if err != nil {
		return sum, err
	}
	defer release()

	for m, err := range c.searcher.Search(ctx, q) {
		if err != nil {
			return sum, err
		}
		if skip(m) {
			sum.Skipped++
			continue
		}

		res, err := c.persister.Persist(ctx, m)
		if err != nil {
			return sum, err
		}
		if res == AlreadyExists {
			sum.StoppedAt = m.ID
			logger.InfoLog(ctx, "message %s already stored, stopping", m.ID)
			break
		}
		sum.Saved++
		logger.InfoLog(ctx, "saved message %s %q", m.ID, m.Subject)

		if c.index != nil {
			if err := c.index.Index(ctx, m); err != nil {
				logger.WarnLog(ctx, "index message %s: %v", m.ID, err)
			}
		}
	}
	return sum, nil
}

// Send submits a draft.
func (c *Client) Send(ctx context.Context, d Draft) error {
	release, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer release()

	return c.sender.Send(ctx, d)
}

// Close releases the browser. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.driver.Close()
	})
	return c.closeErr
}
