package mail_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/mail"
	"github.com/locvowork/mywork_tools/internal/mail/mailtest"
)

type recordingIndex struct {
	ids []string
	err error
}

func (r *recordingIndex) Index(ctx context.Context, m domain.MailMessage) error {
	r.ids = append(r.ids, m.ID)
	return r.err
}

func (r *recordingIndex) Search(ctx context.Context, keyword string, limit int) ([]domain.MailMessage, error) {
	return nil, nil
}

func TestClient_SaveReceived(t *testing.T) {
	d := mailtest.New(inbox())
	repo := mailtest.NewRepository()
	idx := &recordingIndex{}
	c := mail.NewClient(d, webmailConfig(), repo, mail.WithIndex(idx))
	ctx := context.Background()

	sum, err := c.SaveReceived(ctx, mail.Query{})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Saved)
	assert.Equal(t, 1, sum.Skipped, "the Slack digest is skipped")
	assert.Empty(t, sum.StoppedAt)
	assert.Equal(t, []string{"INBOX_105", "INBOX_104", "INBOX_103", "INBOX_101"}, repo.Order)
	assert.Equal(t, repo.Order, idx.ids)
	assert.Equal(t, 1, d.Logins)

	// a newer message arrives; the run stops at the first stored one
	d.Folders[domain.FolderInbox] = append([]mail.RawMessage{
		mailtest.Message("INBOX_106", "2024/12/26 08:00", "new", "erin@example.com", "yamada@example.com"),
	}, d.Folders[domain.FolderInbox]...)

	sum, err = c.SaveReceived(ctx, mail.Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Saved)
	assert.Equal(t, "INBOX_105", sum.StoppedAt)
	assert.Len(t, repo.Messages, 5)
}

func TestClient_PersistTwice(t *testing.T) {
	repo := mailtest.NewRepository()
	p := mail.NewPersister(repo)
	m := domain.MailMessage{ID: "INBOX_1"}

	res, err := p.Persist(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, mail.Saved, res)

	res, err = p.Persist(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, mail.AlreadyExists, res)
	assert.Len(t, repo.Messages, 1)
}

func TestClient_SaveReceivedPropagatesStoreFailure(t *testing.T) {
	repo := mailtest.NewRepository()
	repo.SaveErr = errors.New("connection reset")
	c := mail.NewClient(mailtest.New(inbox()), webmailConfig(), repo)

	_, err := c.SaveReceived(context.Background(), mail.Query{})
	assert.ErrorIs(t, err, domain.ErrTransaction)
}

func TestClient_SaveSentSkipsSelfAddressed(t *testing.T) {
	folders := map[domain.Folder][]mail.RawMessage{
		domain.FolderSent: {
			mailtest.Message("Sent_12", "2024/12/20 10:00", "report", `"Yamada" <yamada@example.com>`, "boss@example.com"),
			mailtest.Message("Sent_11", "2024/12/19 10:00", "memo to self", `"Yamada" <yamada@example.com>`, "yamada@example.com"),
			mailtest.Message("Sent_10", "2024/12/18 10:00", "hello", `"Yamada" <yamada@example.com>`, "friend@example.com"),
		},
	}
	repo := mailtest.NewRepository()
	c := mail.NewClient(mailtest.New(folders), webmailConfig(), repo)

	sum, err := c.SaveSent(context.Background(), mail.Query{})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Saved)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, []string{"Sent_12", "Sent_10"}, repo.Order)
}

func TestClient_ReceiveWithoutRepository(t *testing.T) {
	c := mail.NewClient(mailtest.New(inbox()), webmailConfig(), nil)

	msgs, err := c.ReceiveMessages(context.Background(), mail.Query{Keyword: "standup"})
	require.NoError(t, err)
	assert.Equal(t, []string{"INBOX_104"}, ids(msgs))

	_, err = c.SaveReceived(context.Background(), mail.Query{})
	assert.ErrorIs(t, err, domain.ErrUnsupported)
}

func TestClient_Send(t *testing.T) {
	d := mailtest.New(inbox())
	c := mail.NewClient(d, webmailConfig(), nil)
	ctx := context.Background()

	attachment := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(attachment, []byte("%PDF"), 0o600))

	draft := mail.Draft{To: []string{"boss@example.com"}, Cc: []string{"team@example.com"}, Subject: "report", Body: "see attached", Attachment: attachment}
	require.NoError(t, c.Send(ctx, draft))
	require.Len(t, d.Drafts, 1)
	assert.Equal(t, draft, d.Drafts[0])

	err := c.Send(ctx, mail.Draft{Subject: "no recipients"})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	err = c.Send(ctx, mail.Draft{To: []string{"not-an-address"}})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	err = c.Send(ctx, mail.Draft{To: []string{"boss@example.com"}, Attachment: filepath.Join(t.TempDir(), "missing.pdf")})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	d.ComposeErr = errors.New("dialog never appeared")
	err = c.Send(ctx, draft)
	assert.ErrorIs(t, err, domain.ErrMailOperation)
	assert.Len(t, d.Drafts, 1)
}

func TestClient_SerializesOperations(t *testing.T) {
	d := mailtest.New(inbox())
	gate := make(chan struct{})
	d.ComposeHook = func() { <-gate }
	c := mail.NewClient(d, webmailConfig(), nil)
	draft := mail.Draft{To: []string{"boss@example.com"}, Subject: "s"}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Send(context.Background(), draft))
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, 1, d.MaxActive)
	assert.Len(t, d.Drafts, 3)
}

func TestClient_LockHonoursContext(t *testing.T) {
	d := mailtest.New(inbox())
	gate := make(chan struct{})
	entered := make(chan struct{})
	d.ComposeHook = func() {
		close(entered)
		<-gate
	}
	c := mail.NewClient(d, webmailConfig(), nil)
	draft := mail.Draft{To: []string{"boss@example.com"}, Subject: "s"}

	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background(), draft) }()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.ReceiveMessages(ctx, mail.Query{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(gate)
	require.NoError(t, <-done)
}

func TestClient_CloseOnce(t *testing.T) {
	d := mailtest.New(nil)
	c := mail.NewClient(d, webmailConfig(), nil)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, d.Closed)
}
