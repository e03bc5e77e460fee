package mail_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/mail"
	"github.com/locvowork/mywork_tools/internal/mail/mailtest"
)

func inbox() map[domain.Folder][]mail.RawMessage {
	return map[domain.Folder][]mail.RawMessage{
		domain.FolderInbox: {
			mailtest.Message("INBOX_105", "2024/12/25 10:00", "release notes", `"Alice" <alice@example.com>`, "yamada@example.com"),
			mailtest.Message("INBOX_104", "2024/12/24 09:00", "standup", `"Bob" <bob@example.com>`, "yamada@example.com"),
			mailtest.Message("INBOX_103", "2024/12/20 18:30", "Invoice December", `"Carol" <carol@example.com>`, "yamada@example.com"),
			mailtest.Message("INBOX_102", "2024/12/19 08:00", "digest", `"Slack" <no-reply@slack.com>`, "yamada@example.com"),
			mailtest.Message("INBOX_101", "2024/12/18 12:00", "hello", "dave@example.com", "yamada@example.com"),
		},
		domain.FolderSent: {},
	}
}

func ids(msgs []domain.MailMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func date(d int) *time.Time {
	t := time.Date(2024, 12, d, 0, 0, 0, 0, time.Local)
	return &t
}

func TestSearch_WalksWholeFolderWithScrolling(t *testing.T) {
	d := mailtest.New(inbox())
	d.PageSize = 2
	s := mail.NewSearcher(d)

	msgs, err := s.SearchAll(context.Background(), mail.Query{Folder: domain.FolderInbox})
	require.NoError(t, err)
	assert.Equal(t, []string{"INBOX_105", "INBOX_104", "INBOX_103", "INBOX_102", "INBOX_101"}, ids(msgs))
	assert.Greater(t, d.Scrolls, 0)

	first := msgs[0]
	assert.Equal(t, domain.Contact{Email: "alice@example.com", Name: "Alice"}, first.Sender)
	assert.Equal(t, []domain.Contact{{Email: "yamada@example.com"}}, first.To)
	assert.Equal(t, time.Date(2024, 12, 25, 10, 0, 0, 0, time.Local), first.ReceivedAt)
}

func TestSearch_DateWindow(t *testing.T) {
	q := mail.Query{Folder: domain.FolderInbox, Range: domain.DateRange{Start: date(19), End: date(24)}}

	msgs, err := mail.NewSearcher(mailtest.New(inbox())).SearchAll(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"INBOX_104", "INBOX_103", "INBOX_102"}, ids(msgs))

	q.Overrun = mail.OverrunStop
	msgs, err = mail.NewSearcher(mailtest.New(inbox())).SearchAll(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSearch_AfterID(t *testing.T) {
	q := mail.Query{Folder: domain.FolderInbox, AfterID: "INBOX_102"}
	msgs, err := mail.NewSearcher(mailtest.New(inbox())).SearchAll(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"INBOX_105", "INBOX_104", "INBOX_103"}, ids(msgs))

	q.AfterID = "INBOX_105"
	msgs, err = mail.NewSearcher(mailtest.New(inbox())).SearchAll(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSearch_Keyword(t *testing.T) {
	q := mail.Query{Folder: domain.FolderInbox, Keyword: "invoice"}
	msgs, err := mail.NewSearcher(mailtest.New(inbox())).SearchAll(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"INBOX_103"}, ids(msgs))
}

func TestSearch_StopsEarlyWhenConsumerBreaks(t *testing.T) {
	d := mailtest.New(inbox())
	var got []string
	for m, err := range mail.NewSearcher(d).Search(context.Background(), mail.Query{Folder: domain.FolderInbox}) {
		require.NoError(t, err)
		got = append(got, m.ID)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"INBOX_105", "INBOX_104"}, got)
}

func TestSearch_Failures(t *testing.T) {
	d := mailtest.New(inbox())
	d.FailReadAt = "INBOX_103"
	msgs, err := mail.NewSearcher(d).SearchAll(context.Background(), mail.Query{Folder: domain.FolderInbox})
	assert.ErrorIs(t, err, domain.ErrMailOperation)
	assert.Equal(t, []string{"INBOX_105", "INBOX_104"}, ids(msgs))

	_, err = mail.NewSearcher(mailtest.New(inbox())).SearchAll(context.Background(), mail.Query{Folder: domain.FolderSent})
	assert.ErrorIs(t, err, domain.ErrMailOperation)

	bad := inbox()
	bad[domain.FolderInbox][0].DateTime = "yesterday"
	_, err = mail.NewSearcher(mailtest.New(bad)).SearchAll(context.Background(), mail.Query{Folder: domain.FolderInbox})
	assert.ErrorIs(t, err, domain.ErrMailOperation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = mail.NewSearcher(mailtest.New(inbox())).SearchAll(ctx, mail.Query{Folder: domain.FolderInbox})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_UnpaddedDateTime(t *testing.T) {
	folders := map[domain.Folder][]mail.RawMessage{
		domain.FolderInbox: {
			mailtest.Message("INBOX_2", "2024/1/5 9:03", "new year", "alice@example.com", "yamada@example.com"),
			mailtest.Message("INBOX_1", "2024/01/04 17:45", "padded", "bob@example.com", "yamada@example.com"),
		},
	}
	msgs, err := mail.NewSearcher(mailtest.New(folders)).SearchAll(context.Background(), mail.Query{Folder: domain.FolderInbox})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, time.Date(2024, 1, 5, 9, 3, 0, 0, time.Local), msgs[0].ReceivedAt)
	assert.Equal(t, time.Date(2024, 1, 4, 17, 45, 0, 0, time.Local), msgs[1].ReceivedAt)
}
