package database

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/locvowork/mywork_tools/internal/domain"
)

// DataSeeder fills the document store with sample messages through the
// mail repository, optionally indexing them as well.
type DataSeeder struct {
	repo  domain.MailRepository
	index *ElasticSearchClient
	rnd   *rand.Rand
}

func NewDataSeeder(repo domain.MailRepository, index *ElasticSearchClient, seed int64) *DataSeeder {
	return &DataSeeder{repo: repo, index: index, rnd: rand.New(rand.NewSource(seed))}
}

var (
	senders = []domain.Contact{
		{Email: "suzuki@example.co.jp", Name: "鈴木 一郎"},
		{Email: "tanaka@example.co.jp", Name: "田中 花子"},
		{Email: "sato@example.co.jp", Name: "佐藤 健"},
		{Email: "no-reply@slack.com", Name: "Slack"},
		{Email: "info@example.com", Name: "Info Desk"},
	}
	recipients = []string{"yamada@example.co.jp", "team@example.co.jp", "soumu@example.co.jp", "boss@example.co.jp"}
	subjects   = []string{"週次報告", "会議のご案内", "勤務表の提出について", "有給休暇申請", "Release notes", "請求書送付のお願い", "打ち合わせ議事録"}
	files      = []string{"report.pdf", "timecard.xlsx", "minutes.docx", "invoice.pdf"}
)

// Presets
type SeedPreset string

const (
	PresetSmall  SeedPreset = "small"
	PresetMedium SeedPreset = "medium"
	PresetLarge  SeedPreset = "large"
)

// GetPresetConfig returns the number of messages for a preset.
func GetPresetConfig(preset SeedPreset) int {
	switch preset {
	case PresetSmall:
		return 10
	case PresetLarge:
		return 500
	default:
		return 100
	}
}

// Messages generates n inbox messages with ids INBOX_{first}..., newest last,
// received one hour apart ending at until.
func (ds *DataSeeder) Messages(n, first int, until time.Time) []domain.MailMessage {
	msgs := make([]domain.MailMessage, 0, n)
	for i := 0; i < n; i++ {
		m := domain.MailMessage{
			ID:         fmt.Sprintf("INBOX_%d", first+i),
			Subject:    subjects[ds.rnd.Intn(len(subjects))],
			ReceivedAt: until.Add(-time.Duration(n-1-i) * time.Hour).Truncate(time.Minute),
			Sender:     senders[ds.rnd.Intn(len(senders))],
		}
		m.Body = fmt.Sprintf("%s 様\n\n%sの件、ご確認をお願いします。\n\n%s", recipients[0], m.Subject, m.Sender.Name)
		for _, to := range randomSelect(ds.rnd, recipients, ds.rnd.Intn(2)+1) {
			m.To = append(m.To, domain.Contact{Email: to})
		}
		if ds.rnd.Intn(3) == 0 {
			m.Cc = []domain.Contact{{Email: recipients[len(recipients)-1]}}
		}
		if ds.rnd.Intn(4) == 0 {
			m.Attachments = randomSelect(ds.rnd, files, ds.rnd.Intn(2)+1)
		}
		msgs = append(msgs, m)
	}
	return msgs
}

// SeedData stores the messages that are not stored yet and reports how many
// were written.
func (ds *DataSeeder) SeedData(ctx context.Context, msgs []domain.MailMessage) (int, error) {
	saved := make([]domain.MailMessage, 0, len(msgs))
	for _, m := range msgs {
		exists, err := ds.repo.Exists(ctx, m.ID)
		if err != nil {
			return len(saved), err
		}
		if exists {
			continue
		}
		if err := ds.repo.Save(ctx, m); err != nil {
			return len(saved), fmt.Errorf("failed to insert %s: %w", m.ID, err)
		}
		saved = append(saved, m)
	}

	if ds.index != nil {
		if err := ds.index.BulkIndex(ctx, saved); err != nil {
			return len(saved), err
		}
	}
	return len(saved), nil
}

// randomSelect randomly selects N items from a list
func randomSelect(rnd *rand.Rand, items []string, count int) []string {
	if count > len(items) {
		count = len(items)
	}
	result := make([]string, count)
	perm := rnd.Perm(len(items))
	for i := 0; i < count; i++ {
		result[i] = items[perm[i]]
	}
	return result
}
