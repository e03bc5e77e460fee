package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/locvowork/mywork_tools/internal/database"
	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
)

type mailRepository struct {
	store database.DocumentStore
	newID func() string
}

// NewMailRepository creates a MailRepository over a document store.
func NewMailRepository(store database.DocumentStore) domain.MailRepository {
	return &mailRepository{store: store, newID: childID}
}

// childID is a random uuid in hex without dashes.
func childID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func ref(collection, id string) string {
	return collection + ":" + id
}

func splitRef(r string) (collection, id string, err error) {
	collection, id, ok := strings.Cut(r, ":")
	if !ok || collection == "" || id == "" {
		return "", "", fmt.Errorf("malformed record reference %q", r)
	}
	return collection, id, nil
}

func (r *mailRepository) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.store.Count(ctx, domain.CollectionMessages, id)
	if err != nil {
		return false, domain.Wrap(domain.ErrTransaction, "exists", err)
	}
	return n > 0, nil
}

// Save writes the recipients, the attachments and the message in one
// transaction. Nothing is written when any create fails.
func (r *mailRepository) Save(ctx context.Context, m domain.MailMessage) (err error) {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return domain.Wrap(domain.ErrTransaction, "save message", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logger.ErrorLog(ctx, "rollback of %s failed: %v", m.ID, rbErr)
		}
		err = domain.Wrap(domain.ErrTransaction, "save message", err)
	}()

	rec := domain.MailMessageRecord{
		ID:          m.ID,
		Subject:     m.Subject,
		ReceivedAt:  m.ReceivedAt.Format(time.RFC3339),
		Body:        m.Body,
		SenderEmail: m.Sender.Email,
		SenderName:  m.Sender.Name,
		Recipients:  []string{},
		Attachments: []string{},
	}

	addRecipients := func(contacts []domain.Contact, kind domain.RecipientType) error {
		for _, c := range contacts {
			child := domain.RecipientRecord{
				ID:            r.newID(),
				MailMessageID: m.ID,
				Email:         c.Email,
				Name:          c.Name,
				RecipientType: kind,
			}
			if err := tx.Create(ctx, domain.CollectionRecipients, child.ID, child); err != nil {
				return err
			}
			rec.Recipients = append(rec.Recipients, ref(domain.CollectionRecipients, child.ID))
		}
		return nil
	}
	if err = addRecipients(m.To, domain.RecipientTo); err != nil {
		return err
	}
	if err = addRecipients(m.Cc, domain.RecipientCc); err != nil {
		return err
	}

	for _, path := range m.Attachments {
		child := domain.AttachmentRecord{ID: r.newID(), MailMessageID: m.ID, FilePath: path}
		if err = tx.Create(ctx, domain.CollectionAttachments, child.ID, child); err != nil {
			return err
		}
		rec.Attachments = append(rec.Attachments, ref(domain.CollectionAttachments, child.ID))
	}

	if err = tx.Create(ctx, domain.CollectionMessages, m.ID, rec); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// FindByID loads a message and resolves its recipient and attachment records.
func (r *mailRepository) FindByID(ctx context.Context, id string) (*domain.MailMessage, error) {
	var rec domain.MailMessageRecord
	if err := r.store.Get(ctx, domain.CollectionMessages, id, &rec); err != nil {
		return nil, err
	}

	receivedAt, err := time.Parse(time.RFC3339, rec.ReceivedAt)
	if err != nil {
		return nil, domain.Wrap(domain.ErrInvalidValue, "find message", fmt.Errorf("received_at %q: %w", rec.ReceivedAt, err))
	}
	m := &domain.MailMessage{
		ID:         rec.ID,
		Subject:    rec.Subject,
		ReceivedAt: receivedAt,
		Body:       rec.Body,
		Sender:     domain.Contact{Email: rec.SenderEmail, Name: rec.SenderName},
	}

	for _, rf := range rec.Recipients {
		collection, childID, err := splitRef(rf)
		if err != nil {
			return nil, domain.Wrap(domain.ErrInvalidValue, "find message", err)
		}
		var rr domain.RecipientRecord
		if err := r.store.Get(ctx, collection, childID, &rr); err != nil {
			return nil, err
		}
		c := domain.Contact{Email: rr.Email, Name: rr.Name}
		if rr.RecipientType == domain.RecipientCc {
			m.Cc = append(m.Cc, c)
		} else {
			m.To = append(m.To, c)
		}
	}
	for _, rf := range rec.Attachments {
		collection, childID, err := splitRef(rf)
		if err != nil {
			return nil, domain.Wrap(domain.ErrInvalidValue, "find message", err)
		}
		var ar domain.AttachmentRecord
		if err := r.store.Get(ctx, collection, childID, &ar); err != nil {
			return nil, err
		}
		m.Attachments = append(m.Attachments, ar.FilePath)
	}
	return m, nil
}
