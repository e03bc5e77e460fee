package handler

import (
	"time"

	"github.com/locvowork/mywork_tools/internal/domain"
)

// ContactDTO is an address with an optional display name.
type ContactDTO struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// MailMessageDTO is the JSON form of a stored message.
type MailMessageDTO struct {
	ID          string       `json:"id"`
	Subject     string       `json:"subject"`
	ReceivedAt  time.Time    `json:"received_at"`
	Body        string       `json:"body,omitempty"`
	Sender      ContactDTO   `json:"sender"`
	To          []ContactDTO `json:"to"`
	Cc          []ContactDTO `json:"cc,omitempty"`
	Attachments []string     `json:"attachments,omitempty"`
}

func contacts(cs []domain.Contact) []ContactDTO {
	out := make([]ContactDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, ContactDTO{Email: c.Email, Name: c.Name})
	}
	return out
}

func newMailMessageDTO(m domain.MailMessage) MailMessageDTO {
	dto := MailMessageDTO{
		ID:          m.ID,
		Subject:     m.Subject,
		ReceivedAt:  m.ReceivedAt,
		Body:        m.Body,
		Sender:      ContactDTO{Email: m.Sender.Email, Name: m.Sender.Name},
		To:          contacts(m.To),
		Attachments: m.Attachments,
	}
	if len(m.Cc) > 0 {
		dto.Cc = contacts(m.Cc)
	}
	return dto
}
