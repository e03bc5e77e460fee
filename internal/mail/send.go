package mail

import (
	"context"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
)

// Validate checks the addresses and the attachment path.
func (d Draft) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.To, validation.Required, validation.Each(validation.Required, is.EmailFormat)),
		validation.Field(&d.Cc, validation.Each(validation.Required, is.EmailFormat)),
	)
	if err != nil {
		return err
	}
	if d.Attachment != "" {
		if _, err := os.Stat(d.Attachment); err != nil {
			return fmt.Errorf("attachment: %w", err)
		}
	}
	return nil
}

// Sender submits drafts through the compose popup.
type Sender struct {
	driver Driver
}

func NewSender(d Driver) *Sender {
	return &Sender{driver: d}
}

// Send validates d and submits it once.
func (s *Sender) Send(ctx context.Context, d Draft) error {
	if err := d.Validate(); err != nil {
		return domain.Wrap(domain.ErrInvalidValue, "send mail", err)
	}
	if err := s.driver.Compose(ctx, d); err != nil {
		return domain.Wrap(domain.ErrMailOperation, "send mail", err)
	}
	logger.InfoLog(ctx, "sent %q to %v", d.Subject, d.To)
	return nil
}
