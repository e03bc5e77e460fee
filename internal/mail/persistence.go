package mail

import (
	"context"

	"github.com/locvowork/mywork_tools/internal/domain"
)

// PersistResult is the outcome of Persist.
type PersistResult int

const (
	Saved PersistResult = iota
	AlreadyExists
)

func (r PersistResult) String() string {
	if r == AlreadyExists {
		return "already-exists"
	}
	return "saved"
}

// Persister stores messages once by id.
type Persister struct {
	repo domain.MailRepository
}

func NewPersister(repo domain.MailRepository) *Persister {
	return &Persister{repo: repo}
}

// Persist saves m unless a message with the same id is stored already.
// The check and the insert are not atomic; callers hold the client lock.
func (p *Persister) Persist(ctx context.Context, m domain.MailMessage) (PersistResult, error) {
	exists, err := p.repo.Exists(ctx, m.ID)
	if err != nil {
		return Saved, err
	}
	if exists {
		return AlreadyExists, nil
	}
	if err := p.repo.Save(ctx, m); err != nil {
		return Saved, err
	}
	return Saved, nil
}
