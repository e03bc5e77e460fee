package mailtest

import (
	"context"
	"sync"

	"github.com/locvowork/mywork_tools/internal/domain"
)

// Repository is an in-memory domain.MailRepository.
type Repository struct {
	mu       sync.Mutex
	Messages map[string]domain.MailMessage
	SaveErr  error
	Order    []string
}

var _ domain.MailRepository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{Messages: map[string]domain.MailMessage{}}
}

func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.Messages[id]
	return ok, nil
}

func (r *Repository) Save(ctx context.Context, m domain.MailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return domain.Wrap(domain.ErrTransaction, "save message", r.SaveErr)
	}
	r.Messages[m.ID] = m
	r.Order = append(r.Order, m.ID)
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.MailMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.Messages[id]
	if !ok {
		return nil, domain.Wrap(domain.ErrNotFound, "find message", nil)
	}
	return &m, nil
}
