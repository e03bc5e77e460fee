// Package database holds the document store backends and the mail search index.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/locvowork/mywork_tools/internal/domain"
)

// DocumentStore keeps JSON documents by collection and id.
type DocumentStore interface {
	// Count returns 1 when the record exists and 0 otherwise.
	Count(ctx context.Context, collection, id string) (int, error)
	// Get decodes the record into out. A missing record is domain.ErrNotFound.
	Get(ctx context.Context, collection, id string, out any) error
	// Begin opens the single transaction of this store.
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// Tx groups creates that become visible together on Commit.
type Tx interface {
	Create(ctx context.Context, collection, id string, doc any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Watcher streams changes of one collection until ctx ends.
type Watcher interface {
	Watch(ctx context.Context, collection string) (<-chan domain.ChangeEvent, error)
}

// Watch starts a watch when the store supports it.
func Watch(ctx context.Context, s DocumentStore, collection string) (<-chan domain.ChangeEvent, error) {
	w, ok := s.(Watcher)
	if !ok {
		return nil, domain.Wrap(domain.ErrUnsupported, "watch "+collection, fmt.Errorf("%T has no change feed", s))
	}
	return w.Watch(ctx, collection)
}

var errTxOpen = errors.New("a transaction is already open")

// txGuard allows one open transaction per store.
type txGuard struct {
	mu   sync.Mutex
	open bool
}

func (g *txGuard) acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open {
		return domain.Wrap(domain.ErrTransaction, "begin", errTxOpen)
	}
	g.open = true
	return nil
}

func (g *txGuard) release() {
	g.mu.Lock()
	g.open = false
	g.mu.Unlock()
}

// content turns doc into the stored body. The id lives in the key, never in
// the body.
func content(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("document must be an object: %w", err)
	}
	delete(m, "id")
	return m, nil
}

// decode copies a stored body into out and sets its "id" field.
func decode(body map[string]any, id string, out any) error {
	m := make(map[string]any, len(body)+1)
	for k, v := range body {
		m[k] = v
	}
	m["id"] = id
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
