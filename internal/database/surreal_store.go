package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/locvowork/mywork_tools/internal/config"
	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
)

// SurrealStore is the SurrealDB backend.
type SurrealStore struct {
	db    *surrealdb.DB
	guard txGuard
}

var (
	_ DocumentStore = (*SurrealStore)(nil)
	_ Watcher       = (*SurrealStore)(nil)
)

// NewSurrealStore connects, signs in and selects the namespace and database.
func NewSurrealStore(cfg config.DocStoreConfig) (*SurrealStore, error) {
	db, err := surrealdb.New(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to surrealdb %s: %w", cfg.URL, err)
	}
	if _, err := db.SignIn(&surrealdb.Auth{Username: cfg.Username, Password: cfg.Password}); err != nil {
		db.Close()
		return nil, domain.Wrap(domain.ErrAuthentication, "surrealdb signin", err)
	}
	if err := db.Use(cfg.Namespace, cfg.Database); err != nil {
		db.Close()
		return nil, fmt.Errorf("selecting %s/%s: %w", cfg.Namespace, cfg.Database, err)
	}
	return &SurrealStore{db: db}, nil
}

func (s *SurrealStore) Close() error {
	return s.db.Close()
}

func firstResult[T any](res *[]surrealdb.QueryResult[T]) (T, error) {
	var zero T
	if res == nil || len(*res) == 0 {
		return zero, errors.New("empty query response")
	}
	r := (*res)[0]
	if r.Status != "OK" {
		return zero, fmt.Errorf("query status %s", r.Status)
	}
	return r.Result, nil
}

func (s *SurrealStore) Count(ctx context.Context, collection, id string) (int, error) {
	res, err := surrealdb.Query[[]map[string]any](s.db,
		"SELECT count() AS count FROM type::thing($tb, $id)",
		map[string]any{"tb": collection, "id": id})
	if err != nil {
		return 0, fmt.Errorf("counting %s:%s: %w", collection, id, err)
	}
	rows, err := firstResult(res)
	if err != nil {
		return 0, fmt.Errorf("counting %s:%s: %w", collection, id, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt(rows[0]["count"]), nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func (s *SurrealStore) Get(ctx context.Context, collection, id string, out any) error {
	res, err := surrealdb.Query[[]map[string]any](s.db,
		"SELECT * OMIT id FROM type::thing($tb, $id)",
		map[string]any{"tb": collection, "id": id})
	if err != nil {
		return fmt.Errorf("getting %s:%s: %w", collection, id, err)
	}
	rows, err := firstResult(res)
	if err != nil {
		return fmt.Errorf("getting %s:%s: %w", collection, id, err)
	}
	if len(rows) == 0 {
		return domain.Wrap(domain.ErrNotFound, "get "+collection, fmt.Errorf("record %s not found", id))
	}
	return decode(rows[0], id, out)
}

// Begin buffers creates; Commit sends them as one transaction query.
func (s *SurrealStore) Begin(ctx context.Context) (Tx, error) {
	if err := s.guard.acquire(); err != nil {
		return nil, err
	}
	return &surrealTx{store: s, vars: map[string]any{}}, nil
}

type surrealTx struct {
	store *SurrealStore
	stmts []string
	vars  map[string]any
	done  bool
}

func (t *surrealTx) Create(ctx context.Context, collection, id string, doc any) error {
	body, err := content(doc)
	if err != nil {
		return fmt.Errorf("encoding %s:%s: %w", collection, id, err)
	}
	n := len(t.stmts)
	t.stmts = append(t.stmts, fmt.Sprintf("CREATE type::thing($tb_%d, $id_%d) CONTENT $data_%d;", n, n, n))
	t.vars[fmt.Sprintf("tb_%d", n)] = collection
	t.vars[fmt.Sprintf("id_%d", n)] = id
	t.vars[fmt.Sprintf("data_%d", n)] = body
	return nil
}

func (t *surrealTx) Commit(ctx context.Context) error {
	if t.done {
		return domain.Wrap(domain.ErrTransaction, "commit", errors.New("transaction already finished"))
	}
	t.done = true
	defer t.store.guard.release()
	if len(t.stmts) == 0 {
		return nil
	}

	query := "BEGIN TRANSACTION;\n" + strings.Join(t.stmts, "\n") + "\nCOMMIT TRANSACTION;"
	res, err := surrealdb.Query[any](t.store.db, query, t.vars)
	if err != nil {
		return domain.Wrap(domain.ErrTransaction, "commit", err)
	}
	for i, r := range *res {
		if r.Status != "OK" {
			return domain.Wrap(domain.ErrTransaction, "commit", fmt.Errorf("statement %d: %s: %v", i, r.Status, r.Result))
		}
	}
	return nil
}

func (t *surrealTx) Rollback(ctx context.Context) error {
	if !t.done {
		t.done = true
		t.stmts = nil
		t.store.guard.release()
	}
	return nil
}

// Watch starts a live query on collection. The query is killed when ctx ends.
func (s *SurrealStore) Watch(ctx context.Context, collection string) (<-chan domain.ChangeEvent, error) {
	live, err := surrealdb.Live(s.db, models.Table(collection), false)
	if err != nil {
		return nil, fmt.Errorf("live query on %s: %w", collection, err)
	}
	notifications, err := s.db.LiveNotifications(live.String())
	if err != nil {
		_ = surrealdb.Kill(s.db, live.String())
		return nil, fmt.Errorf("live notifications on %s: %w", collection, err)
	}

	out := make(chan domain.ChangeEvent)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			if err := surrealdb.Kill(s.db, live.String()); err != nil {
				logger.WarnLog(ctx, "kill live query %s: %v", live.String(), err)
			}
		})
	}

	go func() {
		defer close(out)
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-notifications:
				if !ok {
					return
				}
				ev := domain.ChangeEvent{Action: string(n.Action), ID: recordKey(n.Result)}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// recordKey extracts the record id of a notification payload.
func recordKey(result any) string {
	m, ok := result.(map[string]any)
	if !ok {
		return ""
	}
	switch id := m["id"].(type) {
	case models.RecordID:
		return fmt.Sprint(id.ID)
	case *models.RecordID:
		return fmt.Sprint(id.ID)
	case string:
		if i := strings.Index(id, ":"); i >= 0 {
			return id[i+1:]
		}
		return id
	}
	return ""
}
