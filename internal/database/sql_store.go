package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/repository/builder"
)

const documentsTable = "documents"

// The primary key rejects a second record with the same collection and id.
const createDocuments = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	PRIMARY KEY (collection, id)
)`

// SQLStore keeps documents as JSON text in one table. It runs on sqlite and
// postgres.
type SQLStore struct {
	db    *sqlx.DB
	guard txGuard
}

var _ DocumentStore = (*SQLStore)(nil)

// NewSQLStore opens driverName ("sqlite" or "postgres") and creates the
// documents table when missing.
func NewSQLStore(ctx context.Context, driverName, dsn string) (*SQLStore, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", driverName, err)
	}
	if driverName == "sqlite" {
		// an in-memory database lives in a single connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s db: %w", driverName, err)
	}
	if _, err := db.ExecContext(ctx, createDocuments); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Count(ctx context.Context, collection, id string) (int, error) {
	query, args, err := builder.NewSQLBuilder().
		Select("COUNT(*)").
		From(documentsTable).
		Where("collection = ?", collection).
		Where("id = ?", id).
		BuildSafe()
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("counting %s:%s: %w", collection, id, err)
	}
	return n, nil
}

func (s *SQLStore) Get(ctx context.Context, collection, id string, out any) error {
	query, args, err := builder.NewSQLBuilder().
		Select("body").
		From(documentsTable).
		Where("collection = ?", collection).
		Where("id = ?", id).
		BuildSafe()
	if err != nil {
		return err
	}

	var body string
	err = s.db.GetContext(ctx, &body, s.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Wrap(domain.ErrNotFound, "get "+collection, fmt.Errorf("record %s not found", id))
	}
	if err != nil {
		return fmt.Errorf("getting %s:%s: %w", collection, id, err)
	}

	m := map[string]any{}
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return fmt.Errorf("decoding %s:%s: %w", collection, id, err)
	}
	return decode(m, id, out)
}

func (s *SQLStore) Begin(ctx context.Context) (Tx, error) {
	if err := s.guard.acquire(); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.guard.release()
		return nil, domain.Wrap(domain.ErrTransaction, "begin", err)
	}
	return &sqlTx{store: s, tx: tx}, nil
}

type sqlTx struct {
	store *SQLStore
	tx    *sqlx.Tx
	done  bool
}

func (t *sqlTx) Create(ctx context.Context, collection, id string, doc any) error {
	body, err := content(doc)
	if err != nil {
		return fmt.Errorf("encoding %s:%s: %w", collection, id, err)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	query, args, err := builder.NewSQLBuilder().
		Insert(documentsTable, "collection", "id", "body").
		Values(collection, id, string(raw)).
		BuildSafe()
	if err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, t.tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("creating %s:%s: %w", collection, id, err)
	}
	return nil
}

func (t *sqlTx) Commit(ctx context.Context) error {
	if t.done {
		return domain.Wrap(domain.ErrTransaction, "commit", errors.New("transaction already finished"))
	}
	t.done = true
	defer t.store.guard.release()
	if err := t.tx.Commit(); err != nil {
		return domain.Wrap(domain.ErrTransaction, "commit", err)
	}
	return nil
}

func (t *sqlTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.store.guard.release()
	if err := t.tx.Rollback(); err != nil {
		return domain.Wrap(domain.ErrTransaction, "rollback", err)
	}
	return nil
}
