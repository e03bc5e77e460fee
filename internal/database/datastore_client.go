package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/datastore"

	"github.com/locvowork/mywork_tools/internal/domain"
)

// documentEntity is how a document is stored in Datastore: kind is the
// collection, the name key is the id.
type documentEntity struct {
	Body string `datastore:"body,noindex"`
}

// DatastoreClient is the Cloud Datastore backend.
type DatastoreClient struct {
	client    *datastore.Client
	namespace string
	guard     txGuard
}

var _ DocumentStore = (*DatastoreClient)(nil)

// NewDatastoreClient connects to projectID. DATASTORE_EMULATOR_HOST is honoured
// by the client library.
func NewDatastoreClient(ctx context.Context, projectID, namespace string) (*DatastoreClient, error) {
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating datastore client: %w", err)
	}
	return WrapDatastoreClient(client, namespace), nil
}

// WrapDatastoreClient wraps an existing datastore client.
func WrapDatastoreClient(client *datastore.Client, namespace string) *DatastoreClient {
	if client == nil {
		return nil
	}
	return &DatastoreClient{client: client, namespace: namespace}
}

func (dc *DatastoreClient) key(collection, id string) *datastore.Key {
	k := datastore.NameKey(collection, id, nil)
	k.Namespace = dc.namespace
	return k
}

func (dc *DatastoreClient) Close() error {
	return dc.client.Close()
}

func (dc *DatastoreClient) Count(ctx context.Context, collection, id string) (int, error) {
	var e documentEntity
	err := dc.client.Get(ctx, dc.key(collection, id), &e)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("counting %s:%s: %w", collection, id, err)
	}
	return 1, nil
}

func (dc *DatastoreClient) Get(ctx context.Context, collection, id string, out any) error {
	var e documentEntity
	err := dc.client.Get(ctx, dc.key(collection, id), &e)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return domain.Wrap(domain.ErrNotFound, "get "+collection, fmt.Errorf("record %s not found", id))
	}
	if err != nil {
		return fmt.Errorf("getting %s:%s: %w", collection, id, err)
	}
	m := map[string]any{}
	if err := json.Unmarshal([]byte(e.Body), &m); err != nil {
		return fmt.Errorf("decoding %s:%s: %w", collection, id, err)
	}
	return decode(m, id, out)
}

func (dc *DatastoreClient) Begin(ctx context.Context) (Tx, error) {
	if err := dc.guard.acquire(); err != nil {
		return nil, err
	}
	tx, err := dc.client.NewTransaction(ctx)
	if err != nil {
		dc.guard.release()
		return nil, domain.Wrap(domain.ErrTransaction, "begin", err)
	}
	return &datastoreTx{dc: dc, tx: tx}, nil
}

type datastoreTx struct {
	dc   *DatastoreClient
	tx   *datastore.Transaction
	done bool
}

// Create refuses to overwrite an existing entity.
func (t *datastoreTx) Create(ctx context.Context, collection, id string, doc any) error {
	body, err := content(doc)
	if err != nil {
		return fmt.Errorf("encoding %s:%s: %w", collection, id, err)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	key := t.dc.key(collection, id)
	var existing documentEntity
	switch err := t.tx.Get(key, &existing); {
	case err == nil:
		return fmt.Errorf("creating %s:%s: record already exists", collection, id)
	case !errors.Is(err, datastore.ErrNoSuchEntity):
		return fmt.Errorf("creating %s:%s: %w", collection, id, err)
	}

	if _, err := t.tx.Put(key, &documentEntity{Body: string(raw)}); err != nil {
		return fmt.Errorf("creating %s:%s: %w", collection, id, err)
	}
	return nil
}

func (t *datastoreTx) Commit(ctx context.Context) error {
	if t.done {
		return domain.Wrap(domain.ErrTransaction, "commit", errors.New("transaction already finished"))
	}
	t.done = true
	defer t.dc.guard.release()
	if _, err := t.tx.Commit(); err != nil {
		return domain.Wrap(domain.ErrTransaction, "commit", err)
	}
	return nil
}

func (t *datastoreTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.dc.guard.release()
	if err := t.tx.Rollback(); err != nil {
		return domain.Wrap(domain.ErrTransaction, "rollback", err)
	}
	return nil
}
