package database

import (
	"context"
	"fmt"

	"github.com/locvowork/mywork_tools/internal/config"
	"github.com/locvowork/mywork_tools/internal/domain"
)

// Open connects the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DocStoreConfig) (DocumentStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, domain.Wrap(domain.ErrInvalidValue, "docstore config", err)
	}

	var (
		store DocumentStore
		err   error
	)
	switch cfg.Driver {
	case config.DriverSurrealDB:
		store, err = NewSurrealStore(cfg)
	case config.DriverSQLite, config.DriverPostgres:
		store, err = NewSQLStore(ctx, cfg.Driver, cfg.DSN)
	case config.DriverDatastore:
		store, err = NewDatastoreClient(ctx, cfg.ProjectID, cfg.Namespace)
	default:
		return nil, domain.Wrap(domain.ErrUnsupported, "docstore", fmt.Errorf("unknown driver %q", cfg.Driver))
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
