package main

import (
	"context"
	"fmt"

	"leafscan/api/internal/config"
	"leafscan/api/internal/store"
	"leafscan/api/internal/store/gormstore"
	"leafscan/api/internal/store/memory"
	"leafscan/api/internal/store/mongostore"
	"leafscan/api/internal/store/postgres"
)

type migrator interface {
	Migrate(ctx context.Context) error
}

// openStore connects the backend selected by cfg.Store.Driver and, when
// migrate is set, prepares its schema.
func openStore(ctx context.Context, cfg config.Config, migrate bool) (store.Store, error) {
	var st store.Store
	var err error

	switch cfg.Store.Driver {
	case config.StorePostgres:
		if cfg.Store.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres store needs LEAFSCAN_STORE_DATABASE_URL or DATABASE_URL")
		}
		st, err = postgres.NewStore(cfg.Store.DatabaseURL)
	case config.StoreMongo:
		if cfg.Store.MongoURI == "" {
			return nil, fmt.Errorf("mongo store needs LEAFSCAN_STORE_MONGO_URI")
		}
		st, err = mongostore.NewStore(cfg.Store.MongoURI, cfg.Store.MongoDatabase)
	case config.StoreSQLite:
		st, err = gormstore.Open(gormstore.DriverSQLite, cfg.Store.SQLitePath)
	case config.StoreMySQL:
		if cfg.Store.DatabaseURL == "" {
			return nil, fmt.Errorf("mysql store needs LEAFSCAN_STORE_DATABASE_URL")
		}
		st, err = gormstore.Open(gormstore.DriverMySQL, cfg.Store.DatabaseURL)
	default:
		return memory.NewStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	if m, ok := st.(migrator); ok && migrate {
		if err := m.Migrate(ctx); err != nil {
			_ = st.Close(context.Background())
			return nil, fmt.Errorf("migrate %s store: %w", cfg.Store.Driver, err)
		}
	}
	return st, nil
}
