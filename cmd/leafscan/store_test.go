package main

import (
	"context"
	"path/filepath"
	"testing"

	"leafscan/api/internal/config"
	"leafscan/api/internal/store/gormstore"
	"leafscan/api/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_Memory(t *testing.T) {
	var cfg config.Config
	cfg.Store.Driver = config.StoreMemory

	st, err := openStore(context.Background(), cfg, true)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, st)
}

func TestOpenStore_MissingConnectionSettings(t *testing.T) {
	for _, driver := range []string{config.StorePostgres, config.StoreMongo, config.StoreMySQL} {
		t.Run(driver, func(t *testing.T) {
			var cfg config.Config
			cfg.Store.Driver = driver

			_, err := openStore(context.Background(), cfg, false)
			assert.Error(t, err)
		})
	}
}

func TestOpenStore_SQLiteMigrates(t *testing.T) {
	var cfg config.Config
	cfg.Store.Driver = config.StoreSQLite
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "leafscan.db")

	st, err := openStore(context.Background(), cfg, true)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer st.Close(context.Background())
	assert.IsType(t, &gormstore.Store{}, st)

	list, err := st.ListPredictionsByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
