package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test inside an empty directory so no config.yaml is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "")

	cfg, warnings := load(viper.New())
	assert.Empty(t, warnings)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "leafscan", cfg.Store.MongoDatabase)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "release", cfg.HTTP.Mode)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	assert.Equal(t, 10, cfg.HTTP.ShutdownTimeoutSeconds)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("LEAFSCAN_PORT", "9090")
	t.Setenv("LEAFSCAN_STORE_DRIVER", "Mongo")
	t.Setenv("LEAFSCAN_STORE_MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("LEAFSCAN_LOG_LEVEL", "debug")
	t.Setenv("LEAFSCAN_HTTP_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, _ := load(viper.New())
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StoreMongo, cfg.Store.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Store.MongoURI)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestLoad_DatabaseURLSelectsPostgres(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/leafscan")

	cfg, _ := load(viper.New())
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/leafscan", cfg.Store.DatabaseURL)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LEAFSCAN_PORT", "70000")
	t.Setenv("LEAFSCAN_STORE_DRIVER", "cassandra")

	cfg, warnings := load(viper.New())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "70000")
	assert.Contains(t, warnings[1], "cassandra")
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("DATABASE_URL", "")
	yaml := "port: 7070\nstore:\n  driver: sqlite\n  sqlite_path: data/leafscan.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, _ := load(viper.New())
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, "data/leafscan.db", cfg.Store.SQLitePath)
}

func TestLoad_BrokenConfigFileWarns(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("port: [\n"), 0o600))

	cfg, warnings := load(viper.New())
	assert.Equal(t, 8080, cfg.Port)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "config file ignored")
}
