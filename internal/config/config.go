package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreSQLite   = "sqlite"
	StoreMySQL    = "mysql"
)

type Config struct {
	Port int `mapstructure:"port"`

	Store struct {
		Driver        string `mapstructure:"driver"`
		DatabaseURL   string `mapstructure:"database_url"`
		MongoURI      string `mapstructure:"mongo_uri"`
		MongoDatabase string `mapstructure:"mongo_database"`
		SQLitePath    string `mapstructure:"sqlite_path"`
	} `mapstructure:"store"`

	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`

	HTTP struct {
		Mode                   string `mapstructure:"mode"`
		CORSOrigins            string `mapstructure:"cors_origins"`
		ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
	} `mapstructure:"http"`
}

var keys = []string{
	"port",
	"store.driver",
	"store.database_url",
	"store.mongo_uri",
	"store.mongo_database",
	"store.sqlite_path",
	"log.level",
	"log.file",
	"http.mode",
	"http.cors_origins",
	"http.shutdown_timeout_seconds",
}

// Load reads .env (if present), LEAFSCAN_* environment variables and an
// optional config.yaml, in increasing order of precedence for env vars.
// Problems that were recovered from are returned as warnings, since the
// logger is built from the loaded config.
func Load() (Config, []string) {
	var warnings []string
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		warnings = append(warnings, fmt.Sprintf(".env not loaded: %v", err))
	}
	cfg, more := load(viper.New())
	return cfg, append(warnings, more...)
}

func load(v *viper.Viper) (Config, []string) {
	var warnings []string

	v.SetEnvPrefix("LEAFSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("port", 8080)
	v.SetDefault("store.mongo_database", "leafscan")
	v.SetDefault("store.sqlite_path", "leafscan.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("http.mode", "release")
	v.SetDefault("http.cors_origins", "*")
	v.SetDefault("http.shutdown_timeout_seconds", 10)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			warnings = append(warnings, fmt.Sprintf("config file ignored: %v", err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		warnings = append(warnings, fmt.Sprintf("config decode failed, using defaults: %v", err))
		cfg = Config{}
	}
	return cfg, append(warnings, cfg.normalize()...)
}

func (c *Config) normalize() []string {
	var warnings []string
	if c.Port <= 0 || c.Port >= 65536 {
		warnings = append(warnings, fmt.Sprintf("port %d out of range, using 8080", c.Port))
		c.Port = 8080
	}

	if c.Store.DatabaseURL == "" {
		c.Store.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case StoreMemory, StorePostgres, StoreMongo, StoreSQLite, StoreMySQL:
	case "":
		if c.Store.DatabaseURL != "" {
			c.Store.Driver = StorePostgres
		} else {
			c.Store.Driver = StoreMemory
		}
	default:
		warnings = append(warnings, fmt.Sprintf("unknown store driver %q, using memory", c.Store.Driver))
		c.Store.Driver = StoreMemory
	}

	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = "leafscan"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "leafscan.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.HTTP.Mode == "" {
		c.HTTP.Mode = "release"
	}
	if c.HTTP.CORSOrigins == "" {
		c.HTTP.CORSOrigins = "*"
	}
	if c.HTTP.ShutdownTimeoutSeconds <= 0 {
		c.HTTP.ShutdownTimeoutSeconds = 10
	}
	return warnings
}

func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.HTTP.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
