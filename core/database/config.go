package database

import (
	"fmt"
	"net/url"
	"strings"

	coreconfig "github.com/m3rciful/directorbot/core/config"
)

// Config holds storage settings; it is the storage section of the process config.
type Config = coreconfig.StorageConfig

// driverName maps the configured driver onto the database/sql driver registered by the imports in connect.go.
func driverName(cfg Config) string {
	if cfg.Driver == coreconfig.DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}

// connString returns the database/sql data source for cfg.
func connString(cfg Config) string {
	if cfg.Driver == coreconfig.DriverPostgres {
		return cfg.DSN
	}
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + cfg.Path + "?" + q.Encode()
}

// migrateURL returns the URL understood by the golang-migrate database drivers.
func migrateURL(cfg Config) (string, error) {
	switch cfg.Driver {
	case coreconfig.DriverPostgres:
		if !strings.HasPrefix(cfg.DSN, "postgres://") && !strings.HasPrefix(cfg.DSN, "postgresql://") {
			return "", fmt.Errorf("database: migrations need a postgres:// URL dsn")
		}
		return cfg.DSN, nil
	case coreconfig.DriverSQLite, "":
		return "sqlite://" + cfg.Path, nil
	default:
		return "", fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}
}

// describe returns the non-secret location of the store for logs.
func describe(cfg Config) string {
	if cfg.Driver != coreconfig.DriverPostgres {
		return cfg.Path
	}
	u, err := url.Parse(cfg.DSN)
	if err != nil || u.Host == "" {
		return "postgres"
	}
	return u.Host + u.Path
}
