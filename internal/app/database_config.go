package app

import (
	"strings"

	"github.com/openmakers/badgegate/internal/database"
)

// ConnectionConfig converts DatabaseConfig into the database package representation, picking the
// host parameters that match the selected driver.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	driver := strings.ToLower(strings.TrimSpace(c.Driver))
	cfg := database.Config{
		Driver:             driver,
		Path:               c.Path,
		DSN:                strings.TrimSpace(c.DSN),
		SlowQueryThreshold: c.SlowQueryThreshold,
		MaxOpenConns:       c.MaxOpenConns,
		ConnMaxLifetime:    c.ConnMaxLifetime,
	}

	var host DBAuthConfig
	switch driver {
	case "postgres", "postgresql":
		host = c.Postgres
	case "mysql":
		host = c.MySQL
	default:
		return cfg
	}

	cfg.Host = host.Host
	cfg.Port = host.Port
	cfg.Name = host.Database
	cfg.User = host.Username
	cfg.Password = host.Password
	return cfg
}
