package database

import (
	"fmt"
	"net/url"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds database configuration
type Config struct {
	Driver     string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/gastos.db"`

	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"gastos"`
	Password string `envconfig:"DB_PASSWORD" default:"gastos"`
	DBName   string `envconfig:"DB_NAME" default:"gastos"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// Validate checks the driver and fills in the default one.
func (c *Config) Validate() error {
	switch c.Driver {
	case "":
		c.Driver = DriverSQLite
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Driver)
	}
	if c.Driver == DriverSQLite && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
	}
	return nil
}

// DSN returns the connection string gorm opens.
func (c *Config) DSN() string {
	if c.Driver == DriverPostgres {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return c.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000"
}

// MigrationURL returns the URL golang-migrate connects with.
func (c *Config) MigrationURL() string {
	if c.Driver == DriverPostgres {
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     c.Host + ":" + c.Port,
			Path:     c.DBName,
			RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
		}
		return u.String()
	}
	return "sqlite3://" + c.SQLitePath
}
