package repository

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Config selects the driver and connection parameters. The read-only user
// connects through the database proxy on the VPN host, so Host is typically
// the proxy address, not the database itself.
type Config struct {
	Driver   string // "pgx" (default) or "mysql"
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
}

// Open connects and pings. The DSN carries a 10 second connect timeout in
// both driver dialects.
func Open(cfg Config) (*sql.DB, error) {
	driver, dsn, err := cfg.dsn()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

func (cfg Config) dsn() (driver, dsn string, err error) {
	switch cfg.Driver {
	case "", "pgx", "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.Username, cfg.Password),
			Host:     cfg.Host + ":" + cfg.Port,
			Path:     "/" + cfg.DBName,
			RawQuery: "connect_timeout=10",
		}
		return "pgx", u.String(), nil
	case "mysql":
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?timeout=10s&parseTime=true",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.DBName), nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
