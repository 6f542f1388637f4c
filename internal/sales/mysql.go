package sales

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ParseDSN accepts a mysql:// or mariadb:// URL or a native driver DSN and
// returns the driver DSN. Times are always parsed into time.Time in UTC.
func ParseDSN(dsn string) (string, error) {
	var cfg *mysql.Config

	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}

		cfg = mysql.NewConfig()
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		cfg.DBName = strings.TrimPrefix(u.Path, "/")
		if u.User != nil {
			cfg.User = u.User.Username()
			cfg.Passwd, _ = u.User.Password()
		}
		if cfg.User == "" || cfg.Addr == "" || cfg.DBName == "" {
			return "", fmt.Errorf("incomplete dsn: user, host and database are required")
		}
	} else {
		parsed, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		cfg = parsed
	}

	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// Open connects to an external MySQL/MariaDB sales database.
// The connection is lazy; the first query establishes it.
func Open(dsn string, maxOpenConns int, connMaxLifetime time.Duration) (*sql.DB, error) {
	native, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", native)
	if err != nil {
		return nil, fmt.Errorf("open sales database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return db, nil
}
