package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/TobiSchelling/storedash/internal/logger"
)

// Dialect names the SQL backend behind a DB.
type Dialect string

const (
	SQLite Dialect = "sqlite"
	MySQL  Dialect = "mysql"
)

// DefaultTable is the table orders are written to and read from.
const DefaultTable = "orders"

var tableName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// DB is an order warehouse backed by SQLite or MySQL.
type DB struct {
	conn    *sql.DB
	dialect Dialect
	target  string
	log     *logger.Logger
}

// IsMySQL reports whether dsn addresses a MySQL or MariaDB server.
func IsMySQL(dsn string) bool {
	return strings.HasPrefix(dsn, "mysql://") || strings.HasPrefix(dsn, "mariadb://")
}

// Open connects to the warehouse at dsn and brings its schema up to date.
// mysql:// and mariadb:// URLs select MySQL; anything else is a SQLite
// file path.
func Open(dsn string, log *logger.Logger) (*DB, error) {
	if log == nil {
		log = logger.Nop()
	}
	if IsMySQL(dsn) {
		return openMySQL(dsn, log)
	}
	return openSQLite(dsn, log)
}

func openSQLite(dbPath string, log *logger.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	db := &DB{conn: conn, dialect: SQLite, target: dbPath, log: log}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

func openMySQL(dsn string, log *logger.Logger) (*DB, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(30 * time.Minute)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to mysql: %w", err)
	}

	db := &DB{conn: conn, dialect: MySQL, target: dsn, log: log}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

// toMySQLDSN converts a mysql:// or mariadb:// URL to the driver's native
// DSN format. Other strings pass through unchanged.
func toMySQLDSN(dsn string) (string, error) {
	if !IsMySQL(dsn) {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	host := u.Host
	name := strings.TrimPrefix(u.Path, "/")
	if user == "" || host == "" || name == "" {
		return "", fmt.Errorf("incomplete dsn: user, host and database are required")
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
		user, pass, host, name), nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Dialect returns the backend in use.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Target returns the file path or DSN the database was opened with.
func (db *DB) Target() string {
	return db.target
}
