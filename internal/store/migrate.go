package store

import (
	"database/sql"
	"fmt"
)

// schemaVersion reads the applied schema version. SQLite keeps it in
// PRAGMA user_version, MySQL in a one-row bookkeeping table.
func (db *DB) schemaVersion() (int, error) {
	var version int
	if db.dialect == SQLite {
		if err := db.conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
			return 0, fmt.Errorf("reading schema version: %w", err)
		}
		return version, nil
	}

	if _, err := db.conn.Exec("CREATE TABLE IF NOT EXISTS storedash_schema (version INTEGER NOT NULL)"); err != nil {
		return 0, fmt.Errorf("creating schema table: %w", err)
	}
	err := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM storedash_schema").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

func (db *DB) setSchemaVersion(version int) error {
	if db.dialect == SQLite {
		// modernc/sqlite does not allow this inside the migration transaction.
		_, err := db.conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", version))
		return err
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM storedash_schema"); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec("INSERT INTO storedash_schema (version) VALUES (?)", version); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// migrate brings the schema up to the latest version.
func (db *DB) migrate() error {
	current, err := db.schemaVersion()
	if err != nil {
		return err
	}
	if current >= latestVersion() {
		return nil
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		db.log.Info("applying migration", "version", m.Version, "description", m.Description, "dialect", db.dialect)

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if err := m.Up(tx, db.dialect); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
		if err := db.setSchemaVersion(m.Version); err != nil {
			return fmt.Errorf("setting version %d: %w", m.Version, err)
		}
	}
	return nil
}

// Migration is one schema step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx, d Dialect) error
}

// migrations is the ordered list of schema steps. Append new ones with an
// incrementing Version.
var migrations = []Migration{
	{
		Version:     1,
		Description: "orders table",
		Up: func(tx *sql.Tx, _ Dialect) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS orders (
    row_no INTEGER NOT NULL PRIMARY KEY,
    order_id VARCHAR(64) NOT NULL,
    order_date VARCHAR(10) NOT NULL,
    ship_date VARCHAR(10) NOT NULL,
    ship_mode VARCHAR(64) NOT NULL,
    segment VARCHAR(64) NOT NULL,
    region VARCHAR(64) NOT NULL,
    state VARCHAR(64) NOT NULL,
    category VARCHAR(64) NOT NULL,
    sub_category VARCHAR(64) NOT NULL,
    sales DOUBLE NOT NULL,
    quantity INTEGER NOT NULL,
    discount DOUBLE NOT NULL,
    revenue DOUBLE NOT NULL
)`)
			return err
		},
	},
	{
		Version:     2,
		Description: "order id index and export runs",
		Up: func(tx *sql.Tx, d Dialect) error {
			runs := `
CREATE TABLE IF NOT EXISTS export_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_key VARCHAR(64) NOT NULL,
    row_count INTEGER NOT NULL,
    exported_at VARCHAR(32) NOT NULL
)`
			index := "CREATE INDEX IF NOT EXISTS idx_orders_order_id ON orders(order_id)"
			if d == MySQL {
				runs = `
CREATE TABLE IF NOT EXISTS export_runs (
    id INTEGER PRIMARY KEY AUTO_INCREMENT,
    source_key VARCHAR(64) NOT NULL,
    row_count INTEGER NOT NULL,
    exported_at VARCHAR(32) NOT NULL
)`
				index = "CREATE INDEX idx_orders_order_id ON orders(order_id)"
			}
			if _, err := tx.Exec(runs); err != nil {
				return err
			}
			_, err := tx.Exec(index)
			return err
		},
	},
}

// latestVersion returns the highest migration version.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
