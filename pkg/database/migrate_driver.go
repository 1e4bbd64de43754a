package database

import (
	"database/sql"
	"fmt"
	"io"
	"strings"

	migratedb "github.com/golang-migrate/migrate/v4/database"
)

// sqliteDriver is a minimal golang-migrate database.Driver implementation
// for the embedded store. golang-migrate ships a bundled sqlite3 driver,
// but it type-asserts against github.com/mattn/go-sqlite3 error codes,
// which pulls in a cgo build of SQLite — at odds with modernc.org/sqlite's
// pure-Go story (spec §6 "embedded" store, no system SQLite dependency).
// Implementing the small Driver interface directly against our already-open
// *sql.DB keeps the whole stack cgo-free while still using golang-migrate's
// orchestration (version tracking, dirty-state, iofs source) verbatim.
type sqliteDriver struct {
	db *sql.DB
}

const migrationsTable = "schema_migrations"

func newSqliteDriver(db *sql.DB) (migratedb.Driver, error) {
	d := &sqliteDriver{db: db}
	if err := d.ensureVersionTable(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *sqliteDriver) ensureVersionTable() error {
	_, err := d.db.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (version INTEGER NOT NULL PRIMARY KEY, dirty BOOLEAN NOT NULL)`,
		migrationsTable))
	return err
}

// Open/Close are no-ops: the caller owns the *sql.DB lifecycle.
func (d *sqliteDriver) Open(url string) (migratedb.Driver, error) {
	return nil, fmt.Errorf("sqliteDriver.Open not supported, use newSqliteDriver with an existing *sql.DB")
}

func (d *sqliteDriver) Close() error { return nil }

// Lock/Unlock are no-ops: a single-process, single-connection-pool runner
// (spec §4.6, the runtime owns the one store handle) never contends for the
// migration lock the way a fleet of Postgres-backed instances would.
func (d *sqliteDriver) Lock() error   { return nil }
func (d *sqliteDriver) Unlock() error { return nil }

// Run executes one migration file verbatim. SQLite's driver does not
// support multiple statements per Exec call reliably when mixed with
// parameters, so migrations are split on ";\n" boundaries.
func (d *sqliteDriver) Run(migration io.Reader) error {
	b, err := io.ReadAll(migration)
	if err != nil {
		return err
	}
	stmts := strings.Split(string(b), ";\n")
	for _, stmt := range stmts {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration statement failed: %w\n%s", err, stmt)
		}
	}
	return nil
}

func (d *sqliteDriver) SetVersion(version int, dirty bool) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s`, migrationsTable)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if version >= 0 {
		if _, err := tx.Exec(fmt.Sprintf(`INSERT INTO %s (version, dirty) VALUES (?, ?)`, migrationsTable), version, dirty); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (d *sqliteDriver) Version() (int, bool, error) {
	var version int
	var dirty bool
	row := d.db.QueryRow(fmt.Sprintf(`SELECT version, dirty FROM %s LIMIT 1`, migrationsTable))
	if err := row.Scan(&version, &dirty); err != nil {
		if err == sql.ErrNoRows {
			return -1, false, nil
		}
		return 0, false, err
	}
	return version, dirty, nil
}

func (d *sqliteDriver) Drop() error {
	rows, err := d.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	rows.Close()

	for _, name := range tables {
		if _, err := d.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q`, name)); err != nil {
			return err
		}
	}
	return d.ensureVersionTable()
}
