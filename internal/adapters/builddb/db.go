// Package builddb implements the SQLite persistence backend the engine
// checkpoints rule results through between builds.
package builddb

import (
	"database/sql"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.trai.ch/zerr"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
)

//go:embed schema.sql
var schemaSQL string

var _ ports.BuildDB = (*DB)(nil)

// DB is a SQLite-backed build database. It is configured for a single
// writer with WAL mode so concurrent readers (e.g. inspection tooling)
// stay unblocked during a build.
type DB struct {
	db *sql.DB
}

// Open creates or opens the build database at path, verifying it was
// created with the given schema version.
func Open(path string, schemaVersion uint32) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "unable to open build database"), "path", path)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, zerr.With(zerr.Wrap(err, "unable to configure build database"), "pragma", pragma)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, zerr.Wrap(err, "unable to apply build database schema")
	}

	var storedVersion uint32
	var iteration uint64
	row := db.QueryRow(`SELECT schema_version, iteration FROM info WHERE id = 0`)
	switch err := row.Scan(&storedVersion, &iteration); {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.Exec(`INSERT INTO info (id, schema_version, iteration) VALUES (0, ?, 0)`, schemaVersion); err != nil {
			_ = db.Close()
			return nil, zerr.Wrap(err, "unable to initialize build database")
		}
	case err != nil:
		_ = db.Close()
		return nil, zerr.Wrap(err, "unable to read build database info")
	case storedVersion != schemaVersion:
		_ = db.Close()
		return nil, zerr.With(zerr.With(zerr.With(zerr.Wrap(domain.ErrSchemaVersionMismatch, "unable to open build database"),
			"message", fmt.Sprintf("database at '%s' created with schema version %d, expected %d", path, storedVersion, schemaVersion)),
			"stored", storedVersion), "expected", schemaVersion)
	}

	return &DB{db: db}, nil
}

// GetCurrentIteration returns the iteration of the last completed
// build.
func (d *DB) GetCurrentIteration() (uint64, error) {
	var iteration uint64
	if err := d.db.QueryRow(`SELECT iteration FROM info WHERE id = 0`).Scan(&iteration); err != nil {
		return 0, zerr.Wrap(err, "unable to read build iteration")
	}
	return iteration, nil
}

// SetCurrentIteration records the iteration of the current build.
func (d *DB) SetCurrentIteration(iteration uint64) error {
	if _, err := d.db.Exec(`UPDATE info SET iteration = ? WHERE id = 0`, iteration); err != nil {
		return zerr.Wrap(err, "unable to record build iteration")
	}
	return nil
}

// LookupRuleResult returns the stored result for key, or nil.
func (d *DB) LookupRuleResult(key []byte) (*ports.RuleResult, error) {
	var result ports.RuleResult
	var deps []byte
	row := d.db.QueryRow(
		`SELECT value, built_at, computed_at, dependencies FROM rule_results WHERE key = ?`, key)
	switch err := row.Scan(&result.Value, &result.BuiltAt, &result.ComputedAt, &deps); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, zerr.Wrap(err, "unable to look up rule result")
	}

	dependencies, err := decodeDependencies(deps)
	if err != nil {
		return nil, err
	}
	result.Dependencies = dependencies
	return &result, nil
}

// SetRuleResult stores the result for key.
func (d *DB) SetRuleResult(key []byte, result ports.RuleResult) error {
	_, err := d.db.Exec(
		`INSERT INTO rule_results (key, value, built_at, computed_at, dependencies)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   built_at = excluded.built_at,
		   computed_at = excluded.computed_at,
		   dependencies = excluded.dependencies`,
		key, result.Value, result.BuiltAt, result.ComputedAt, encodeDependencies(result.Dependencies))
	if err != nil {
		return zerr.Wrap(err, "unable to store rule result")
	}
	return nil
}

// Close releases the database.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// encodeDependencies serializes the ordered dependency key list as a
// count followed by length-prefixed entries.
func encodeDependencies(deps [][]byte) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(len(deps)))
	for _, dep := range deps {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(dep)))
		buf = append(buf, dep...)
	}
	return buf
}

func decodeDependencies(data []byte) ([][]byte, error) {
	if len(data) < 4 {
		return nil, zerr.Wrap(domain.ErrTruncatedValue, "corrupt dependency list")
	}
	count := binary.LittleEndian.Uint32(data)
	data = data[4:]

	deps := make([][]byte, 0, count)
	for range count {
		if len(data) < 4 {
			return nil, zerr.Wrap(domain.ErrTruncatedValue, "corrupt dependency list")
		}
		n := binary.LittleEndian.Uint32(data)
		data = data[4:]
		if uint32(len(data)) < n {
			return nil, zerr.Wrap(domain.ErrTruncatedValue, "corrupt dependency list")
		}
		deps = append(deps, append([]byte(nil), data[:n]...))
		data = data[n:]
	}
	return deps, nil
}
