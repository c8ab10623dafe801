package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"govinv/internal/filter"
)

// SchemaVersion is the inventory layout this engine reads.
const SchemaVersion = 1

// Tables read by the engine.
const (
	TableDirectories  = "directories"
	TableArtifacts    = "governance_artifacts"
	TableDependencies = "directory_dependencies"
	TableChanges      = "inventory_changes"
)

// column types that differ between dialects
type ddlTypes struct {
	key    string // indexed text
	serial string // auto-increment primary key
	text   string
	real   string
	ts     string
}

func typesFor(d filter.Dialect) ddlTypes {
	switch d {
	case filter.Postgres:
		return ddlTypes{key: "TEXT", serial: "BIGSERIAL PRIMARY KEY", text: "TEXT", real: "DOUBLE PRECISION", ts: "TEXT"}
	case filter.MySQL:
		return ddlTypes{key: "VARCHAR(700)", serial: "BIGINT AUTO_INCREMENT PRIMARY KEY", text: "TEXT", real: "DOUBLE", ts: "VARCHAR(40)"}
	default:
		return ddlTypes{key: "TEXT", serial: "INTEGER PRIMARY KEY AUTOINCREMENT", text: "TEXT", real: "REAL", ts: "TEXT"}
	}
}

func schemaStatements(d filter.Dialect) []string {
	t := typesFor(d)
	r := strings.NewReplacer("{key}", t.key, "{serial}", t.serial, "{text}", t.text, "{real}", t.real, "{ts}", t.ts)
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS directories (
			path {key} PRIMARY KEY,
			parent_path {key},
			name {text},
			last_modified {ts},
			governance_score INTEGER DEFAULT 0,
			project_type {key},
			activity_level {key},
			risk_level {key} DEFAULT 'unknown',
			dependencies {text},
			metadata {text},
			last_analyzed {ts},
			governance_artifacts_count INTEGER DEFAULT 0,
			primary_governance_type {key},
			governance_confidence_avg {real} DEFAULT 0,
			project_confidence {real},
			project_reasoning {text},
			created_at {ts}
		)`,
		`CREATE INDEX idx_directories_parent ON directories(parent_path)`,
		`CREATE INDEX idx_directories_score ON directories(governance_score)`,
		`CREATE TABLE IF NOT EXISTS governance_artifacts (
			id {serial},
			path {key} NOT NULL UNIQUE,
			filename {key},
			directory_path {key},
			file_size INTEGER DEFAULT 0,
			last_modified {ts},
			file_hash {text},
			primary_classification {key},
			all_classifications {text},
			confidence_scores {text},
			confidence_level {key},
			special_handling {text},
			content_summary {text},
			last_analyzed {ts},
			created_at {ts}
		)`,
		`CREATE INDEX idx_artifacts_directory ON governance_artifacts(directory_path)`,
		`CREATE INDEX idx_artifacts_classification ON governance_artifacts(primary_classification)`,
		`CREATE TABLE IF NOT EXISTS directory_dependencies (
			id {serial},
			source_path {key} NOT NULL,
			target_path {key} NOT NULL,
			dependency_type {key},
			strength INTEGER DEFAULT 1,
			last_verified {ts},
			created_at {ts}
		)`,
		`CREATE INDEX idx_dependencies_source ON directory_dependencies(source_path)`,
		`CREATE INDEX idx_dependencies_target ON directory_dependencies(target_path)`,
		`CREATE TABLE IF NOT EXISTS inventory_changes (
			id {serial},
			path {key} NOT NULL,
			change_type {key},
			old_values {text},
			new_values {text},
			timestamp {ts},
			trigger_source {key},
			session_id {key}
		)`,
		`CREATE INDEX idx_changes_timestamp ON inventory_changes(timestamp)`,
	}
	for i, s := range stmts {
		stmts[i] = r.Replace(s)
	}
	return stmts
}

// EnsureSchema creates the inventory tables on an empty database and records
// the schema version. The engine itself never calls it; it backs
// `govinv init-store` and test fixtures.
func EnsureSchema(ctx context.Context, db *sql.DB, d filter.Dialect) error {
	var existing int
	err := db.QueryRowContext(ctx, "SELECT version FROM schema_version").Scan(&existing)
	if err == nil {
		if existing != SchemaVersion {
			return fmt.Errorf("unsupported schema version %d (want %d)", existing, SchemaVersion)
		}
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements(d) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	placeholder := "?"
	if d == filter.Postgres {
		placeholder = "$1"
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES ("+placeholder+")", SchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// OpenWritable opens a sqlite file for schema setup, creating it if needed.
func OpenWritable(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path, true))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
