// Package testutil builds throwaway inventory databases for tests.
package testutil

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"govinv/internal/filter"
	"govinv/internal/paths"
	"govinv/internal/slogutil"
	"govinv/internal/storage"
)

// BaseTime is the default lastModified of fixture rows.
var BaseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// Directory describes a directories row. Empty Name and Parent are derived
// from Path.
type Directory struct {
	Path              string
	Name              string
	Parent            string
	ArtifactCount     int
	PrimaryType       string
	ConfidenceAvg     float64
	ProjectType       string
	ProjectConfidence *float64
	Reasoning         []string
	RawReasoning      string
	Score             int
	Activity          string
	Risk              string
	Modified          time.Time
}

// Artifact describes a governance_artifacts row. Raw* fields, when set, are
// written verbatim in place of the encoded collections.
type Artifact struct {
	Path            string
	Dir             string
	Primary         string
	Classifications []string
	Level           string
	Scores          map[string]float64
	Flags           []string
	Summary         string
	Modified        time.Time
	Size            int64
	RawScores       string
	RawFlags        string
}

// Dependency describes a directory_dependencies row.
type Dependency struct {
	Source   string
	Target   string
	Kind     string
	Strength int
}

// Change describes an inventory_changes row.
type Change struct {
	Path      string
	Type      string
	Timestamp time.Time
	Source    string
}

// Inventory is the full content of a fixture database.
type Inventory struct {
	Directories  []Directory
	Artifacts    []Artifact
	Dependencies []Dependency
	Changes      []Change
}

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// NewStore writes inv to a fresh SQLite file and returns a read-only store
// over it. The store is closed when the test ends.
func NewStore(t testing.TB, inv Inventory) *storage.Store {
	t.Helper()
	dbPath := WriteDB(t, inv)

	st, err := storage.Open(context.Background(), storage.Options{
		Driver:       "sqlite",
		Path:         dbPath,
		MaxOpenConns: 2,
		QueryTimeout: 5 * time.Second,
	}, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("open fixture store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// WriteDB creates the fixture database file and returns its path.
func WriteDB(t testing.TB, inv Inventory) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "inventory.db")
	ctx := context.Background()

	db, err := storage.OpenWritable(dbPath)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := storage.EnsureSchema(ctx, db, filter.SQLite); err != nil {
		t.Fatalf("create fixture schema: %v", err)
	}

	for _, d := range inv.Directories {
		name := d.Name
		if name == "" {
			name = filepath.Base(d.Path)
		}
		parent := d.Parent
		if parent == "" {
			parent = paths.Parent(d.Path)
		}
		reasoning := d.RawReasoning
		if reasoning == "" && d.Reasoning != nil {
			reasoning = mustJSON(t, d.Reasoning)
		}
		risk := d.Risk
		if risk == "" {
			risk = "unknown"
		}
		_, err := db.ExecContext(ctx, `INSERT INTO directories (
			path, parent_path, name, last_modified, governance_score, project_type, activity_level,
			risk_level, governance_artifacts_count, primary_governance_type, governance_confidence_avg,
			project_confidence, project_reasoning
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.Path, nullable(parent), name, stamp(d.Modified), d.Score, nullable(d.ProjectType),
			nullable(d.Activity), risk, d.ArtifactCount, nullable(d.PrimaryType), d.ConfidenceAvg,
			nullableFloat(d.ProjectConfidence), nullable(reasoning))
		if err != nil {
			t.Fatalf("insert directory %s: %v", d.Path, err)
		}
	}

	for _, a := range inv.Artifacts {
		dir := a.Dir
		if dir == "" {
			dir = paths.Parent(a.Path)
		}
		classes := a.Classifications
		if classes == nil && a.Primary != "" {
			classes = []string{a.Primary}
		}
		scores := a.RawScores
		if scores == "" && a.Scores != nil {
			scores = mustJSON(t, a.Scores)
		}
		flags := a.RawFlags
		if flags == "" && len(a.Flags) > 0 {
			set := make(map[string]bool, len(a.Flags))
			for _, f := range a.Flags {
				set[f] = true
			}
			flags = mustJSON(t, set)
		}
		_, err := db.ExecContext(ctx, `INSERT INTO governance_artifacts (
			path, filename, directory_path, file_size, last_modified, primary_classification,
			all_classifications, confidence_scores, confidence_level, special_handling, content_summary
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.Path, filepath.Base(a.Path), dir, a.Size, stamp(a.Modified), nullable(a.Primary),
			mustJSON(t, classes), nullable(scores), nullable(a.Level), nullable(flags), nullable(a.Summary))
		if err != nil {
			t.Fatalf("insert artifact %s: %v", a.Path, err)
		}
	}

	for _, d := range inv.Dependencies {
		kind := d.Kind
		if kind == "" {
			kind = "import"
		}
		strength := d.Strength
		if strength == 0 {
			strength = 1
		}
		_, err := db.ExecContext(ctx, `INSERT INTO directory_dependencies
			(source_path, target_path, dependency_type, strength, last_verified) VALUES (?, ?, ?, ?, ?)`,
			d.Source, d.Target, kind, strength, stamp(time.Time{}))
		if err != nil {
			t.Fatalf("insert dependency %s -> %s: %v", d.Source, d.Target, err)
		}
	}

	for _, c := range inv.Changes {
		_, err := db.ExecContext(ctx, `INSERT INTO inventory_changes
			(path, change_type, timestamp, trigger_source) VALUES (?, ?, ?, ?)`,
			c.Path, c.Type, stamp(c.Timestamp), nullable(c.Source))
		if err != nil {
			t.Fatalf("insert change %s: %v", c.Path, err)
		}
	}
	return dbPath
}

func stamp(t time.Time) string {
	if t.IsZero() {
		t = BaseTime
	}
	return t.UTC().Format(time.RFC3339)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func mustJSON(t testing.TB, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture value: %v", err)
	}
	return string(data)
}
