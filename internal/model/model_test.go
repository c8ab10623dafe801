package model

import (
	"encoding/json"
	"testing"
	"time"

	"govinv/internal/errors"
	"govinv/internal/slogutil"
	"govinv/internal/storage"
)

func TestLevelFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  ConfidenceLevel
	}{
		{1.0, ConfidenceHigh},
		{0.8, ConfidenceHigh},
		{0.79, ConfidenceMedium},
		{0.5, ConfidenceMedium},
		{0.49, ConfidenceLow},
		{0.2, ConfidenceLow},
		{0.19, ConfidenceNone},
		{0, ConfidenceNone},
	}
	for _, tt := range tests {
		if got := LevelFromScore(tt.score); got != tt.want {
			t.Errorf("LevelFromScore(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestConfidenceLevelOrdering(t *testing.T) {
	if !ConfidenceHigh.AtLeast(ConfidenceMedium) {
		t.Error("high should be at least medium")
	}
	if ConfidenceLow.AtLeast(ConfidenceMedium) {
		t.Error("low should not be at least medium")
	}
	if ConfidenceLevel("bogus").Rank() != -1 {
		t.Error("unknown level should rank -1")
	}
}

func TestParseEnums(t *testing.T) {
	if _, err := ParseConfidenceLevel("confidenceMin", "HIGH"); err != nil {
		t.Errorf("ParseConfidenceLevel(HIGH) error = %v", err)
	}
	if _, err := ParseConfidenceLevel("confidenceMin", "extreme"); errors.CodeOf(err) != errors.InvalidArgument {
		t.Errorf("ParseConfidenceLevel(extreme) code = %v", errors.CodeOf(err))
	}
	for _, c := range []string{"create", "modify", "delete", "move"} {
		if _, err := ParseChangeType("changeType", c); err != nil {
			t.Errorf("ParseChangeType(%q) error = %v", c, err)
		}
	}
	for _, c := range []string{"", "rename", "DELETE"} {
		if _, err := ParseChangeType("changeType", c); errors.CodeOf(err) != errors.InvalidArgument {
			t.Errorf("ParseChangeType(%q) code = %v, want INVALID_ARGUMENT", c, errors.CodeOf(err))
		}
	}
	if _, err := ParseClassifiedProjectType("projectTypeFilter", "unknown"); err == nil {
		t.Error("ParseClassifiedProjectType(unknown) should fail")
	}
	if p, err := ParseProjectType("projectType", "revenue_stream"); err != nil || p != ProjectRevenueStream {
		t.Errorf("ParseProjectType = %v, %v", p, err)
	}
}

func TestProjectConfidenceBucket(t *testing.T) {
	tests := map[float64]string{0.95: "high", 0.6: "medium", 0.3: "low", 0.1: "very_low"}
	for c, want := range tests {
		if got := ProjectConfidenceBucket(c); got != want {
			t.Errorf("ProjectConfidenceBucket(%v) = %q, want %q", c, got, want)
		}
	}
}

func TestDirectoryFromRow_ProjectConfidenceInvariant(t *testing.T) {
	logger := slogutil.NewDiscardLogger()
	tests := []struct {
		name     string
		row      storage.Row
		wantType bool
		wantConf *float64
	}{
		{"null type drops confidence", storage.Row{"path": "/a", "project_confidence": 0.9}, false, nil},
		{"unknown drops confidence", storage.Row{"path": "/a", "project_type": "unknown", "project_confidence": 0.9}, true, nil},
		{"classified keeps confidence", storage.Row{"path": "/a", "project_type": "experimental", "project_confidence": 0.7}, true, ptr(0.7)},
		{"classified null confidence", storage.Row{"path": "/a", "project_type": "client_delivery"}, true, ptr(0.0)},
		{"unrecognized type becomes unknown", storage.Row{"path": "/a", "project_type": "side_quest", "project_confidence": 0.4}, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DirectoryFromRow(tt.row, logger)
			if (d.ProjectType != nil) != tt.wantType {
				t.Fatalf("ProjectType = %v, want set=%v", d.ProjectType, tt.wantType)
			}
			if (d.ProjectConfidence == nil) != (tt.wantConf == nil) {
				t.Fatalf("ProjectConfidence = %v, want %v", d.ProjectConfidence, tt.wantConf)
			}
			if tt.wantConf != nil && *d.ProjectConfidence != *tt.wantConf {
				t.Errorf("ProjectConfidence = %v, want %v", *d.ProjectConfidence, *tt.wantConf)
			}
			if d.ProjectConfidence != nil && !d.Classified() {
				t.Error("confidence set on unclassified directory")
			}
		})
	}
}

func TestDirectoryFromRow_Reasoning(t *testing.T) {
	d := DirectoryFromRow(storage.Row{
		"path":              "/repo/app",
		"project_reasoning": `["has billing module", 3, "invoices"]`,
		"risk_level":        nil,
		"last_modified":     "2024-05-01 10:00:00",
	}, nil)
	if len(d.ProjectReasoning) != 2 || d.ProjectReasoning[1] != "invoices" {
		t.Errorf("ProjectReasoning = %v", d.ProjectReasoning)
	}
	if d.RiskLevel != RiskUnknown {
		t.Errorf("RiskLevel = %q, want unknown", d.RiskLevel)
	}
	if !d.LastModified.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("LastModified = %v", d.LastModified)
	}

	bad := DirectoryFromRow(storage.Row{"path": "/x", "project_reasoning": "{not json"}, nil)
	if len(bad.ProjectReasoning) != 0 || len(bad.Degraded) != 1 {
		t.Errorf("corrupt reasoning: %v degraded=%v", bad.ProjectReasoning, bad.Degraded)
	}
}

func TestArtifactFromRow_DerivesConfidence(t *testing.T) {
	tests := []struct {
		name         string
		scores       any
		stored       any
		want         ConfidenceLevel
		wantMismatch bool
	}{
		{"scores win", `{"policy": 0.85, "hook": 0.3}`, "medium", ConfidenceHigh, true},
		{"agree", `{"policy": 0.55}`, "medium", ConfidenceMedium, false},
		{"empty scores use stored", `{}`, "low", ConfidenceLow, false},
		{"corrupt scores use stored", `[1,2`, "high", ConfidenceHigh, false},
		{"nothing", nil, nil, ConfidenceNone, false},
		{"non-numeric scores dropped", `{"policy": "very", "manifest": 0.21}`, nil, ConfidenceLow, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ArtifactFromRow(storage.Row{
				"path":              "/repo/POLICY.md",
				"confidence_scores": tt.scores,
				"confidence_level":  tt.stored,
			}, slogutil.NewDiscardLogger())
			if a.ConfidenceLevel != tt.want {
				t.Errorf("ConfidenceLevel = %v, want %v", a.ConfidenceLevel, tt.want)
			}
			if a.ConfidenceMismatch != tt.wantMismatch {
				t.Errorf("ConfidenceMismatch = %v, want %v", a.ConfidenceMismatch, tt.wantMismatch)
			}
		})
	}
}

func TestArtifactFromRow_Classifications(t *testing.T) {
	a := ArtifactFromRow(storage.Row{
		"path":                   "/repo/.git/hooks/pre-commit",
		"primary_classification": "git_hook",
		"all_classifications":    `["automation"]`,
	}, nil)
	if len(a.AllClassifications) != 2 || a.AllClassifications[0] != "git_hook" {
		t.Errorf("AllClassifications = %v, want primary included", a.AllClassifications)
	}
}

func TestArtifactFromRow_SpecialHandling(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     []string
		degraded bool
	}{
		{"object", `{"git_hook": true, "config_file": false, "high_importance": true}`, []string{"git_hook", "high_importance"}, false},
		{"array", `["project_manifest", "git_hook", "git_hook"]`, []string{"git_hook", "project_manifest"}, false},
		{"corrupt", `{"git_hook": tru`, nil, true},
		{"empty", ``, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ArtifactFromRow(storage.Row{"path": "/p", "special_handling": tt.raw}, nil)
			if len(a.SpecialHandling) != len(tt.want) {
				t.Fatalf("SpecialHandling = %v, want %v", a.SpecialHandling, tt.want)
			}
			for i, f := range tt.want {
				if a.SpecialHandling[i] != f {
					t.Errorf("SpecialHandling[%d] = %q, want %q", i, a.SpecialHandling[i], f)
				}
			}
			if (len(a.Degraded) > 0) != tt.degraded {
				t.Errorf("Degraded = %v, want degraded=%v", a.Degraded, tt.degraded)
			}
		})
	}
}

func TestArtifactJSONOmitsDegraded(t *testing.T) {
	a := ArtifactFromRow(storage.Row{"path": "/p", "special_handling": "oops"}, nil)
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["Degraded"]; ok {
		t.Error("Degraded should not be serialized")
	}
	if sh, ok := m["specialHandling"].([]any); !ok || len(sh) != 0 {
		t.Errorf("specialHandling = %v, want empty array", m["specialHandling"])
	}
}

func TestDependenciesFromRows(t *testing.T) {
	rows := []storage.Row{
		{"source_path": "/a", "target_path": "/b", "dependency_type": "import", "strength": int64(3)},
		{"source_path": "/a", "target_path": "/b", "dependency_type": "import", "strength": int64(3)},
		{"source_path": "/c", "target_path": "/c", "dependency_type": "reference"},
	}
	deps, loops := DependenciesFromRows(rows)
	if len(deps) != 2 {
		t.Errorf("len(deps) = %d, want 2 (duplicates kept)", len(deps))
	}
	if loops != 1 {
		t.Errorf("selfLoops = %d, want 1", loops)
	}
}

func TestFlags(t *testing.T) {
	f := NewFlags("b", "a", "", "a")
	if len(f) != 2 || !f.Has("a") || f.Has("c") {
		t.Errorf("NewFlags = %v", f)
	}
	if !f.HasAny("z", "b") {
		t.Error("HasAny should match b")
	}
}

func ptr(f float64) *float64 { return &f }
