package impact

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"govinv/internal/errors"
	"govinv/internal/filter"
	"govinv/internal/model"
	"govinv/internal/slogutil"
	"govinv/internal/storage"
	"govinv/internal/testutil"
)

func newAnalyzer(t *testing.T, inv testutil.Inventory) *Analyzer {
	t.Helper()
	return NewAnalyzer(testutil.NewStore(t, inv), slogutil.NewDiscardLogger())
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if strings.Contains(s, want) {
			return true
		}
	}
	return false
}

func TestAnalyzeGovernance_HighImportanceDelete(t *testing.T) {
	a := newAnalyzer(t, testutil.Inventory{
		Directories: []testutil.Directory{
			{Path: "/repo/app", ArtifactCount: 3},
			{Path: "/repo/app/internal"},
			{Path: "/repo/app/internal/db"},
			{Path: "/repo/application"},
		},
		Artifacts: []testutil.Artifact{
			{Path: "/repo/app/POLICY.md", Scores: map[string]float64{"policy": 0.9}, Flags: []string{"high_importance"}},
		},
	})

	report, err := a.AnalyzeGovernance(context.Background(), []string{"/repo/app"}, "delete")
	if err != nil {
		t.Fatalf("AnalyzeGovernance() error = %v", err)
	}
	as := report.Assessments[0]
	if as.RiskLevel != model.RiskHigh {
		t.Errorf("RiskLevel = %s, want high", as.RiskLevel)
	}
	if !contains(as.RiskFactors, "high-importance") {
		t.Errorf("RiskFactors = %v, want high-importance factor", as.RiskFactors)
	}
	if !contains(as.Recommendations, "require explicit approval") {
		t.Errorf("Recommendations = %v", as.Recommendations)
	}
	if fmt.Sprint(as.AffectedChildren) != "[/repo/app/internal /repo/app/internal/db]" {
		t.Errorf("AffectedChildren = %v", as.AffectedChildren)
	}
	if as.HighImportanceCount != 1 || as.AffectedArtifactCount != 1 || as.AffectedDirectoryCount != 1 {
		t.Errorf("counts = %+v", as)
	}
	if report.OverallRisk != model.RiskHigh {
		t.Errorf("OverallRisk = %s, want high", report.OverallRisk)
	}
}

func TestAnalyzeGovernance_ConfidenceCountOnlyEscalatesToMedium(t *testing.T) {
	inv := testutil.Inventory{
		Directories: []testutil.Directory{{Path: "/repo/docs", ArtifactCount: 2}},
	}
	for i := 0; i < 6; i++ {
		inv.Artifacts = append(inv.Artifacts, testutil.Artifact{
			Path:   fmt.Sprintf("/repo/docs/guide-%d.md", i),
			Scores: map[string]float64{"documentation": 0.92},
			Level:  "high",
		})
	}
	a := newAnalyzer(t, inv)

	report, err := a.AnalyzeGovernance(context.Background(), []string{"/repo/docs"}, "modify")
	if err != nil {
		t.Fatalf("AnalyzeGovernance() error = %v", err)
	}
	as := report.Assessments[0]
	if as.RiskLevel != model.RiskMedium {
		t.Errorf("RiskLevel = %s, want medium (factors %v)", as.RiskLevel, as.RiskFactors)
	}
	if as.HighConfidenceCount != 6 {
		t.Errorf("HighConfidenceCount = %d, want 6", as.HighConfidenceCount)
	}
	if as.AffectedChildren != nil {
		t.Errorf("AffectedChildren = %v, want none for modify", as.AffectedChildren)
	}
	if fmt.Sprint(as.Recommendations) != fmt.Sprint([]string{RecProceedWithCaution, RecDocumentChanges}) {
		t.Errorf("Recommendations = %v", as.Recommendations)
	}
}

func TestAnalyzeGovernance_OverallRiskIsMax(t *testing.T) {
	a := newAnalyzer(t, testutil.Inventory{
		Directories: []testutil.Directory{
			{Path: "/a"},
			{Path: "/b", ArtifactCount: 11},
			{Path: "/c"},
		},
	})
	report, err := a.AnalyzeGovernance(context.Background(), []string{"/a", "/b", "/c"}, "move")
	if err != nil {
		t.Fatalf("AnalyzeGovernance() error = %v", err)
	}
	var got []model.RiskLevel
	for _, as := range report.Assessments {
		got = append(got, as.RiskLevel)
	}
	if fmt.Sprint(got) != "[low medium low]" || report.OverallRisk != model.RiskMedium {
		t.Errorf("levels = %v overall = %s, want [low medium low] medium", got, report.OverallRisk)
	}
}

func TestAnalyzeGovernance_GitHookRecommendation(t *testing.T) {
	a := newAnalyzer(t, testutil.Inventory{
		Artifacts: []testutil.Artifact{{Path: "/repo/.githooks/pre-push", Level: "low", Flags: []string{"git_hook"}}},
	})
	report, err := a.AnalyzeGovernance(context.Background(), []string{"/repo/.githooks"}, "modify")
	if err != nil {
		t.Fatalf("AnalyzeGovernance() error = %v", err)
	}
	if !contains(report.Assessments[0].Recommendations, "verify functionality") {
		t.Errorf("Recommendations = %v", report.Assessments[0].Recommendations)
	}
}

// countingQuerier records how many reads were issued.
type countingQuerier struct{ calls int }

func (c *countingQuerier) Query(context.Context, filter.Query) ([]storage.Row, error) {
	c.calls++
	return nil, nil
}

func (c *countingQuerier) Count(context.Context, filter.Count) (int, error) {
	c.calls++
	return 0, nil
}

func TestAnalyze_RejectsBeforeQuerying(t *testing.T) {
	q := &countingQuerier{}
	a := NewAnalyzer(q, slogutil.NewDiscardLogger())
	tests := []struct {
		name   string
		paths  []string
		change string
	}{
		{"unknown change type", []string{"/repo"}, "rename"},
		{"missing change type", []string{"/repo"}, ""},
		{"no paths", nil, "delete"},
		{"blank path", []string{"/repo", " "}, "delete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.AnalyzeImpact(context.Background(), tt.paths, tt.change)
			if errors.CodeOf(err) != errors.InvalidArgument {
				t.Errorf("code = %v, want INVALID_ARGUMENT", errors.CodeOf(err))
			}
		})
	}
	if q.calls != 0 {
		t.Errorf("store queried %d times, want 0", q.calls)
	}
}

func TestAnalyzeImpact_DependencyView(t *testing.T) {
	a := newAnalyzer(t, testutil.Inventory{
		Directories: []testutil.Directory{
			{Path: "/repo/lib", Risk: "medium", Score: 40},
			{Path: "/repo/app"},
		},
		Dependencies: []testutil.Dependency{
			{Source: "/repo/app", Target: "/repo/lib"},
			{Source: "/repo/app", Target: "/repo/lib"},
			{Source: "/repo/web", Target: "/repo/lib"},
			{Source: "/repo/lib", Target: "/repo/vendor"},
		},
	})

	report, err := a.AnalyzeImpact(context.Background(), []string{"/repo/lib"}, "delete")
	if err != nil {
		t.Fatalf("AnalyzeImpact() error = %v", err)
	}
	as := report.Assessments[0]
	v := as.Dependencies
	if v == nil || !v.ExistsInInventory {
		t.Fatalf("Dependencies = %+v", v)
	}
	if v.Count != 4 || v.Incoming != 3 || v.Outgoing != 1 {
		t.Errorf("edges = %d in=%d out=%d, want 4/3/1", v.Count, v.Incoming, v.Outgoing)
	}
	if v.StoredRiskLevel != model.RiskMedium || v.GovernanceScore != 40 {
		t.Errorf("stored = %s score %d", v.StoredRiskLevel, v.GovernanceScore)
	}
	if as.RiskLevel != model.RiskLow {
		t.Errorf("RiskLevel = %s, want low (dependencies never change it)", as.RiskLevel)
	}
	want := []string{RecReviewDependencies, RecUpdateManifests, RecVerifyReferences}
	if fmt.Sprint(as.Recommendations) != fmt.Sprint(want) {
		t.Errorf("Recommendations = %v, want %v", as.Recommendations, want)
	}
}

func TestAnalyzeImpact_UnknownPath(t *testing.T) {
	a := newAnalyzer(t, testutil.Inventory{})
	report, err := a.AnalyzeImpact(context.Background(), []string{"/nowhere"}, "create")
	if err != nil {
		t.Fatalf("AnalyzeImpact() error = %v", err)
	}
	v := report.Assessments[0].Dependencies
	if v.ExistsInInventory || v.StoredRiskLevel != model.RiskUnknown || v.Count != 0 {
		t.Errorf("Dependencies = %+v", v)
	}
	if report.OverallRisk != model.RiskLow {
		t.Errorf("OverallRisk = %s, want low", report.OverallRisk)
	}
}
