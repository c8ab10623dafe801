package impact

import (
	"fmt"
	"math/rand"
	"testing"

	"govinv/internal/model"
)

func TestEscalate(t *testing.T) {
	tests := []struct {
		in, want model.RiskLevel
	}{
		{model.RiskLow, model.RiskMedium},
		{model.RiskUnknown, model.RiskMedium},
		{model.RiskMedium, model.RiskHigh},
		{model.RiskHigh, model.RiskHigh},
	}
	for _, tt := range tests {
		if got := Escalate(tt.in); got != tt.want {
			t.Errorf("Escalate(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMax(t *testing.T) {
	tests := []struct {
		levels []model.RiskLevel
		want   model.RiskLevel
	}{
		{nil, model.RiskLow},
		{[]model.RiskLevel{model.RiskLow, model.RiskMedium, model.RiskLow}, model.RiskMedium},
		{[]model.RiskLevel{model.RiskMedium, model.RiskHigh}, model.RiskHigh},
		{[]model.RiskLevel{model.RiskLow, model.RiskLow}, model.RiskLow},
	}
	for _, tt := range tests {
		if got := Max(tt.levels...); got != tt.want {
			t.Errorf("Max(%v) = %s, want %s", tt.levels, got, tt.want)
		}
	}
}

func artifact(level model.ConfidenceLevel, flags ...string) model.Artifact {
	return model.Artifact{ConfidenceLevel: level, SpecialHandling: model.NewFlags(flags...)}
}

func highConfidence(n int) []model.Artifact {
	out := make([]model.Artifact, n)
	for i := range out {
		out[i] = artifact(model.ConfidenceHigh)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	heavy := []model.Directory{{Path: "/repo/policies", GovernanceArtifactsCount: 12}}
	light := []model.Directory{{Path: "/repo/docs", GovernanceArtifactsCount: 2}}

	tests := []struct {
		name        string
		artifacts   []model.Artifact
		dirs        []model.Directory
		want        model.RiskLevel
		wantFactors int
	}{
		{"nothing matched", nil, nil, model.RiskLow, 0},
		{"flagged artifact", []model.Artifact{artifact(model.ConfidenceLow, "project_manifest")}, nil, model.RiskHigh, 1},
		{"config flag alone is not important", []model.Artifact{artifact(model.ConfidenceLow, "config_file")}, nil, model.RiskLow, 0},
		{"five high confidence stays low", highConfidence(5), light, model.RiskLow, 0},
		{"six high confidence", highConfidence(6), light, model.RiskMedium, 1},
		{"heavy directory", nil, heavy, model.RiskMedium, 1},
		{"confidence and heavy directory", highConfidence(6), heavy, model.RiskHigh, 2},
		{"flagged and heavy keeps high", []model.Artifact{artifact(model.ConfidenceHigh, "git_hook")}, heavy, model.RiskHigh, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.artifacts, tt.dirs)
			if got.Level != tt.want {
				t.Errorf("Level = %s, want %s (factors %v)", got.Level, tt.want, got.Factors)
			}
			if len(got.Factors) != tt.wantFactors {
				t.Errorf("Factors = %v, want %d", got.Factors, tt.wantFactors)
			}
		})
	}
}

func TestEvaluate_MonotonicAndOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	levels := []model.ConfidenceLevel{model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow, model.ConfidenceNone}
	flagSets := [][]string{nil, nil, nil, {"git_hook"}, {"config_file"}, {"high_importance"}}

	for trial := 0; trial < 200; trial++ {
		var artifacts []model.Artifact
		for i := rng.Intn(12); i > 0; i-- {
			artifacts = append(artifacts, artifact(levels[rng.Intn(len(levels))], flagSets[rng.Intn(len(flagSets))]...))
		}
		var dirs []model.Directory
		for i := rng.Intn(4); i > 0; i-- {
			dirs = append(dirs, model.Directory{Path: fmt.Sprintf("/d%d", i), GovernanceArtifactsCount: rng.Intn(20)})
		}

		base := Evaluate(artifacts, dirs)
		for i := 1; i < len(base.Trail); i++ {
			if base.Trail[i].Rank() < base.Trail[i-1].Rank() {
				t.Fatalf("trial %d: trail %v decreases", trial, base.Trail)
			}
		}

		rng.Shuffle(len(artifacts), func(i, j int) { artifacts[i], artifacts[j] = artifacts[j], artifacts[i] })
		rng.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })
		shuffled := Evaluate(artifacts, dirs)
		if shuffled.Level != base.Level || fmt.Sprint(shuffled.Factors) != fmt.Sprint(base.Factors) {
			t.Fatalf("trial %d: order changed result %s %v -> %s %v", trial, base.Level, base.Factors, shuffled.Level, shuffled.Factors)
		}
	}
}

func TestRecommendations(t *testing.T) {
	tests := []struct {
		level model.RiskLevel
		hook  bool
		want  []string
	}{
		{model.RiskHigh, false, []string{RecRequireApproval, RecReviewArtifacts, RecBackupArtifacts}},
		{model.RiskMedium, false, []string{RecProceedWithCaution, RecDocumentChanges}},
		{model.RiskLow, false, []string{}},
		{model.RiskLow, true, []string{RecVerifyHooks}},
		{model.RiskHigh, true, []string{RecRequireApproval, RecReviewArtifacts, RecBackupArtifacts, RecVerifyHooks}},
	}
	for _, tt := range tests {
		got := Recommendations(tt.level, tt.hook)
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("Recommendations(%s, %v) = %v, want %v", tt.level, tt.hook, got, tt.want)
		}
	}
}

func TestDependencyRecommendations(t *testing.T) {
	tests := []struct {
		name   string
		view   *DependencyView
		change model.ChangeType
		want   []string
	}{
		{"nil", nil, model.ChangeModify, nil},
		{"quiet", &DependencyView{StoredRiskLevel: model.RiskLow, Count: 1}, model.ChangeModify, nil},
		{"stored high", &DependencyView{StoredRiskLevel: model.RiskHigh}, model.ChangeModify, []string{RecReviewDependencies, RecUpdateManifests}},
		{"many edges", &DependencyView{Count: 4}, model.ChangeMove, []string{RecReviewDependencies, RecUpdateManifests}},
		{"delete referenced", &DependencyView{Count: 1, Incoming: 1}, model.ChangeDelete, []string{RecVerifyReferences}},
		{"delete unreferenced", &DependencyView{Count: 1, Outgoing: 1}, model.ChangeDelete, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DependencyRecommendations(tt.view, tt.change)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("DependencyRecommendations() = %v, want %v", got, tt.want)
			}
		})
	}
}
