package impact

import (
	"fmt"

	"govinv/internal/model"
)

// Thresholds of the escalation checks.
const (
	HighConfidenceThreshold = 5
	HeavyDirectoryThreshold = 10
)

// Recommendation texts.
const (
	RecRequireApproval    = "High risk operation - require explicit approval"
	RecReviewArtifacts    = "Review all affected governance artifacts before proceeding"
	RecBackupArtifacts    = "Create backup of governance artifacts"
	RecProceedWithCaution = "Medium risk - proceed with caution"
	RecDocumentChanges    = "Document changes to governance artifacts"
	RecVerifyHooks        = "Git hooks detected - verify functionality after changes"

	RecReviewDependencies = "Review dependencies before proceeding"
	RecUpdateManifests    = "Update manifests for affected projects"
	RecVerifyReferences   = "Verify no active references to deleted paths"
)

// importanceFlags mark an artifact whose change is always high risk.
var importanceFlags = []string{model.FlagHighImportance, model.FlagGitHook, model.FlagProjectManifest}

// Escalate raises a level one step. High stays high.
func Escalate(l model.RiskLevel) model.RiskLevel {
	switch l {
	case model.RiskHigh, model.RiskMedium:
		return model.RiskHigh
	default:
		return model.RiskMedium
	}
}

// Raise returns the higher of current and to.
func Raise(current, to model.RiskLevel) model.RiskLevel {
	if to.Rank() > current.Rank() {
		return to
	}
	return current
}

// Max returns the highest level, low when there are none.
func Max(levels ...model.RiskLevel) model.RiskLevel {
	out := model.RiskLow
	for _, l := range levels {
		out = Raise(out, l)
	}
	return out
}

// Evaluation is the outcome of the escalation checks for one path.
type Evaluation struct {
	Level          model.RiskLevel
	Factors        []string
	HighImportance int
	HighConfidence int
	HasGitHook     bool
	// Trail holds the level after each check, in order.
	Trail []model.RiskLevel
}

// Evaluate runs the escalation checks over the matched artifacts and
// directories. The result does not depend on the order of either slice.
func Evaluate(artifacts []model.Artifact, dirs []model.Directory) Evaluation {
	e := Evaluation{Level: model.RiskLow, Factors: []string{}}

	for _, a := range artifacts {
		if a.SpecialHandling.HasAny(importanceFlags...) {
			e.HighImportance++
		}
		if a.SpecialHandling.Has(model.FlagGitHook) {
			e.HasGitHook = true
		}
		if a.ConfidenceLevel == model.ConfidenceHigh {
			e.HighConfidence++
		}
	}

	if e.HighImportance > 0 {
		e.Level = Raise(e.Level, model.RiskHigh)
		e.Factors = append(e.Factors, fmt.Sprintf("%d high-importance governance artifacts affected", e.HighImportance))
	}
	e.Trail = append(e.Trail, e.Level)

	if e.HighConfidence > HighConfidenceThreshold {
		e.Level = Escalate(e.Level)
		e.Factors = append(e.Factors, fmt.Sprintf("%d high-confidence governance artifacts affected", e.HighConfidence))
	}
	e.Trail = append(e.Trail, e.Level)

	if heavy := heaviestDirectory(dirs); heavy != nil && heavy.GovernanceArtifactsCount > HeavyDirectoryThreshold {
		e.Level = Escalate(e.Level)
		e.Factors = append(e.Factors, fmt.Sprintf("Directory %s has %d governance artifacts", heavy.Path, heavy.GovernanceArtifactsCount))
	}
	e.Trail = append(e.Trail, e.Level)

	return e
}

func heaviestDirectory(dirs []model.Directory) *model.Directory {
	var best *model.Directory
	for i := range dirs {
		d := &dirs[i]
		if best == nil || d.GovernanceArtifactsCount > best.GovernanceArtifactsCount ||
			(d.GovernanceArtifactsCount == best.GovernanceArtifactsCount && d.Path < best.Path) {
			best = d
		}
	}
	return best
}

// Recommendations maps a final level to advice. A git hook always adds the
// verification step.
func Recommendations(level model.RiskLevel, hasGitHook bool) []string {
	recs := []string{}
	switch level {
	case model.RiskHigh:
		recs = append(recs, RecRequireApproval, RecReviewArtifacts, RecBackupArtifacts)
	case model.RiskMedium:
		recs = append(recs, RecProceedWithCaution, RecDocumentChanges)
	}
	if hasGitHook {
		recs = append(recs, RecVerifyHooks)
	}
	return recs
}

// DependencyRecommendations advises on the dependency view of a path.
func DependencyRecommendations(v *DependencyView, change model.ChangeType) []string {
	if v == nil {
		return nil
	}
	var recs []string
	if v.StoredRiskLevel == model.RiskHigh || v.Count > 3 {
		recs = append(recs, RecReviewDependencies, RecUpdateManifests)
	}
	if change == model.ChangeDelete && v.Incoming > 0 {
		recs = append(recs, RecVerifyReferences)
	}
	return recs
}
