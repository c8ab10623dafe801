package impact_test

import (
	"fmt"

	"govinv/internal/impact"
	"govinv/internal/model"
)

func ExampleEvaluate() {
	artifacts := []model.Artifact{
		{Path: "/repo/.git/hooks/pre-commit", ConfidenceLevel: model.ConfidenceHigh, SpecialHandling: model.NewFlags("git_hook")},
		{Path: "/repo/README.md", ConfidenceLevel: model.ConfidenceLow},
	}
	dirs := []model.Directory{{Path: "/repo", GovernanceArtifactsCount: 14}}

	eval := impact.Evaluate(artifacts, dirs)
	fmt.Println(eval.Level)
	for _, f := range eval.Factors {
		fmt.Println(f)
	}
	for _, r := range impact.Recommendations(eval.Level, eval.HasGitHook) {
		fmt.Println(r)
	}
	// Output:
	// high
	// 1 high-importance governance artifacts affected
	// Directory /repo has 14 governance artifacts
	// High risk operation - require explicit approval
	// Review all affected governance artifacts before proceeding
	// Create backup of governance artifacts
	// Git hooks detected - verify functionality after changes
}

func ExampleMax() {
	fmt.Println(impact.Max(model.RiskLow, model.RiskMedium, model.RiskLow))
	// Output: medium
}
