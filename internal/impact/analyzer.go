package impact

import (
	"context"
	"log/slog"
	"strings"

	"govinv/internal/errors"
	"govinv/internal/filter"
	"govinv/internal/governance"
	"govinv/internal/inventory"
	"govinv/internal/model"
	"govinv/internal/paths"
	"govinv/internal/storage"
)

// Analyzer evaluates proposed changes against the inventory.
type Analyzer struct {
	store  storage.Querier
	gov    *governance.Service
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer over store.
func NewAnalyzer(store storage.Querier, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		store:  store,
		gov:    governance.NewService(store, logger),
		logger: logger,
	}
}

// AnalyzeGovernance assesses each path against governance artifacts.
func (a *Analyzer) AnalyzeGovernance(ctx context.Context, targets []string, changeType string) (*Report, error) {
	return a.analyze(ctx, "paths", targets, changeType, false)
}

// AnalyzeImpact is AnalyzeGovernance plus the dependency view of each path.
func (a *Analyzer) AnalyzeImpact(ctx context.Context, targets []string, changeType string) (*Report, error) {
	return a.analyze(ctx, "targetPaths", targets, changeType, true)
}

func (a *Analyzer) analyze(ctx context.Context, field string, targets []string, changeType string, withDeps bool) (*Report, error) {
	change, err := model.ParseChangeType("changeType", changeType)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, errors.NewInvalidArgument(field, "at least one path is required")
	}
	normalized := make([]string, len(targets))
	for i, t := range targets {
		if normalized[i] = paths.Normalize(t); normalized[i] == "" {
			return nil, errors.NewInvalidArgument(field, "paths must not be empty")
		}
	}

	report := &Report{
		ChangeType:  change,
		TargetPaths: normalized,
		Assessments: make([]Assessment, 0, len(normalized)),
	}
	levels := make([]model.RiskLevel, 0, len(normalized))
	for _, p := range normalized {
		as, err := a.assess(ctx, p, change, withDeps)
		if err != nil {
			return nil, err
		}
		report.Assessments = append(report.Assessments, *as)
		levels = append(levels, as.RiskLevel)
	}
	report.OverallRisk = Max(levels...)

	a.logger.Debug("Impact analyzed",
		"changeType", string(change),
		"paths", len(normalized),
		"overallRisk", string(report.OverallRisk),
	)
	return report, nil
}

func (a *Analyzer) assess(ctx context.Context, p string, change model.ChangeType, withDeps bool) (*Assessment, error) {
	artifacts, err := a.gov.FindArtifacts(ctx, governance.ArtifactScope(p))
	if err != nil {
		return nil, err
	}

	dirRows, err := a.store.Query(ctx, filter.Select{
		From:    storage.TableDirectories,
		Columns: model.DirectoryColumns,
		Where: filter.All(
			filter.Contains{Column: "path", Substring: p},
			filter.Gt{Column: "governance_artifacts_count", Value: 0},
		),
		OrderBy: []filter.Order{filter.Desc("governance_artifacts_count"), filter.Asc("path")},
	})
	if err != nil {
		return nil, err
	}
	dirs := model.DirectoriesFromRows(dirRows, a.logger)

	eval := Evaluate(artifacts, dirs)
	as := &Assessment{
		Path:                   p,
		ChangeType:             change,
		RiskLevel:              eval.Level,
		RiskFactors:            eval.Factors,
		AffectedArtifactCount:  len(artifacts),
		AffectedDirectoryCount: len(dirs),
		HighImportanceCount:    eval.HighImportance,
		HighConfidenceCount:    eval.HighConfidence,
		Recommendations:        Recommendations(eval.Level, eval.HasGitHook),
	}

	if change == model.ChangeDelete {
		if as.AffectedChildren, err = a.subtree(ctx, p); err != nil {
			return nil, err
		}
	}

	if withDeps {
		view, err := a.dependencyView(ctx, p)
		if err != nil {
			return nil, err
		}
		as.Dependencies = view
		as.Recommendations = append(as.Recommendations, DependencyRecommendations(view, change)...)
	}
	return as, nil
}

// subtree lists every inventoried directory strictly below p.
func (a *Analyzer) subtree(ctx context.Context, p string) ([]string, error) {
	prefix := strings.TrimSuffix(p, "/") + "/"
	rows, err := a.store.Query(ctx, filter.Select{
		From:    storage.TableDirectories,
		Columns: []string{"path"},
		Where: filter.All(
			filter.HasPrefix{Column: "path", Prefix: prefix},
			filter.NotEq{Column: "path", Value: p},
		),
		OrderBy: []filter.Order{filter.Asc("path")},
	})
	if err != nil {
		return nil, err
	}
	children := make([]string, 0, len(rows))
	for _, r := range rows {
		children = append(children, r.String("path"))
	}
	return children, nil
}

func (a *Analyzer) dependencyView(ctx context.Context, p string) (*DependencyView, error) {
	rows, err := a.store.Query(ctx, filter.Select{
		From:    storage.TableDirectories,
		Columns: model.DirectoryColumns,
		Where:   filter.Eq{Column: "path", Value: p},
	})
	if err != nil {
		return nil, err
	}
	edges, _, err := inventory.DependencyEdges(ctx, a.store, p, inventory.Both)
	if err != nil {
		return nil, err
	}

	view := &DependencyView{StoredRiskLevel: model.RiskUnknown, Edges: edges, Count: len(edges)}
	if len(rows) > 0 {
		d := model.DirectoryFromRow(rows[0], a.logger)
		view.ExistsInInventory = true
		view.StoredRiskLevel = d.RiskLevel
		view.GovernanceScore = d.GovernanceScore
	}
	for _, e := range edges {
		if e.TargetPath == p {
			view.Incoming++
		}
		if e.SourcePath == p {
			view.Outgoing++
		}
	}
	return view, nil
}
