package mcp

import (
	"context"

	"govinv/internal/envelope"
	"govinv/internal/errors"
	"govinv/internal/governance"
	"govinv/internal/inventory"
	"govinv/internal/lifecycle"
	"govinv/internal/portfolio"
)

// toolGetInventoryContext implements the get_inventory_context tool
func (s *MCPServer) toolGetInventoryContext(ctx context.Context, params map[string]any) (*envelope.Response, error) {
	args := toolArgs(params)
	p, err := args.str("path")
	if err != nil {
		return nil, err
	}
	res, err := s.svc.Inventory.GetContext(ctx, p)
	if err != nil {
		return nil, err
	}
	return respond(applied("path", res.TargetPath), res), nil
}

// toolAnalyzeImpact implements the analyze_impact tool
func (s *MCPServer) toolAnalyzeImpact(ctx context.Context, params map[string]any) (*envelope.Response, error) {
	args := toolArgs(params)
	targets, err := args.strList("targetPaths")
	if err != nil {
		return nil, err
	}
	change, err := args.str("changeType")
	if err != nil {
		return nil, err
	}
	report, err := s.svc.Impact.AnalyzeImpact(ctx, targets, change)
	if err != nil {
		return nil, err
	}
	return respond(applied("targetPaths", report.TargetPaths, "changeType", string(report.ChangeType)), report), nil
}

// toolGetDependencies implements the get_dependencies tool
func (s *MCPServer) toolGetDependencies(ctx context.Context, params map[string]any) (*envelope.Response, error) {
	args := toolArgs(params)
	p, err := args.str("path")
	if err != nil {
		return nil, err
	}
	direction, err := args.str("direction")
	if err != nil {
		return nil, err
	}
	res, err := s.svc.Inventory.GetDependencies(ctx, p, direction)
	if err != nil {
		return nil, err
	}
	b := envelope.New().
		Query(applied("path", res.TargetPath, "direction", string(res.Direction))).
		Data(res)
	if res.SelfLoopsDropped > 0 {
		b.WarningWithCode("SELF_LOOP", "self-referencing dependency edges were dropped")
	}
	return b.Build(), nil
}

// toolSearchInventory implements the search_inventory tool
func (s *MCPServer) toolSearchInventory(ctx context.Context, params map[string]any) (*envelope.Response, error) {
	args := toolArgs(params)
	var sp inventory.SearchParams
	var err error
	if sp.GovernanceScoreMin, err = args.integer("governanceScoreMin"); err != nil {
		return nil, err
	}
	if sp.ActivityLevel, err = args.str("activityLevel"); err != nil {
		return nil, err
	}
	if sp.ProjectType, err = args.str("projectType"); err != nil {
		return nil, err
	}
	if sp.RiskLevel, err = args.str("riskLevel"); err != nil {
		return nil, err
	}
	limit, err := args.integer("limit")
	if err != nil {
		return nil, err
	}
	if limit != nil {
		sp.Limit = *limit
	}

	res, err := s.svc.Inventory.Search(ctx, sp)
	if err != nil {
		return nil, err
	}
	query := applied(
		"governanceScoreMin", sp.GovernanceScoreMin,
		"activityLevel", sp.ActivityLevel,
		"projectType", sp.ProjectType,
		"riskLevel", sp.RiskLevel,
		"limit", res.Limit,
	)
	return respond(query, res), nil
}

// toolGetInventoryStats implements the get_inventory_stats tool
func (s *MCPServer) toolGetInventoryStats(ctx context.Context, _ map[string]any) (*envelope.Response, error) {
	stats, err := s.svc.Inventory.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	b := envelope.New().Data(stats)
	for _, w := range stats.Warnings {
		b.WarningWithCode("SNAPSHOT_UNAVAILABLE", w)
	}
	return b.Build(), nil
}

// toolGetGovernanceArtifacts implements the get_governance_artifacts tool
func (s *MCPServer) toolGetGovernanceArtifacts(ctx context.Context, params map[string]any) (*envelope.Response, error) {
	args := toolArgs(params)
	var ap governance.ArtifactParams
	var err error
	if ap.Path, err = args.str("path"); err != nil {
		return nil, err
	}
	if ap.ClassificationFilter, err = args.str("classificationFilter"); err != nil {
		return nil, err
	}
	if ap.ConfidenceMin, err = args.str("confidenceMin"); err != nil {
		return nil, err
	}
	res, err := s.svc.Governance.GetArtifacts(ctx, ap)
	if err != nil {
		return nil, err
	}
	query := applied("path", ap.Path, "classificationFilter", ap.ClassificationFilter, "confidenceMin", ap.ConfidenceMin)
	return respond(query, res), nil
}

// toolAnalyzeGovernanceImpact implements the analyze_governance_impact tool
func (s *MCPServer) toolAnalyzeGovernanceImpact(ctx context.Context, params map[string]any) (*envelope.Response, error) {
	args := toolArgs(params)
	targets, err := args.strList("paths")
	if err != nil {
		return nil, err
	}
	change, err := args.str("changeType")
	if err != nil {
		return nil, err
	}
	report, err := s.svc.Impact.AnalyzeGovernance(ctx, targets, change)
	if err != nil {
		return nil, err
	}
	return respond(applied("paths", report.TargetPaths, "changeType", string(report.ChangeType)), report), nil
}

// toolGetGovernanceContext implements the get_governance_context tool
func (s *MCPServer) toolGetGovernanceContext(ctx context.Context, params map[string]any) (*envelope.Response, error) {
	args := toolArgs(params)
	p, err := args.str("path")
	if err != nil {
		return nil, err
	}
	res, err := s.svc.Governance.GetContext(ctx, p)
	if err != nil {
		return nil, err
	}
	return respond(applied("path", res.Path), res), nil
}

// toolSearchGovernanceArtifacts implements the search_governance_artifacts tool
func (s *MCPServer) toolSearchGovernanceArtifacts(ctx context.Context, params map[string]any) (*envelope.Response, error) {
	args := toolArgs(params)
	var sp governance.SearchParams
	var err error
	if sp.Patterns, err = args.strList("patterns"); err != nil {
		return nil, err
	}
	if sp.Classification, err = args.str("classification"); err != nil {
		return nil, err
	}
	if sp.ConfidenceMin, err = args.str("confidenceMin"); err != nil {
		return nil, err
	}
	if sp.SpecialHandlingType, err = args.str("specialHandlingType"); err != nil {
		return nil, err
	}

	res, err := s.svc.Governance.Search(ctx, sp)
	if err != nil {
		return nil, err
	}
	query := applied(
		"patterns", sp.Patterns,
		"classification", sp.Classification,
		"confidenceMin", sp.ConfidenceMin,
		"specialHandlingType", sp.SpecialHandlingType,
	)
	return envelope.New().
		Query(query).
		Data(res).
		WithTruncation(res.Truncated, res.Count, res.Total, "max-results").
		Build(), nil
}

// toolGetGovernanceStats implements the get_governance_stats tool
func (s *MCPServer) toolGetGovernanceStats(ctx context.Context, _ map[string]any) (*envelope.Response, error) {
	stats, err := s.svc.Governance.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	return envelope.Operational(stats), nil
}

// toolGetProjectTypeClassification implements the get_project_type_classification tool
func (s *MCPServer) toolGetProjectTypeClassification(ctx context.Context, params map[string]any) (*envelope.Response, error) {
	args := toolArgs(params)
	var cp portfolio.ClassifyParams
	var err error
	if cp.Path, err = args.str("path"); err != nil {
		return nil, err
	}
	if cp.ConfidenceMin, err = args.number("confidenceMin", 0); err != nil {
		return nil, err
	}
	if cp.ProjectTypeFilter, err = args.str("projectTypeFilter"); err != nil {
		return nil, err
	}
	res, err := s.svc.Portfolio.Classify(ctx, cp)
	if err != nil {
		return nil, err
	}
	query := applied("path", cp.Path, "confidenceMin", cp.ConfidenceMin, "projectTypeFilter", cp.ProjectTypeFilter)
	return respond(query, res), nil
}

// toolAnalyzeProjectPortfolio implements the analyze_project_portfolio tool
func (s *MCPServer) toolAnalyzeProjectPortfolio(ctx context.Context, params map[string]any) (*envelope.Response, error) {
	includeReasoning, err := toolArgs(params).boolean("includeReasoning", false)
	if err != nil {
		return nil, err
	}
	res, err := s.svc.Portfolio.Analyze(ctx, includeReasoning)
	if err != nil {
		return nil, err
	}
	return respond(applied("includeReasoning", includeReasoning), res), nil
}

// toolDetectDeprecatedComponents implements the detect_deprecated_components tool
func (s *MCPServer) toolDetectDeprecatedComponents(ctx context.Context, _ map[string]any) (*envelope.Response, error) {
	res, err := s.svc.Lifecycle.DetectDeprecated(ctx)
	if err != nil {
		return nil, err
	}
	return envelope.Operational(res), nil
}

// toolAnalyzeGovernanceHealth implements the analyze_governance_health tool
func (s *MCPServer) toolAnalyzeGovernanceHealth(ctx context.Context, _ map[string]any) (*envelope.Response, error) {
	res, err := s.svc.Lifecycle.AnalyzeHealth(ctx)
	if err != nil {
		return nil, err
	}
	return envelope.Operational(res), nil
}

// toolRunAutomatedMaintenance implements the run_automated_maintenance tool
func (s *MCPServer) toolRunAutomatedMaintenance(ctx context.Context, params map[string]any) (*envelope.Response, error) {
	dryRun, err := toolArgs(params).boolean("dryRun", true)
	if err != nil {
		return nil, err
	}
	res, err := s.svc.Lifecycle.RunMaintenance(ctx, lifecycle.MaintenanceParams{Apply: !dryRun})
	if err != nil {
		return nil, err
	}
	return respond(applied("dryRun", dryRun), res), nil
}

// toolGenerateMaintenanceReport implements the generate_maintenance_report tool
func (s *MCPServer) toolGenerateMaintenanceReport(ctx context.Context, _ map[string]any) (*envelope.Response, error) {
	res, err := s.svc.Lifecycle.GenerateReport(ctx)
	if err != nil {
		return nil, err
	}
	return envelope.Operational(res), nil
}

// toolCleanupGovernanceArtifacts implements the cleanup_governance_artifacts tool
func (s *MCPServer) toolCleanupGovernanceArtifacts(ctx context.Context, params map[string]any) (*envelope.Response, error) {
	args := toolArgs(params)
	dryRun, err := args.boolean("dryRun", true)
	if err != nil {
		return nil, err
	}
	maxAge, err := args.integer("maxAgeDays")
	if err != nil {
		return nil, err
	}
	cleanupType, err := args.str("cleanupType")
	if err != nil {
		return nil, err
	}

	cp := lifecycle.CleanupParams{Apply: !dryRun, CleanupType: cleanupType}
	if maxAge != nil {
		if *maxAge <= 0 {
			return nil, errors.NewInvalidArgument("maxAgeDays", "must be a positive number of days")
		}
		cp.MaxAgeDays = *maxAge
	}
	res, err := s.svc.Lifecycle.Cleanup(ctx, cp)
	if err != nil {
		return nil, err
	}
	query := applied(
		"maxAgeDays", res.CleanupResults.MaxAgeDays,
		"dryRun", dryRun,
		"cleanupType", res.CleanupResults.CleanupType,
	)
	return respond(query, res), nil
}

// toolGetLifecycleStatus implements the get_lifecycle_status tool
func (s *MCPServer) toolGetLifecycleStatus(ctx context.Context, _ map[string]any) (*envelope.Response, error) {
	res, err := s.svc.Lifecycle.Status(ctx)
	if err != nil {
		return nil, err
	}
	return envelope.Operational(res), nil
}
