package mcp

import (
	"context"

	"govinv/internal/envelope"
	"govinv/internal/lifecycle"
	"govinv/internal/model"
)

// Tool describes a tool exposed via MCP
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolHandler handles a tool call and returns an envelope response.
type ToolHandler func(ctx context.Context, params map[string]any) (*envelope.Response, error)

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(desc string, enum ...string) map[string]any {
	p := map[string]any{"type": "string", "description": desc}
	if len(enum) > 0 {
		p["enum"] = enum
	}
	return p
}

func pathProp(desc string) map[string]any {
	return stringProp(desc)
}

var (
	changeTypeEnum = []string{
		string(model.ChangeCreate), string(model.ChangeModify),
		string(model.ChangeDelete), string(model.ChangeMove),
	}
	directionEnum = []string{"incoming", "outgoing", "both"}
)

func classifiedTypeEnum() []string {
	out := make([]string, len(model.ClassifiedProjectTypes))
	for i, t := range model.ClassifiedProjectTypes {
		out[i] = string(t)
	}
	return out
}

// GetToolDefinitions returns all tool definitions
func (s *MCPServer) GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "get_inventory_context",
			Description: "Get inventory context for a directory: the directory or its nearest inventoried ancestor, its direct children and readiness flags",
			InputSchema: objectSchema(map[string]any{
				"path": pathProp("Directory path to look up"),
			}, "path"),
		},
		{
			Name:        "analyze_impact",
			Description: "Assess the governance risk of a proposed change to one or more paths, including the dependency edges of each path",
			InputSchema: objectSchema(map[string]any{
				"targetPaths": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Paths the change touches",
				},
				"changeType": stringProp("Kind of change", changeTypeEnum...),
			}, "targetPaths", "changeType"),
		},
		{
			Name:        "get_dependencies",
			Description: "List dependency edges touching a directory",
			InputSchema: objectSchema(map[string]any{
				"path":      pathProp("Directory path"),
				"direction": stringProp("Edge direction (default: both)", directionEnum...),
			}, "path"),
		},
		{
			Name:        "search_inventory",
			Description: "Search inventoried directories by governance score, activity, project type and risk",
			InputSchema: objectSchema(map[string]any{
				"governanceScoreMin": map[string]any{"type": "number", "description": "Minimum governance score"},
				"activityLevel":      stringProp("Activity level", model.ActivityLevels...),
				"projectType":        stringProp("Project type"),
				"riskLevel":          stringProp("Risk level", "low", "medium", "high", "unknown"),
				"limit":              map[string]any{"type": "number", "description": "Maximum results (default: 50)", "default": 50},
			}),
		},
		{
			Name:        "get_inventory_stats",
			Description: "Get inventory-wide statistics: activity, risk and project type distributions, governance readiness and recent changes",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "get_governance_artifacts",
			Description: "List governance artifacts, optionally scoped to a path, filtered by classification and minimum confidence",
			InputSchema: objectSchema(map[string]any{
				"path":                 pathProp("Path substring to scope artifacts"),
				"classificationFilter": stringProp("Primary classification"),
				"confidenceMin":        stringProp("Minimum confidence level", model.ConfidenceRanks...),
			}),
		},
		{
			Name:        "analyze_governance_impact",
			Description: "Assess the governance risk of a proposed change to one or more paths",
			InputSchema: objectSchema(map[string]any{
				"paths": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Paths the change touches",
				},
				"changeType": stringProp("Kind of change", changeTypeEnum...),
			}, "paths", "changeType"),
		},
		{
			Name:        "get_governance_context",
			Description: "Get governance context for a path: artifact summary, special handling, score and recommendations",
			InputSchema: objectSchema(map[string]any{
				"path": pathProp("Path to analyze"),
			}, "path"),
		},
		{
			Name:        "search_governance_artifacts",
			Description: "Search governance artifacts by text patterns, classification, confidence and special handling flag",
			InputSchema: objectSchema(map[string]any{
				"patterns": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Substrings matched against path, filename and summary",
				},
				"classification":      stringProp("Primary classification"),
				"confidenceMin":       stringProp("Minimum confidence level", model.ConfidenceRanks...),
				"specialHandlingType": stringProp("Special handling flag"),
			}),
		},
		{
			Name:        "get_governance_stats",
			Description: "Get governance artifact statistics and health metrics",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "get_project_type_classification",
			Description: "List directories classified by project type with confidence and reasoning",
			InputSchema: objectSchema(map[string]any{
				"path":              pathProp("Path substring to scope directories"),
				"confidenceMin":     map[string]any{"type": "number", "description": "Minimum project confidence 0..1 (default: 0)", "default": 0},
				"projectTypeFilter": stringProp("Project type", classifiedTypeEnum()...),
			}),
		},
		{
			Name:        "analyze_project_portfolio",
			Description: "Analyze the project portfolio: type distribution, confidence, governance coverage and balance",
			InputSchema: objectSchema(map[string]any{
				"includeReasoning": map[string]any{"type": "boolean", "description": "Include classification reasoning (default: false)", "default": false},
			}),
		},
		{
			Name:        "detect_deprecated_components",
			Description: "Detect governance components that should be deprecated or archived",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "analyze_governance_health",
			Description: "Analyze the overall health of the governance framework",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "run_automated_maintenance",
			Description: "Run automated governance maintenance and cleanup",
			InputSchema: objectSchema(map[string]any{
				"dryRun": map[string]any{"type": "boolean", "description": "Preview changes without executing (default: true)", "default": true},
			}),
		},
		{
			Name:        "generate_maintenance_report",
			Description: "Generate a governance maintenance report",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "cleanup_governance_artifacts",
			Description: "Clean up stale or deprecated governance artifacts",
			InputSchema: objectSchema(map[string]any{
				"maxAgeDays":  map[string]any{"type": "number", "description": "Maximum age in days for artifacts to keep (default: 30)", "default": lifecycle.DefaultMaxAgeDays},
				"dryRun":      map[string]any{"type": "boolean", "description": "Preview changes without executing (default: true)", "default": true},
				"cleanupType": stringProp("Type of cleanup to perform (default: stale_data)", lifecycle.CleanupTypes...),
			}),
		},
		{
			Name:        "get_lifecycle_status",
			Description: "Get governance lifecycle status and maintenance recommendations",
			InputSchema: objectSchema(map[string]any{}),
		},
	}
}

// RegisterTools binds every tool name to its handler.
func (s *MCPServer) RegisterTools() {
	s.tools["get_inventory_context"] = s.toolGetInventoryContext
	s.tools["analyze_impact"] = s.toolAnalyzeImpact
	s.tools["get_dependencies"] = s.toolGetDependencies
	s.tools["search_inventory"] = s.toolSearchInventory
	s.tools["get_inventory_stats"] = s.toolGetInventoryStats
	s.tools["get_governance_artifacts"] = s.toolGetGovernanceArtifacts
	s.tools["analyze_governance_impact"] = s.toolAnalyzeGovernanceImpact
	s.tools["get_governance_context"] = s.toolGetGovernanceContext
	s.tools["search_governance_artifacts"] = s.toolSearchGovernanceArtifacts
	s.tools["get_governance_stats"] = s.toolGetGovernanceStats
	s.tools["get_project_type_classification"] = s.toolGetProjectTypeClassification
	s.tools["analyze_project_portfolio"] = s.toolAnalyzeProjectPortfolio
	// lifecycle
	s.tools["detect_deprecated_components"] = s.toolDetectDeprecatedComponents
	s.tools["analyze_governance_health"] = s.toolAnalyzeGovernanceHealth
	s.tools["run_automated_maintenance"] = s.toolRunAutomatedMaintenance
	s.tools["generate_maintenance_report"] = s.toolGenerateMaintenanceReport
	s.tools["cleanup_governance_artifacts"] = s.toolCleanupGovernanceArtifacts
	s.tools["get_lifecycle_status"] = s.toolGetLifecycleStatus
}
