// Package inventory answers directory-level questions: context, dependency
// edges, filtered search and inventory-wide statistics.
package inventory

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"govinv/internal/errors"
	"govinv/internal/filter"
	"govinv/internal/governance"
	"govinv/internal/model"
	"govinv/internal/paths"
	"govinv/internal/storage"
)

const (
	// DefaultSearchLimit applies when search_inventory gets no limit.
	DefaultSearchLimit = 50
	// MaxSearchLimit bounds the limit argument unless configured otherwise.
	MaxSearchLimit = 500

	governanceReadyScore = 60
)

// Options tune the service.
type Options struct {
	CachePath      string        // optional watcher snapshot merged into stats
	MaxSearchLimit int           // upper bound for Search limit
	RecentWindow   time.Duration // window for counting recent changes
}

// Service reads the directories and dependency tables.
type Service struct {
	store  storage.Querier
	logger *slog.Logger
	opts   Options
	now    func() time.Time
}

// NewService creates an inventory service.
func NewService(store storage.Querier, logger *slog.Logger, opts Options) *Service {
	if opts.MaxSearchLimit <= 0 {
		opts.MaxSearchLimit = MaxSearchLimit
	}
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = time.Hour
	}
	return &Service{store: store, logger: logger, opts: opts, now: time.Now}
}

// ChildDirectory is the summary of a direct child.
type ChildDirectory struct {
	Path            string          `json:"path"`
	GovernanceScore int             `json:"governanceScore"`
	ActivityLevel   string          `json:"activityLevel,omitempty"`
	RiskLevel       model.RiskLevel `json:"riskLevel"`
}

// ContextAnalysis flags derived from the resolved directory.
type ContextAnalysis struct {
	GovernanceReady   bool `json:"governanceReady"`
	RequiresAttention bool `json:"requiresAttention"`
	HasChildren       bool `json:"hasChildren"`
}

// DirectoryContext is the result of GetContext.
type DirectoryContext struct {
	TargetPath       string           `json:"targetPath"`
	Directory        *model.Directory `json:"directory"`
	MatchType        string           `json:"matchType"`
	ChildDirectories []ChildDirectory `json:"childDirectories"`
	ContextAnalysis  ContextAnalysis  `json:"contextAnalysis"`
}

// GetContext resolves p to its directory or nearest inventoried ancestor and
// lists the direct children of p.
func (s *Service) GetContext(ctx context.Context, p string) (*DirectoryContext, error) {
	p = paths.Normalize(p)
	if p == "" {
		return nil, errors.NewInvalidArgument("path", "required")
	}

	dir, matchType, err := governance.LookupDirectory(ctx, s.store, s.logger, p)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.Query(ctx, filter.Select{
		From:    storage.TableDirectories,
		Columns: []string{"path", "governance_score", "activity_level", "risk_level"},
		Where:   filter.Eq{Column: "parent_path", Value: p},
		OrderBy: []filter.Order{filter.Asc("path")},
	})
	if err != nil {
		return nil, err
	}
	children := make([]ChildDirectory, 0, len(rows))
	for _, r := range rows {
		risk := model.RiskLevel(r.String("risk_level"))
		if risk == "" {
			risk = model.RiskUnknown
		}
		children = append(children, ChildDirectory{
			Path:            r.String("path"),
			GovernanceScore: r.Int("governance_score"),
			ActivityLevel:   r.String("activity_level"),
			RiskLevel:       risk,
		})
	}

	out := &DirectoryContext{
		TargetPath:       p,
		Directory:        dir,
		MatchType:        matchType,
		ChildDirectories: children,
		ContextAnalysis:  ContextAnalysis{HasChildren: len(children) > 0},
	}
	if dir != nil {
		out.ContextAnalysis.GovernanceReady = dir.GovernanceScore > governanceReadyScore
		out.ContextAnalysis.RequiresAttention = dir.RiskLevel == model.RiskHigh
	}
	return out, nil
}

// Direction selects which dependency edges to return.
type Direction string

const (
	Incoming Direction = "incoming"
	Outgoing Direction = "outgoing"
	Both     Direction = "both"
)

// ParseDirection defaults to both and rejects anything else.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case "":
		return Both, nil
	case Incoming, Outgoing, Both:
		return d, nil
	}
	return "", errors.NewInvalidEnum("direction", s, []string{"incoming", "outgoing", "both"})
}

// DependencyResult is the result of GetDependencies.
type DependencyResult struct {
	TargetPath       string             `json:"targetPath"`
	Direction        Direction          `json:"direction"`
	Dependencies     []model.Dependency `json:"dependencies"`
	DependencyCount  int                `json:"dependencyCount"`
	SelfLoopsDropped int                `json:"selfLoopsDropped,omitempty"`
}

// DependencyEdges returns the edges touching p in the given direction.
// Duplicate edges are kept.
func DependencyEdges(ctx context.Context, store storage.Querier, p string, dir Direction) ([]model.Dependency, int, error) {
	var where filter.Predicate
	switch dir {
	case Incoming:
		where = filter.Eq{Column: "target_path", Value: p}
	case Outgoing:
		where = filter.Eq{Column: "source_path", Value: p}
	default:
		where = filter.Any(
			filter.Eq{Column: "source_path", Value: p},
			filter.Eq{Column: "target_path", Value: p},
		)
	}
	rows, err := store.Query(ctx, filter.Select{
		From:    storage.TableDependencies,
		Columns: model.DependencyColumns,
		Where:   where,
		OrderBy: []filter.Order{filter.Asc("source_path"), filter.Asc("target_path"), filter.Asc("dependency_type")},
	})
	if err != nil {
		return nil, 0, err
	}
	deps, loops := model.DependenciesFromRows(rows)
	return deps, loops, nil
}

// GetDependencies lists dependency edges of p.
func (s *Service) GetDependencies(ctx context.Context, p, direction string) (*DependencyResult, error) {
	p = paths.Normalize(p)
	if p == "" {
		return nil, errors.NewInvalidArgument("path", "required")
	}
	dir, err := ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	deps, loops, err := DependencyEdges(ctx, s.store, p, dir)
	if err != nil {
		return nil, err
	}
	if loops > 0 {
		s.logger.Debug("Dropped self-loop dependencies", "path", p, "count", loops)
	}
	return &DependencyResult{
		TargetPath:       p,
		Direction:        dir,
		Dependencies:     deps,
		DependencyCount:  len(deps),
		SelfLoopsDropped: loops,
	}, nil
}

// SearchParams are the optional filters of Search.
type SearchParams struct {
	GovernanceScoreMin *int
	ActivityLevel      string
	ProjectType        string
	RiskLevel          string
	Limit              int
}

// SearchResult is the result of Search.
type SearchResult struct {
	Results     []model.Directory `json:"results"`
	ResultCount int               `json:"resultCount"`
	Limit       int               `json:"limit"`
}

// Search filters directories, ordered by governance score desc then path.
func (s *Service) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	limit := params.Limit
	if limit == 0 {
		limit = DefaultSearchLimit
	}
	if limit < 1 || limit > s.opts.MaxSearchLimit {
		return nil, errors.NewInvalidArgument("limit", "must be between 1 and "+strconv.Itoa(s.opts.MaxSearchLimit))
	}

	var preds []filter.Predicate
	if params.GovernanceScoreMin != nil {
		preds = append(preds, filter.Gte{Column: "governance_score", Value: *params.GovernanceScoreMin})
	}
	if params.ActivityLevel != "" {
		a, err := model.ParseActivityLevel("activityLevel", params.ActivityLevel)
		if err != nil {
			return nil, err
		}
		preds = append(preds, filter.Eq{Column: "activity_level", Value: a})
	}
	if params.ProjectType != "" {
		pt, err := model.ParseProjectType("projectType", params.ProjectType)
		if err != nil {
			return nil, err
		}
		preds = append(preds, filter.Eq{Column: "project_type", Value: string(pt)})
	}
	if params.RiskLevel != "" {
		r, err := model.ParseRiskLevel("riskLevel", params.RiskLevel)
		if err != nil {
			return nil, err
		}
		preds = append(preds, filter.Eq{Column: "risk_level", Value: string(r)})
	}

	rows, err := s.store.Query(ctx, filter.Select{
		From:    storage.TableDirectories,
		Columns: model.DirectoryColumns,
		Where:   filter.All(preds...),
		OrderBy: []filter.Order{filter.Desc("governance_score"), filter.Asc("path")},
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	results := model.DirectoriesFromRows(rows, s.logger)
	return &SearchResult{Results: results, ResultCount: len(results), Limit: limit}, nil
}
