// Package portfolio aggregates directories by project type: per-type
// classification listings, distribution balance and coverage health.
package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"govinv/internal/errors"
	"govinv/internal/filter"
	"govinv/internal/model"
	"govinv/internal/paths"
	"govinv/internal/storage"
)

const (
	topProjectLimit   = 20
	dominantShare     = 0.6
	minRevenueStreams = 2
	minCoverageShare  = 0.5
)

// Recommendation texts. Imbalance and coverage are format strings.
const (
	RecImbalanceFormat = "Portfolio imbalance: %s projects dominate (%.1f%%)"
	RecMoreRevenue     = "Consider developing more revenue stream projects for business growth"
	RecLowCoverage     = "Low governance coverage in: "
)

// Service reads classified directories.
type Service struct {
	store  storage.Querier
	logger *slog.Logger
}

// NewService creates a portfolio service.
func NewService(store storage.Querier, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Project is a classified directory.
type Project struct {
	Path                     string            `json:"path"`
	Name                     string            `json:"name"`
	ProjectType              model.ProjectType `json:"projectType"`
	ProjectConfidence        float64           `json:"projectConfidence"`
	ConfidenceBucket         string            `json:"confidenceBucket"`
	GovernanceArtifactsCount int               `json:"governanceArtifactsCount"`
	ProjectReasoning         []string          `json:"projectReasoning,omitempty"`
	LastModified             time.Time         `json:"lastModified,omitzero"`
}

func projectFrom(d model.Directory, withReasoning bool) Project {
	p := Project{
		Path:                     d.Path,
		Name:                     d.Name,
		ProjectType:              *d.ProjectType,
		ProjectConfidence:        *d.ProjectConfidence,
		ConfidenceBucket:         model.ProjectConfidenceBucket(*d.ProjectConfidence),
		GovernanceArtifactsCount: d.GovernanceArtifactsCount,
		LastModified:             d.LastModified,
	}
	if withReasoning {
		p.ProjectReasoning = d.ProjectReasoning
	}
	return p
}

// classified loads every directory with a classified project type, ordered
// by confidence desc then artifact count desc.
func (s *Service) classified(ctx context.Context, extra ...filter.Predicate) ([]model.Directory, error) {
	preds := append([]filter.Predicate{
		filter.NotNull{Column: "project_type"},
		filter.NotEq{Column: "project_type", Value: string(model.ProjectUnknown)},
	}, extra...)
	rows, err := s.store.Query(ctx, filter.Select{
		From:    storage.TableDirectories,
		Columns: model.DirectoryColumns,
		Where:   filter.All(preds...),
		OrderBy: []filter.Order{
			filter.Desc("project_confidence"),
			filter.Desc("governance_artifacts_count"),
			filter.Asc("path"),
		},
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Directory, 0, len(rows))
	for _, d := range model.DirectoriesFromRows(rows, s.logger) {
		if d.Classified() {
			out = append(out, d)
		}
	}
	// NULL confidences hydrate to 0 and dialects sort NULLs differently.
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := *out[i].ProjectConfidence, *out[j].ProjectConfidence
		if ci != cj {
			return ci > cj
		}
		return out[i].GovernanceArtifactsCount > out[j].GovernanceArtifactsCount
	})
	return out, nil
}

// ClassifyParams are the criteria of Classify.
type ClassifyParams struct {
	Path              string
	ConfidenceMin     float64
	ProjectTypeFilter string
}

// Classification is the result of Classify.
type Classification struct {
	Directories     []Project `json:"directories"`
	TotalClassified int       `json:"totalClassified"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// Classify lists classified directories with a recorded confidence of at
// least ConfidenceMin, optionally restricted by path and project type.
func (s *Service) Classify(ctx context.Context, params ClassifyParams) (*Classification, error) {
	if params.ConfidenceMin < 0 || params.ConfidenceMin > 1 || math.IsNaN(params.ConfidenceMin) {
		return nil, errors.NewInvalidArgument("confidenceMin", "must be between 0 and 1")
	}
	var extra []filter.Predicate
	if params.ProjectTypeFilter != "" {
		pt, err := model.ParseClassifiedProjectType("projectTypeFilter", params.ProjectTypeFilter)
		if err != nil {
			return nil, err
		}
		extra = append(extra, filter.Eq{Column: "project_type", Value: string(pt)})
	}
	if p := paths.Normalize(params.Path); p != "" {
		extra = append(extra, filter.Any(
			filter.Eq{Column: "path", Value: p},
			filter.Contains{Column: "path", Substring: p},
		))
	}
	// A classified row without a confidence never satisfies the floor, even at 0.
	extra = append(extra, filter.NotNull{Column: "project_confidence"})
	if params.ConfidenceMin > 0 {
		extra = append(extra, filter.Gte{Column: "project_confidence", Value: params.ConfidenceMin})
	}

	dirs, err := s.classified(ctx, extra...)
	if err != nil {
		return nil, err
	}
	projects := make([]Project, 0, len(dirs))
	for _, d := range dirs {
		if *d.ProjectConfidence >= params.ConfidenceMin {
			projects = append(projects, projectFrom(d, true))
		}
	}
	return &Classification{
		Directories:     projects,
		TotalClassified: len(projects),
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// TypeSummary is the distribution entry of one project type.
type TypeSummary struct {
	ProjectType        model.ProjectType `json:"projectType"`
	Label              string            `json:"label"`
	Count              int               `json:"count"`
	Percentage         float64           `json:"percentage"`
	AverageConfidence  float64           `json:"averageConfidence"`
	WithGovernance     int               `json:"withGovernance"`
	GovernanceCoverage float64           `json:"governanceCoverage"`
}

// BucketCount is the number of projects in one confidence bucket.
type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// HealthMetrics summarizes the portfolio. All values are defined when there
// are no projects.
type HealthMetrics struct {
	HighConfidenceRatio float64 `json:"highConfidenceRatio"`
	GovernanceCoverage  float64 `json:"governanceCoverage"`
	PortfolioDiversity  int     `json:"portfolioDiversity"`
	BalanceScore        int     `json:"balanceScore"`
}

// Analysis is the result of Analyze.
type Analysis struct {
	TotalClassifiedProjects int           `json:"totalClassifiedProjects"`
	ProjectTypes            int           `json:"projectTypes"`
	AverageConfidence       float64       `json:"averageConfidence"`
	Distribution            []TypeSummary `json:"distribution"`
	ConfidenceLevels        []BucketCount `json:"confidenceLevels"`
	TopProjects             []Project     `json:"topProjects"`
	HealthMetrics           HealthMetrics `json:"healthMetrics"`
	Recommendations         []string      `json:"recommendations"`
	GeneratedAt             time.Time     `json:"generatedAt"`
}

// BalanceScore measures how evenly counts spread across the types present:
// round((1 - variance/expected^2) * 100) clamped to [0, 100], where expected
// is total/types. No projects scores 0.
func BalanceScore(counts []int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 || len(counts) == 0 {
		return 0
	}
	expected := float64(total) / float64(len(counts))
	variance := 0.0
	for _, c := range counts {
		diff := float64(c) - expected
		variance += diff * diff
	}
	variance /= float64(len(counts))
	score := math.Round((1 - variance/(expected*expected)) * 100)
	return int(math.Max(0, math.Min(100, score)))
}

// Analyze aggregates the whole classified portfolio.
func (s *Service) Analyze(ctx context.Context, includeReasoning bool) (*Analysis, error) {
	dirs, err := s.classified(ctx)
	if err != nil {
		return nil, err
	}

	type acc struct {
		count, withGov int
		confSum        float64
	}
	byType := map[model.ProjectType]*acc{}
	buckets := map[string]int{}
	confSum := 0.0
	highConf, withGov := 0, 0
	for _, d := range dirs {
		pt, conf := *d.ProjectType, *d.ProjectConfidence
		a := byType[pt]
		if a == nil {
			a = &acc{}
			byType[pt] = a
		}
		a.count++
		a.confSum += conf
		if d.GovernanceArtifactsCount > 0 {
			a.withGov++
			withGov++
		}
		b := model.ProjectConfidenceBucket(conf)
		buckets[b]++
		if b == "high" {
			highConf++
		}
		confSum += conf
	}

	total := len(dirs)
	out := &Analysis{
		TotalClassifiedProjects: total,
		ProjectTypes:            len(byType),
		Distribution:            make([]TypeSummary, 0, len(byType)),
		ConfidenceLevels:        make([]BucketCount, 0, len(buckets)),
		TopProjects:             make([]Project, 0, min(total, topProjectLimit)),
		GeneratedAt:             time.Now().UTC(),
	}
	if total > 0 {
		out.AverageConfidence = round(confSum/float64(total), 3)
	}

	counts := make([]int, 0, len(byType))
	for pt, a := range byType {
		out.Distribution = append(out.Distribution, TypeSummary{
			ProjectType:        pt,
			Label:              pt.Label(),
			Count:              a.count,
			Percentage:         round(float64(a.count)/float64(total)*100, 1),
			AverageConfidence:  round(a.confSum/float64(a.count), 3),
			WithGovernance:     a.withGov,
			GovernanceCoverage: round(float64(a.withGov)/float64(a.count)*100, 1),
		})
		counts = append(counts, a.count)
	}
	sort.Slice(out.Distribution, func(i, j int) bool {
		if out.Distribution[i].Count != out.Distribution[j].Count {
			return out.Distribution[i].Count > out.Distribution[j].Count
		}
		return out.Distribution[i].ProjectType < out.Distribution[j].ProjectType
	})

	for _, b := range []string{"high", "medium", "low", "very_low"} {
		if n := buckets[b]; n > 0 {
			out.ConfidenceLevels = append(out.ConfidenceLevels, BucketCount{Bucket: b, Count: n})
		}
	}

	for i, d := range dirs {
		if i == topProjectLimit {
			break
		}
		out.TopProjects = append(out.TopProjects, projectFrom(d, includeReasoning))
	}

	out.HealthMetrics = HealthMetrics{
		PortfolioDiversity: len(byType),
		BalanceScore:       BalanceScore(counts),
	}
	if total > 0 {
		out.HealthMetrics.HighConfidenceRatio = round(float64(highConf)/float64(total)*100, 1)
		out.HealthMetrics.GovernanceCoverage = round(float64(withGov)/float64(total)*100, 1)
	}
	out.Recommendations = Recommendations(out.Distribution, total)
	return out, nil
}

// Recommendations derives portfolio advice from a count-ordered distribution.
func Recommendations(dist []TypeSummary, total int) []string {
	recs := []string{}
	if total > 0 && len(dist) > 0 {
		top := dist[0]
		if share := float64(top.Count) / float64(total); share > dominantShare {
			recs = append(recs, fmt.Sprintf(RecImbalanceFormat, top.ProjectType, share*100))
		}
	}

	revenue := 0
	for _, d := range dist {
		if d.ProjectType == model.ProjectRevenueStream {
			revenue = d.Count
		}
	}
	if revenue < minRevenueStreams {
		recs = append(recs, RecMoreRevenue)
	}

	var low []string
	for _, d := range dist {
		if d.Count > 0 && float64(d.WithGovernance)/float64(d.Count) < minCoverageShare {
			low = append(low, string(d.ProjectType))
		}
	}
	if len(low) > 0 {
		recs = append(recs, RecLowCoverage+strings.Join(low, ", "))
	}
	return recs
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
