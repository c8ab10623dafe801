package governance

import (
	"context"
	"sort"

	"govinv/internal/errors"
	"govinv/internal/filter"
	"govinv/internal/model"
	"govinv/internal/paths"
	"govinv/internal/storage"
)

// Recommendation texts for governance context.
const (
	RecHighCoverage     = "High governance coverage - proceed with standard protocols"
	RecModerateCoverage = "Moderate governance coverage - consider adding governance artifacts"
	RecLowCoverage      = "Low governance coverage - governance artifacts may be needed"
	RecAddDocumentation = "Consider adding clear governance documentation"
)

const relatedDirectoryLimit = 5

// ClassificationCount is one cell of the classification by confidence summary.
type ClassificationCount struct {
	Classification  string                `json:"classification"`
	ConfidenceLevel model.ConfidenceLevel `json:"confidenceLevel"`
	Count           int                   `json:"count"`
}

// Context is the governance picture around one path.
type Context struct {
	Path                          string                `json:"path"`
	Directory                     *model.Directory      `json:"directory"`
	MatchType                     string                `json:"matchType"`
	RelatedDirectories            []model.Directory     `json:"relatedDirectories"`
	ArtifactClassificationSummary []ClassificationCount `json:"artifactClassificationSummary"`
	SpecialHandlingArtifacts      []model.Artifact      `json:"specialHandlingArtifacts"`
	TotalArtifacts                int                   `json:"totalArtifacts"`
	HighConfidenceArtifacts       int                   `json:"highConfidenceArtifacts"`
	GovernanceDirectories         int                   `json:"governanceDirectories"`
	GovernanceScore               int                   `json:"governanceScore"`
	Recommendations               []string              `json:"recommendations"`
}

// Score computes the 0-100 governance score:
// min(50, 5*total) + 3*highConfidence + 2*governanceDirectories, capped at 100.
func Score(total, highConfidence, governanceDirs int) int {
	score := min(50, 5*max(total, 0)) + 3*max(highConfidence, 0) + 2*max(governanceDirs, 0)
	return min(score, 100)
}

// ContextRecommendations maps a score to coverage advice.
func ContextRecommendations(score, highConfidence int) []string {
	var recs []string
	switch {
	case score >= 80:
		recs = append(recs, RecHighCoverage)
	case score >= 50:
		recs = append(recs, RecModerateCoverage)
	default:
		recs = append(recs, RecLowCoverage)
	}
	if highConfidence == 0 {
		recs = append(recs, RecAddDocumentation)
	}
	return recs
}

// GetContext returns the governance context of p.
func (s *Service) GetContext(ctx context.Context, p string) (*Context, error) {
	p = paths.Normalize(p)
	if p == "" {
		return nil, errors.NewInvalidArgument("path", "required")
	}

	dir, matchType, err := findDirectory(ctx, s.store, s.logger, p)
	if err != nil {
		return nil, err
	}

	relatedRows, err := s.store.Query(ctx, filter.Select{
		From:    storage.TableDirectories,
		Columns: model.DirectoryColumns,
		Where: filter.Any(
			filter.Eq{Column: "path", Value: p},
			filter.Contains{Column: "path", Substring: p},
		),
		OrderBy: []filter.Order{filter.Desc("governance_artifacts_count"), filter.Asc("path")},
		Limit:   relatedDirectoryLimit,
	})
	if err != nil {
		return nil, err
	}
	related := model.DirectoriesFromRows(relatedRows, s.logger)

	artifacts, err := s.FindArtifacts(ctx, ArtifactScope(p))
	if err != nil {
		return nil, err
	}

	out := &Context{
		Path:                     p,
		Directory:                dir,
		MatchType:                matchType,
		RelatedDirectories:       related,
		SpecialHandlingArtifacts: []model.Artifact{},
		TotalArtifacts:           len(artifacts),
	}

	cells := map[ClassificationCount]int{}
	for _, a := range artifacts {
		cells[ClassificationCount{Classification: a.PrimaryClassification, ConfidenceLevel: a.ConfidenceLevel}]++
		if a.ConfidenceLevel == model.ConfidenceHigh {
			out.HighConfidenceArtifacts++
		}
		if len(a.SpecialHandling) > 0 {
			out.SpecialHandlingArtifacts = append(out.SpecialHandlingArtifacts, a)
		}
	}
	out.ArtifactClassificationSummary = summarize(cells)

	for _, d := range related {
		if d.GovernanceArtifactsCount > 0 {
			out.GovernanceDirectories++
		}
	}

	out.GovernanceScore = Score(out.TotalArtifacts, out.HighConfidenceArtifacts, out.GovernanceDirectories)
	out.Recommendations = ContextRecommendations(out.GovernanceScore, out.HighConfidenceArtifacts)

	s.logger.Debug("Governance context resolved",
		"path", p,
		"matchType", matchType,
		"artifacts", out.TotalArtifacts,
		"score", out.GovernanceScore,
	)
	return out, nil
}

// summarize orders cells by count desc, then classification, then level desc.
func summarize(cells map[ClassificationCount]int) []ClassificationCount {
	out := make([]ClassificationCount, 0, len(cells))
	for k, n := range cells {
		k.Count = n
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Classification != out[j].Classification {
			return out[i].Classification < out[j].Classification
		}
		return out[i].ConfidenceLevel.Rank() > out[j].ConfidenceLevel.Rank()
	})
	return out
}
