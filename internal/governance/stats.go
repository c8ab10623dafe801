package governance

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"govinv/internal/filter"
	"govinv/internal/model"
	"govinv/internal/storage"
)

// Unclassified is the classification label the watcher assigns when nothing matched.
const Unclassified = "unclassified"

const topDirectoryLimit = 10

// LabelCount is a label with its number of artifacts.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopDirectory is a governance-heavy directory.
type TopDirectory struct {
	Path                     string  `json:"path"`
	GovernanceArtifactsCount int     `json:"governanceArtifactsCount"`
	PrimaryGovernanceType    *string `json:"primaryGovernanceType"`
}

// HealthMetrics summarizes classification quality. Every value is defined for
// an empty inventory.
type HealthMetrics struct {
	ClassificationCoverage float64 `json:"classificationCoverage"`
	HighConfidenceRatio    float64 `json:"highConfidenceRatio"`
	TotalArtifacts         int     `json:"totalArtifacts"`
	HealthScore            int     `json:"healthScore"`
}

// Stats is the result of GetStats.
type Stats struct {
	TotalArtifacts             int            `json:"totalArtifacts"`
	TotalGovernanceDirectories int            `json:"totalGovernanceDirectories"`
	ClassificationBreakdown    []LabelCount   `json:"classificationBreakdown"`
	ConfidenceDistribution     []LabelCount   `json:"confidenceDistribution"`
	SpecialHandlingSummary     []LabelCount   `json:"specialHandlingSummary"`
	TopDirectories             []TopDirectory `json:"topDirectories"`
	HealthMetrics              HealthMetrics  `json:"healthMetrics"`
	GeneratedAt                time.Time      `json:"generatedAt"`
}

// ComputeHealth derives the health metrics from artifact counts.
func ComputeHealth(total, unclassified, highConfidence int) HealthMetrics {
	h := HealthMetrics{TotalArtifacts: total}
	if total <= 0 {
		return h
	}
	coverage := float64(total-unclassified) / float64(total) * 100
	ratio := float64(highConfidence) / float64(total) * 100
	h.ClassificationCoverage = round1(coverage)
	h.HighConfidenceRatio = round1(ratio)
	h.HealthScore = int(math.Round(0.6*coverage + 0.4*ratio))
	return h
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// GetStats aggregates the whole artifact inventory. The independent reads run
// concurrently.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	var (
		artifacts []model.Artifact
		govDirs   int
		topRows   []storage.Row
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.store.Query(gctx, filter.Select{
			From:    storage.TableArtifacts,
			Columns: []string{"path", "primary_classification", "confidence_level", "confidence_scores", "special_handling"},
		})
		if err != nil {
			return err
		}
		artifacts = model.ArtifactsFromRows(rows, s.logger)
		return nil
	})
	g.Go(func() error {
		n, err := s.store.Count(gctx, filter.Count{
			From:  storage.TableDirectories,
			Where: filter.Gt{Column: "governance_artifacts_count", Value: 0},
		})
		govDirs = n
		return err
	})
	g.Go(func() error {
		rows, err := s.store.Query(gctx, filter.Select{
			From:    storage.TableDirectories,
			Columns: []string{"path", "governance_artifacts_count", "primary_governance_type"},
			Where:   filter.Gt{Column: "governance_artifacts_count", Value: 0},
			OrderBy: []filter.Order{filter.Desc("governance_artifacts_count"), filter.Asc("path")},
			Limit:   topDirectoryLimit,
		})
		topRows = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	classes := map[string]int{}
	levels := map[string]int{}
	flags := map[string]int{}
	for _, a := range artifacts {
		label := a.PrimaryClassification
		if label == "" {
			label = Unclassified
		}
		classes[label]++
		levels[string(a.ConfidenceLevel)]++
		for _, f := range a.SpecialHandling {
			flags[f]++
		}
	}

	top := make([]TopDirectory, 0, len(topRows))
	for _, r := range topRows {
		top = append(top, TopDirectory{
			Path:                     r.String("path"),
			GovernanceArtifactsCount: r.Int("governance_artifacts_count"),
			PrimaryGovernanceType:    r.NullString("primary_governance_type"),
		})
	}

	total := len(artifacts)
	return &Stats{
		TotalArtifacts:             total,
		TotalGovernanceDirectories: govDirs,
		ClassificationBreakdown:    byCount(classes),
		ConfidenceDistribution:     byCount(levels),
		SpecialHandlingSummary:     byCount(flags),
		TopDirectories:             top,
		HealthMetrics:              ComputeHealth(total, classes[Unclassified], levels[string(model.ConfidenceHigh)]),
		GeneratedAt:                time.Now().UTC(),
	}, nil
}

func byCount(m map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(m))
	for k, v := range m {
		out = append(out, LabelCount{Label: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
