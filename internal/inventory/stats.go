package inventory

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"govinv/internal/filter"
	"govinv/internal/storage"
)

// Stats is the result of GetStats.
type Stats struct {
	TotalDirectories       int            `json:"totalDirectories"`
	ByActivityLevel        map[string]int `json:"byActivityLevel"`
	ByRiskLevel            map[string]int `json:"byRiskLevel"`
	ByProjectType          map[string]int `json:"byProjectType"`
	AverageGovernanceScore float64        `json:"averageGovernanceScore"`
	GovernanceReady        int            `json:"governanceReady"`
	DependencyEdges        int            `json:"dependencyEdges"`
	RecentActivity         RecentActivity `json:"recentActivity"`
	Snapshot               map[string]any `json:"snapshot,omitempty"`
	GeneratedAt            time.Time      `json:"generatedAt"`

	// Warnings are non-fatal problems, such as an unreadable snapshot.
	Warnings []string `json:"-"`
}

// RecentActivity counts watcher changes inside the configured window.
type RecentActivity struct {
	WindowMinutes int `json:"windowMinutes"`
	Changes       int `json:"changes"`
}

// GetStats aggregates the directory inventory. Reads run concurrently.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	now := s.now().UTC()
	cutoff := now.Add(-s.opts.RecentWindow)

	out := &Stats{
		GeneratedAt:    now,
		RecentActivity: RecentActivity{WindowMinutes: int(s.opts.RecentWindow / time.Minute)},
	}

	var (
		scoreRows  []storage.Row
		changeRows []storage.Row
	)
	grouped := map[string]*map[string]int{
		"activity_level": &out.ByActivityLevel,
		"risk_level":     &out.ByRiskLevel,
		"project_type":   &out.ByProjectType,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.store.Query(gctx, filter.Select{
			From:    storage.TableDirectories,
			Columns: []string{"governance_score"},
		})
		scoreRows = rows
		return err
	})
	for col, dst := range grouped {
		g.Go(func() error {
			rows, err := s.store.Query(gctx, filter.GroupCount{
				From:    storage.TableDirectories,
				GroupBy: []string{col},
			})
			if err != nil {
				return err
			}
			m := make(map[string]int, len(rows))
			for _, r := range rows {
				key := r.String(col)
				if key == "" {
					key = "unset"
				}
				m[key] += r.Int("count")
			}
			*dst = m
			return nil
		})
	}
	g.Go(func() error {
		n, err := s.store.Count(gctx, filter.Count{From: storage.TableDependencies})
		out.DependencyEdges = n
		return err
	})
	g.Go(func() error {
		// Timestamps come in several layouts, so the day prefix narrows the
		// scan and the exact cutoff is applied after parsing.
		rows, err := s.store.Query(gctx, filter.Select{
			From:    storage.TableChanges,
			Columns: []string{"timestamp"},
			Where:   filter.Gte{Column: "timestamp", Value: cutoff.Format("2006-01-02")},
		})
		changeRows = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.TotalDirectories = len(scoreRows)
	total := 0
	for _, r := range scoreRows {
		score := r.Int("governance_score")
		total += score
		if score > governanceReadyScore {
			out.GovernanceReady++
		}
	}
	if len(scoreRows) > 0 {
		out.AverageGovernanceScore = math.Round(float64(total)/float64(len(scoreRows))*10) / 10
	}

	for _, r := range changeRows {
		if ts := r.Time("timestamp"); !ts.IsZero() && ts.After(cutoff) {
			out.RecentActivity.Changes++
		}
	}

	if s.opts.CachePath != "" {
		snap, err := readSnapshot(s.opts.CachePath)
		if err != nil {
			s.logger.Warn("Inventory snapshot unavailable", "path", s.opts.CachePath, "error", err.Error())
			out.Warnings = append(out.Warnings, "inventory snapshot unavailable: "+err.Error())
		} else {
			out.Snapshot = snap
		}
	}
	return out, nil
}

func readSnapshot(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap map[string]any
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}
