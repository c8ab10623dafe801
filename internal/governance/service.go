// Package governance answers context, search and statistics questions over
// classified governance artifacts.
package governance

import (
	"context"
	"log/slog"
	"sort"

	"govinv/internal/filter"
	"govinv/internal/model"
	"govinv/internal/paths"
	"govinv/internal/storage"
)

// Service reads artifacts and directories through a store handle. It keeps
// no state between calls.
type Service struct {
	store  storage.Querier
	logger *slog.Logger
}

// NewService creates a governance service.
func NewService(store storage.Querier, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// ArtifactScope matches artifacts whose path or directory contains p.
func ArtifactScope(p string) filter.Predicate {
	return filter.Any(
		filter.Contains{Column: "path", Substring: p},
		filter.Contains{Column: "directory_path", Substring: p},
	)
}

// confidencePrefilter is a superset of the rows whose derived level can reach
// min: rows with scores are re-checked after hydration, rows without scores
// fall back to the stored column.
func confidencePrefilter(min model.ConfidenceLevel) filter.Predicate {
	if min == "" || min == model.ConfidenceNone {
		return nil
	}
	return filter.Any(
		filter.AtLeast{Column: "confidence_level", Ranks: model.ConfidenceRanks, Min: string(min)},
		filter.NotNull{Column: "confidence_scores"},
	)
}

// artifactOrder is the SQL side of the confidence desc, lastModified desc
// ordering. It uses the stored level; sortArtifacts fixes up derived levels.
var artifactOrder = []filter.Order{
	{Column: "confidence_level", Desc: true, Ranks: model.ConfidenceRanks},
	filter.Desc("last_modified"),
	filter.Asc("path"),
}

// FindArtifacts returns the hydrated artifacts matching where.
func (s *Service) FindArtifacts(ctx context.Context, where filter.Predicate) ([]model.Artifact, error) {
	rows, err := s.store.Query(ctx, filter.Select{
		From:    storage.TableArtifacts,
		Columns: model.ArtifactColumns,
		Where:   where,
		OrderBy: artifactOrder,
	})
	if err != nil {
		return nil, err
	}
	return model.ArtifactsFromRows(rows, s.logger), nil
}

// sortArtifacts orders by derived confidence level desc, then lastModified
// desc, then path.
func sortArtifacts(list []model.Artifact) {
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := list[i].ConfidenceLevel.Rank(), list[j].ConfidenceLevel.Rank()
		if ri != rj {
			return ri > rj
		}
		if !list[i].LastModified.Equal(list[j].LastModified) {
			return list[i].LastModified.After(list[j].LastModified)
		}
		return list[i].Path < list[j].Path
	})
}

func filterByConfidence(list []model.Artifact, min model.ConfidenceLevel) []model.Artifact {
	if min == "" {
		return list
	}
	out := list[:0]
	for _, a := range list {
		if a.ConfidenceLevel.AtLeast(min) {
			out = append(out, a)
		}
	}
	return out
}

// findDirectory returns the exact directory for p, or the nearest ancestor
// present in the inventory. matchType is exact, ancestor or none.
func findDirectory(ctx context.Context, store storage.Querier, logger *slog.Logger, p string) (*model.Directory, string, error) {
	candidates := append([]string{p}, paths.Ancestors(p)...)
	values := make([]any, len(candidates))
	for i, c := range candidates {
		values[i] = c
	}
	rows, err := store.Query(ctx, filter.Select{
		From:    storage.TableDirectories,
		Columns: model.DirectoryColumns,
		Where:   filter.In{Column: "path", Values: values},
	})
	if err != nil {
		return nil, "none", err
	}
	byPath := make(map[string]storage.Row, len(rows))
	for _, r := range rows {
		byPath[r.String("path")] = r
	}
	for i, c := range candidates {
		if r, ok := byPath[c]; ok {
			d := model.DirectoryFromRow(r, logger)
			if i == 0 {
				return &d, "exact", nil
			}
			return &d, "ancestor", nil
		}
	}
	return nil, "none", nil
}

// LookupDirectory resolves p to its exact or nearest-ancestor directory.
// It is shared with the inventory service.
func LookupDirectory(ctx context.Context, store storage.Querier, logger *slog.Logger, p string) (*model.Directory, string, error) {
	return findDirectory(ctx, store, logger, paths.Normalize(p))
}
