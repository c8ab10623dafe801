package governance

import (
	"context"
	"strings"

	"govinv/internal/filter"
	"govinv/internal/model"
	"govinv/internal/paths"
)

// SearchLimit caps search results.
const SearchLimit = 100

// SearchParams are the optional criteria of Search.
type SearchParams struct {
	Patterns            []string
	Classification      string
	ConfidenceMin       string
	SpecialHandlingType string
}

// SearchHit is an artifact with its pattern relevance.
type SearchHit struct {
	model.Artifact
	RelevanceScore float64 `json:"relevanceScore"`
}

// SearchResult carries the shown hits and the number that matched.
type SearchResult struct {
	Artifacts []SearchHit `json:"artifacts"`
	Count     int         `json:"count"`
	Total     int         `json:"total"`
	Truncated bool        `json:"-"`
}

// Relevance scores a against patterns: +0.4 filename, +0.3 path, +0.3
// content summary per pattern, case-insensitive, capped at 1.0. No patterns
// scores 1.0.
func Relevance(a model.Artifact, patterns []string) float64 {
	patterns = cleanPatterns(patterns)
	if len(patterns) == 0 {
		return 1.0
	}
	filename := strings.ToLower(a.Filename)
	path := strings.ToLower(a.Path)
	summary := strings.ToLower(a.ContentSummary)

	score := 0.0
	for _, p := range patterns {
		p = strings.ToLower(p)
		if strings.Contains(filename, p) {
			score += 0.4
		}
		if strings.Contains(path, p) {
			score += 0.3
		}
		if summary != "" && strings.Contains(summary, p) {
			score += 0.3
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func cleanPatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Search finds artifacts matching any pattern and every other criterion,
// ordered by confidence level desc then lastModified desc, at most
// SearchLimit of them.
func (s *Service) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	var min model.ConfidenceLevel
	if params.ConfidenceMin != "" {
		var err error
		if min, err = model.ParseConfidenceLevel("confidenceMin", params.ConfidenceMin); err != nil {
			return nil, err
		}
	}
	patterns := cleanPatterns(params.Patterns)

	var patternPreds []filter.Predicate
	for _, p := range patterns {
		patternPreds = append(patternPreds,
			filter.Contains{Column: "filename", Substring: p},
			filter.Contains{Column: "path", Substring: p},
			filter.Contains{Column: "content_summary", Substring: p},
		)
	}
	var classPred filter.Predicate
	if params.Classification != "" {
		classPred = filter.Eq{Column: "primary_classification", Value: params.Classification}
	}

	artifacts, err := s.FindArtifacts(ctx, filter.All(
		filter.Any(patternPreds...),
		classPred,
		confidencePrefilter(min),
	))
	if err != nil {
		return nil, err
	}

	artifacts = filterByConfidence(artifacts, min)
	if params.SpecialHandlingType != "" {
		kept := artifacts[:0]
		for _, a := range artifacts {
			if a.SpecialHandling.Has(params.SpecialHandlingType) {
				kept = append(kept, a)
			}
		}
		artifacts = kept
	}
	sortArtifacts(artifacts)

	total := len(artifacts)
	if total > SearchLimit {
		artifacts = artifacts[:SearchLimit]
	}
	hits := make([]SearchHit, 0, len(artifacts))
	for _, a := range artifacts {
		hits = append(hits, SearchHit{Artifact: a, RelevanceScore: Relevance(a, patterns)})
	}
	return &SearchResult{
		Artifacts: hits,
		Count:     len(hits),
		Total:     total,
		Truncated: total > len(hits),
	}, nil
}

// ArtifactParams are the optional criteria of GetArtifacts.
type ArtifactParams struct {
	Path                 string
	ClassificationFilter string
	ConfidenceMin        string
}

// ArtifactList is the result of GetArtifacts.
type ArtifactList struct {
	Artifacts []model.Artifact `json:"artifacts"`
	Count     int              `json:"count"`
}

// GetArtifacts returns every artifact matching the criteria, in search order.
func (s *Service) GetArtifacts(ctx context.Context, params ArtifactParams) (*ArtifactList, error) {
	var min model.ConfidenceLevel
	if params.ConfidenceMin != "" {
		var err error
		if min, err = model.ParseConfidenceLevel("confidenceMin", params.ConfidenceMin); err != nil {
			return nil, err
		}
	}

	var scope, classPred filter.Predicate
	if p := paths.Normalize(params.Path); p != "" {
		scope = ArtifactScope(p)
	}
	if params.ClassificationFilter != "" {
		classPred = filter.Eq{Column: "primary_classification", Value: params.ClassificationFilter}
	}

	artifacts, err := s.FindArtifacts(ctx, filter.All(scope, classPred, confidencePrefilter(min)))
	if err != nil {
		return nil, err
	}
	artifacts = filterByConfidence(artifacts, min)
	sortArtifacts(artifacts)
	return &ArtifactList{Artifacts: artifacts, Count: len(artifacts)}, nil
}
