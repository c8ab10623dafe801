// Package model holds the inventory entities and their hydration from raw
// store rows. Nested JSON columns decode leniently: a corrupt value becomes
// an empty collection and the row still loads.
package model

import (
	"sort"
	"strings"

	"govinv/internal/errors"
)

// ConfidenceLevel is the ordinal classification certainty of an artifact.
type ConfidenceLevel string

const (
	ConfidenceNone   ConfidenceLevel = "none"
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// ConfidenceRanks lists the levels lowest first.
var ConfidenceRanks = []string{"none", "low", "medium", "high"}

// Score thresholds for deriving a level from the best classification score.
const (
	HighThreshold   = 0.8
	MediumThreshold = 0.5
	LowThreshold    = 0.2
)

// Rank returns the ordinal position of c, or -1 when c is not a level.
func (c ConfidenceLevel) Rank() int {
	for i, r := range ConfidenceRanks {
		if string(c) == r {
			return i
		}
	}
	return -1
}

// AtLeast reports whether c ranks at or above min.
func (c ConfidenceLevel) AtLeast(min ConfidenceLevel) bool {
	return c.Rank() >= min.Rank()
}

// LevelFromScore buckets a 0-1 score.
func LevelFromScore(score float64) ConfidenceLevel {
	switch {
	case score >= HighThreshold:
		return ConfidenceHigh
	case score >= MediumThreshold:
		return ConfidenceMedium
	case score >= LowThreshold:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// ParseConfidenceLevel validates an argument value.
func ParseConfidenceLevel(field, s string) (ConfidenceLevel, error) {
	c := ConfidenceLevel(strings.ToLower(strings.TrimSpace(s)))
	if c.Rank() < 0 {
		return "", errors.NewInvalidEnum(field, s, ConfidenceRanks)
	}
	return c, nil
}

// ProjectType is the closed set of directory business purposes.
type ProjectType string

const (
	ProjectIDPOptimization      ProjectType = "idp_optimization"
	ProjectBusinessOptimization ProjectType = "business_optimization"
	ProjectRevenueStream        ProjectType = "revenue_stream"
	ProjectClientDelivery       ProjectType = "client_delivery"
	ProjectExperimental         ProjectType = "experimental"
	ProjectUnknown              ProjectType = "unknown"
)

// ClassifiedProjectTypes are the types that carry a confidence.
var ClassifiedProjectTypes = []ProjectType{
	ProjectIDPOptimization,
	ProjectBusinessOptimization,
	ProjectRevenueStream,
	ProjectClientDelivery,
	ProjectExperimental,
}

var projectTypeLabels = map[ProjectType]string{
	ProjectIDPOptimization:      "IDP Optimization",
	ProjectBusinessOptimization: "Business Optimization",
	ProjectRevenueStream:        "Revenue Stream",
	ProjectClientDelivery:       "Client Delivery",
	ProjectExperimental:         "Experimental",
	ProjectUnknown:              "Unknown",
}

// Label returns the display name of the type.
func (p ProjectType) Label() string {
	if l, ok := projectTypeLabels[p]; ok {
		return l
	}
	return string(p)
}

// Classified reports whether p is one of the classified types.
func (p ProjectType) Classified() bool {
	for _, t := range ClassifiedProjectTypes {
		if p == t {
			return true
		}
	}
	return false
}

func projectTypeNames(includeUnknown bool) []string {
	names := make([]string, 0, len(ClassifiedProjectTypes)+1)
	for _, t := range ClassifiedProjectTypes {
		names = append(names, string(t))
	}
	if includeUnknown {
		names = append(names, string(ProjectUnknown))
	}
	return names
}

// ParseProjectType validates an argument value. unknown is accepted.
func ParseProjectType(field, s string) (ProjectType, error) {
	p := ProjectType(strings.ToLower(strings.TrimSpace(s)))
	if p.Classified() || p == ProjectUnknown {
		return p, nil
	}
	return "", errors.NewInvalidEnum(field, s, projectTypeNames(true))
}

// ParseClassifiedProjectType validates a filter that only makes sense for classified types.
func ParseClassifiedProjectType(field, s string) (ProjectType, error) {
	p := ProjectType(strings.ToLower(strings.TrimSpace(s)))
	if p.Classified() {
		return p, nil
	}
	return "", errors.NewInvalidEnum(field, s, projectTypeNames(false))
}

// ProjectConfidenceBucket buckets a project confidence.
func ProjectConfidenceBucket(c float64) string {
	switch {
	case c >= HighThreshold:
		return "high"
	case c >= MediumThreshold:
		return "medium"
	case c >= LowThreshold:
		return "low"
	default:
		return "very_low"
	}
}

// ChangeType is the kind of proposed change under impact analysis.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeModify ChangeType = "modify"
	ChangeDelete ChangeType = "delete"
	ChangeMove   ChangeType = "move"
)

var changeTypes = []string{"create", "modify", "delete", "move"}

// ParseChangeType rejects anything outside create, modify, delete, move.
func ParseChangeType(field, s string) (ChangeType, error) {
	for _, c := range changeTypes {
		if s == c {
			return ChangeType(s), nil
		}
	}
	if s == "" {
		return "", errors.NewInvalidArgument(field, "required")
	}
	return "", errors.NewInvalidEnum(field, s, changeTypes)
}

// RiskLevel is a directory's stored risk or an assessed change risk.
type RiskLevel string

const (
	RiskUnknown RiskLevel = "unknown"
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
)

// RiskLevels lists the assessable levels lowest first.
var RiskLevels = []string{"low", "medium", "high"}

// Rank orders risks: unknown and low rank 0, medium 1, high 2.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// ParseRiskLevel validates a filter value. unknown is accepted.
func ParseRiskLevel(field, s string) (RiskLevel, error) {
	switch r := RiskLevel(s); r {
	case RiskLow, RiskMedium, RiskHigh, RiskUnknown:
		return r, nil
	}
	return "", errors.NewInvalidEnum(field, s, append(append([]string{}, RiskLevels...), "unknown"))
}

// ActivityLevels are the watcher's directory activity buckets.
var ActivityLevels = []string{"empty", "low", "medium", "high"}

// ParseActivityLevel validates a filter value.
func ParseActivityLevel(field, s string) (string, error) {
	for _, a := range ActivityLevels {
		if s == a {
			return s, nil
		}
	}
	return "", errors.NewInvalidEnum(field, s, ActivityLevels)
}

// Well-known special handling flags.
const (
	FlagGitHook         = "git_hook"
	FlagProjectManifest = "project_manifest"
	FlagHighImportance  = "high_importance"
	FlagConfigFile      = "config_file"
)

// Flags is a sorted set of special handling flag names.
type Flags []string

// NewFlags builds a sorted, de-duplicated set.
func NewFlags(names ...string) Flags {
	seen := make(map[string]bool, len(names))
	out := make(Flags, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Has reports whether name is set.
func (f Flags) Has(name string) bool {
	i := sort.SearchStrings(f, name)
	return i < len(f) && f[i] == name
}

// HasAny reports whether any of names is set.
func (f Flags) HasAny(names ...string) bool {
	for _, n := range names {
		if f.Has(n) {
			return true
		}
	}
	return false
}
