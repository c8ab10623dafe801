package model

import (
	"log/slog"
	"time"

	"govinv/internal/storage"
)

// Column lists for the engine's reads.
var (
	DirectoryColumns = []string{
		"path", "name", "parent_path", "governance_artifacts_count", "primary_governance_type",
		"governance_confidence_avg", "project_type", "project_confidence", "project_reasoning",
		"governance_score", "activity_level", "risk_level", "last_modified",
	}
	ArtifactColumns = []string{
		"path", "filename", "directory_path", "primary_classification", "all_classifications",
		"confidence_level", "confidence_scores", "special_handling", "content_summary",
		"last_modified", "file_size",
	}
	DependencyColumns = []string{
		"source_path", "target_path", "dependency_type", "strength", "last_verified",
	}
)

// Directory is one row of the directories table.
type Directory struct {
	Path                     string       `json:"path"`
	Name                     string       `json:"name"`
	ParentPath               string       `json:"parentPath,omitempty"`
	GovernanceArtifactsCount int          `json:"governanceArtifactsCount"`
	PrimaryGovernanceType    *string      `json:"primaryGovernanceType"`
	GovernanceConfidenceAvg  float64      `json:"governanceConfidenceAvg"`
	ProjectType              *ProjectType `json:"projectType"`
	ProjectConfidence        *float64     `json:"projectConfidence"`
	ProjectReasoning         []string     `json:"projectReasoning"`
	GovernanceScore          int          `json:"governanceScore"`
	ActivityLevel            string       `json:"activityLevel,omitempty"`
	RiskLevel                RiskLevel    `json:"riskLevel"`
	LastModified             time.Time    `json:"lastModified,omitzero"`

	// Degraded names the nested columns that failed to decode.
	Degraded []string `json:"-"`
}

// Classified reports whether the directory has a non-unknown project type.
func (d Directory) Classified() bool {
	return d.ProjectType != nil && d.ProjectType.Classified()
}

// Artifact is one row of the governance_artifacts table.
type Artifact struct {
	Path                  string             `json:"path"`
	Filename              string             `json:"filename"`
	DirectoryPath         string             `json:"directoryPath"`
	PrimaryClassification string             `json:"primaryClassification"`
	AllClassifications    []string           `json:"allClassifications"`
	ConfidenceLevel       ConfidenceLevel    `json:"confidenceLevel"`
	StoredConfidenceLevel ConfidenceLevel    `json:"storedConfidenceLevel,omitempty"`
	ConfidenceMismatch    bool               `json:"confidenceMismatch,omitempty"`
	ConfidenceScores      map[string]float64 `json:"confidenceScores"`
	SpecialHandling       Flags              `json:"specialHandling"`
	ContentSummary        string             `json:"contentSummary,omitempty"`
	LastModified          time.Time          `json:"lastModified,omitzero"`
	FileSize              int64              `json:"fileSize"`

	Degraded []string `json:"-"`
}

// Dependency is a directed edge: Source depends on Target.
type Dependency struct {
	SourcePath   string    `json:"sourcePath"`
	TargetPath   string    `json:"targetPath"`
	Kind         string    `json:"kind"`
	Strength     int       `json:"strength"`
	LastVerified time.Time `json:"lastVerified,omitzero"`
}

// DirectoryFromRow hydrates a directory. It never fails.
func DirectoryFromRow(r storage.Row, logger *slog.Logger) Directory {
	d := Directory{
		Path:                     r.String("path"),
		Name:                     r.String("name"),
		ParentPath:               r.String("parent_path"),
		GovernanceArtifactsCount: max(r.Int("governance_artifacts_count"), 0),
		PrimaryGovernanceType:    r.NullString("primary_governance_type"),
		GovernanceConfidenceAvg:  r.Float("governance_confidence_avg"),
		GovernanceScore:          r.Int("governance_score"),
		ActivityLevel:            r.String("activity_level"),
		RiskLevel:                RiskLevel(r.String("risk_level")),
		LastModified:             r.Time("last_modified"),
	}
	if d.RiskLevel == "" {
		d.RiskLevel = RiskUnknown
	}

	var ok bool
	if d.ProjectReasoning, ok = decodeStringList(r.String("project_reasoning")); !ok {
		d.Degraded = append(d.Degraded, "project_reasoning")
	}

	if raw := r.NullString("project_type"); raw != nil && *raw != "" {
		pt := ProjectType(*raw)
		if !pt.Classified() && pt != ProjectUnknown {
			d.Degraded = append(d.Degraded, "project_type")
			pt = ProjectUnknown
		}
		d.ProjectType = &pt
		if pt.Classified() {
			conf := 0.0
			if c := r.NullFloat("project_confidence"); c != nil {
				conf = *c
			}
			d.ProjectConfidence = &conf
		}
	}

	logDegraded(logger, "directory", d.Path, d.Degraded)
	return d
}

// ArtifactFromRow hydrates an artifact and derives its confidence level from
// the best classification score. It never fails.
func ArtifactFromRow(r storage.Row, logger *slog.Logger) Artifact {
	a := Artifact{
		Path:                  r.String("path"),
		Filename:              r.String("filename"),
		DirectoryPath:         r.String("directory_path"),
		PrimaryClassification: r.String("primary_classification"),
		ContentSummary:        r.String("content_summary"),
		LastModified:          r.Time("last_modified"),
		FileSize:              int64(r.Int("file_size")),
	}

	var ok bool
	if a.AllClassifications, ok = decodeStringList(r.String("all_classifications")); !ok {
		a.Degraded = append(a.Degraded, "all_classifications")
	}
	if a.PrimaryClassification != "" && !contains(a.AllClassifications, a.PrimaryClassification) {
		a.AllClassifications = append([]string{a.PrimaryClassification}, a.AllClassifications...)
	}
	if a.ConfidenceScores, ok = decodeScores(r.String("confidence_scores")); !ok {
		a.Degraded = append(a.Degraded, "confidence_scores")
	}
	if a.SpecialHandling, ok = decodeFlags(r.String("special_handling")); !ok {
		a.Degraded = append(a.Degraded, "special_handling")
	}

	stored := ConfidenceLevel(r.String("confidence_level"))
	if stored.Rank() < 0 {
		stored = ""
	}
	if len(a.ConfidenceScores) == 0 {
		a.ConfidenceLevel = stored
		if a.ConfidenceLevel == "" {
			a.ConfidenceLevel = ConfidenceNone
		}
	} else {
		a.ConfidenceLevel = LevelFromScore(MaxScore(a.ConfidenceScores))
		if stored != "" && stored != a.ConfidenceLevel {
			a.StoredConfidenceLevel = stored
			a.ConfidenceMismatch = true
			if logger != nil {
				logger.Debug("confidence level disagrees with scores",
					"path", a.Path,
					"stored", string(stored),
					"derived", string(a.ConfidenceLevel),
				)
			}
		}
	}

	logDegraded(logger, "artifact", a.Path, a.Degraded)
	return a
}

// MaxScore returns the largest value in scores, 0 when empty.
func MaxScore(scores map[string]float64) float64 {
	best := 0.0
	for _, v := range scores {
		if v > best {
			best = v
		}
	}
	return best
}

// DependenciesFromRows hydrates edges, dropping self-loops. Duplicates are kept.
func DependenciesFromRows(rows []storage.Row) (deps []Dependency, selfLoops int) {
	deps = make([]Dependency, 0, len(rows))
	for _, r := range rows {
		d := Dependency{
			SourcePath:   r.String("source_path"),
			TargetPath:   r.String("target_path"),
			Kind:         r.String("dependency_type"),
			Strength:     r.Int("strength"),
			LastVerified: r.Time("last_verified"),
		}
		if d.SourcePath == d.TargetPath {
			selfLoops++
			continue
		}
		deps = append(deps, d)
	}
	return deps, selfLoops
}

// DirectoriesFromRows hydrates a result set.
func DirectoriesFromRows(rows []storage.Row, logger *slog.Logger) []Directory {
	out := make([]Directory, 0, len(rows))
	for _, r := range rows {
		out = append(out, DirectoryFromRow(r, logger))
	}
	return out
}

// ArtifactsFromRows hydrates a result set.
func ArtifactsFromRows(rows []storage.Row, logger *slog.Logger) []Artifact {
	out := make([]Artifact, 0, len(rows))
	for _, r := range rows {
		out = append(out, ArtifactFromRow(r, logger))
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
