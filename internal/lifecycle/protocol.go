package lifecycle

import (
	"regexp"
	"strconv"
	"strings"
)

// The maintenance process speaks a line-oriented text protocol on stdout.
// Everything that knows its markers lives in this file.

// Mode flags understood by the maintenance process.
const (
	FlagDetectOnly      = "--detect-only"
	FlagHealthOnly      = "--health-only"
	FlagReportOnly      = "--report-only"
	FlagFullMaintenance = "--full-maintenance"
	FlagDryRun          = "--dry-run"
)

// Overall health status values.
const (
	HealthExcellent      = "excellent"
	HealthGood           = "good"
	HealthNeedsAttention = "needs_attention"
	HealthPoor           = "poor"
)

const (
	markerScript    = "📜 Script:"
	markerData      = "📁 Data:"
	markerPriority  = "🎯"
	markerCompleted = "✅ Maintenance completed successfully"
	markerReport    = "📊 Report:"
	markerSaved     = "Report saved:"
	markerFailure   = "❌"
	markerError     = "ERROR"
)

var (
	reDeprecated      = regexp.MustCompile(`Found (\d+) deprecated components`)
	reScript          = regexp.MustCompile(`^📜 Script: (.+?) - (.+)$`)
	reData            = regexp.MustCompile(`^📁 Data: (.+?) - (.+)$`)
	reDatabase        = regexp.MustCompile(`Database: (\d+) artifacts, (\d+) stale`)
	reRecommendations = regexp.MustCompile(`Recommendations: (\d+)`)
	rePriority        = regexp.MustCompile(`^🎯 (.+?): (.+)$`)
	reArchived        = regexp.MustCompile(`Archived (\d+) scripts`)
	reMegabytes       = regexp.MustCompile(`([\d.]+)\s*MB`)
	// Log lines carry a timestamp prefix, so the count must follow the keyword.
	reCleanupCounter  = regexp.MustCompile(`(?i)\b(?:archived|cleaned|processed)\s+(\d+)`)
)

// Component is one deprecated script or data file.
type Component struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// DeprecatedComponents is the parsed output of a detection run.
type DeprecatedComponents struct {
	Scripts    []Component `json:"scripts"`
	DataFiles  []Component `json:"dataFiles"`
	TotalCount int         `json:"totalCount"`
}

// DatabaseStatus is the inventory summary line of a health run.
type DatabaseStatus struct {
	TotalArtifacts int `json:"totalArtifacts"`
	StaleArtifacts int `json:"staleArtifacts"`
}

// HealthRecommendation is one prioritized action from a health run.
type HealthRecommendation struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
}

// HealthAnalysis is the parsed output of a health run.
type HealthAnalysis struct {
	DatabaseStatus       *DatabaseStatus        `json:"databaseStatus,omitempty"`
	RecommendationsCount int                    `json:"recommendationsCount"`
	Recommendations      []HealthRecommendation `json:"recommendations"`
	OverallStatus        string                 `json:"overallStatus"`
}

// MaintenanceResult is the parsed output of a full maintenance run.
type MaintenanceResult struct {
	DryRun                bool     `json:"dryRun"`
	CompletedSuccessfully bool     `json:"completedSuccessfully"`
	ReportGenerated       bool     `json:"reportGenerated"`
	ComponentsArchived    int      `json:"componentsArchived"`
	Errors                []string `json:"errors"`
}

// CleanupResult is the parsed output of a cleanup run.
type CleanupResult struct {
	DryRun         bool     `json:"dryRun"`
	CleanupType    string   `json:"cleanupType"`
	MaxAgeDays     int      `json:"maxAgeDays"`
	ItemsProcessed int      `json:"itemsProcessed"`
	SpaceSavedMB   float64  `json:"spaceSavedMb"`
	Errors         []string `json:"errors"`
}

func lines(out string) []string {
	raw := strings.Split(out, "\n")
	res := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			res = append(res, l)
		}
	}
	return res
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func isErrorLine(l string) bool {
	return strings.Contains(l, markerFailure) || strings.Contains(l, markerError)
}

// ParseDetection extracts deprecated components from detection output.
func ParseDetection(out string) DeprecatedComponents {
	d := DeprecatedComponents{Scripts: []Component{}, DataFiles: []Component{}}
	for _, l := range lines(out) {
		switch {
		case strings.HasPrefix(l, markerScript):
			if m := reScript.FindStringSubmatch(l); m != nil {
				d.Scripts = append(d.Scripts, Component{Path: m[1], Reason: m[2]})
			}
		case strings.HasPrefix(l, markerData):
			if m := reData.FindStringSubmatch(l); m != nil {
				d.DataFiles = append(d.DataFiles, Component{Path: m[1], Reason: m[2]})
			}
		default:
			if m := reDeprecated.FindStringSubmatch(l); m != nil {
				d.TotalCount = atoi(m[1])
			}
		}
	}
	return d
}

// ParseHealth extracts the database status and recommendations from health
// output and derives the overall status.
func ParseHealth(out string) HealthAnalysis {
	h := HealthAnalysis{Recommendations: []HealthRecommendation{}}
	for _, l := range lines(out) {
		if strings.HasPrefix(l, markerPriority) {
			if m := rePriority.FindStringSubmatch(l); m != nil {
				h.Recommendations = append(h.Recommendations, HealthRecommendation{Priority: m[1], Action: m[2]})
			}
			continue
		}
		if m := reDatabase.FindStringSubmatch(l); m != nil {
			h.DatabaseStatus = &DatabaseStatus{TotalArtifacts: atoi(m[1]), StaleArtifacts: atoi(m[2])}
			continue
		}
		if m := reRecommendations.FindStringSubmatch(l); m != nil {
			h.RecommendationsCount = atoi(m[1])
		}
	}
	h.OverallStatus = OverallStatus(h.DatabaseStatus, len(h.Recommendations))
	return h
}

// OverallStatus grades framework health. Excellent requires a reported
// database status with no stale artifacts and no recommendations.
func OverallStatus(db *DatabaseStatus, recommendations int) string {
	switch {
	case db != nil && db.StaleArtifacts == 0 && recommendations == 0:
		return HealthExcellent
	case recommendations <= 2:
		return HealthGood
	case recommendations <= 5:
		return HealthNeedsAttention
	default:
		return HealthPoor
	}
}

// ParseMaintenance extracts counters and error lines from maintenance output.
func ParseMaintenance(out string, dryRun bool) MaintenanceResult {
	r := MaintenanceResult{
		DryRun:                dryRun,
		CompletedSuccessfully: strings.Contains(out, markerCompleted),
		Errors:                []string{},
	}
	for _, l := range lines(out) {
		switch {
		case reArchived.MatchString(l):
			r.ComponentsArchived += atoi(reArchived.FindStringSubmatch(l)[1])
		case strings.Contains(l, markerSaved) || strings.Contains(l, markerReport):
			r.ReportGenerated = true
		case isErrorLine(l):
			r.Errors = append(r.Errors, l)
		}
	}
	return r
}

// ParseReportPath returns the path announced by a report run, if any.
func ParseReportPath(out string) (string, bool) {
	for _, l := range lines(out) {
		for _, marker := range []string{markerSaved, markerReport} {
			if _, after, ok := strings.Cut(l, marker); ok {
				if p := strings.TrimSpace(after); p != "" {
					return p, true
				}
			}
		}
	}
	return "", false
}

// ParseCleanup sums processed items and reclaimed megabytes from cleanup output.
func ParseCleanup(out string, params CleanupParams) CleanupResult {
	r := CleanupResult{
		DryRun:      !params.Apply,
		CleanupType: params.CleanupType,
		MaxAgeDays:  params.MaxAgeDays,
		Errors:      []string{},
	}
	for _, l := range lines(out) {
		switch {
		case reCleanupCounter.MatchString(l):
			r.ItemsProcessed += atoi(reCleanupCounter.FindStringSubmatch(l)[1])
		case strings.Contains(l, "MB"):
			if m := reMegabytes.FindStringSubmatch(l); m != nil {
				if f, err := strconv.ParseFloat(m[1], 64); err == nil {
					r.SpaceSavedMB += f
				}
			}
		case isErrorLine(l):
			r.Errors = append(r.Errors, l)
		}
	}
	return r
}
