// Package lifecycle drives the external governance maintenance process and
// turns its text output into structured results. Every invocation that can
// archive files runs as a dry run unless Apply is set.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"govinv/internal/errors"
)

// Phase is a step of one coordinator invocation.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseDetecting   Phase = "detecting"
	PhaseReporting   Phase = "reporting"
	PhaseMaintaining Phase = "maintaining"
)

// Cleanup types.
const (
	CleanupStaleData            = "stale_data"
	CleanupDeprecatedComponents = "deprecated_components"
	CleanupAll                  = "all"
)

// CleanupTypes lists the accepted cleanup types.
var CleanupTypes = []string{CleanupStaleData, CleanupDeprecatedComponents, CleanupAll}

// DefaultMaxAgeDays is the cleanup age limit when none is given.
const DefaultMaxAgeDays = 30

// Status recommendation targets.
const (
	CommandRunMaintenance = "run_automated_maintenance"
	CommandAnalyzeHealth  = "analyze_governance_health"
)

// Run records one maintenance process invocation.
type Run struct {
	RunID      string    `json:"runId"`
	Args       []string  `json:"args"`
	Phases     []Phase   `json:"phases"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
}

// DetectionResult is returned by DetectDeprecated.
type DetectionResult struct {
	Run                  Run                  `json:"run"`
	DeprecatedComponents DeprecatedComponents `json:"deprecatedComponents"`
	RawOutput            string               `json:"rawOutput"`
}

// HealthResult is returned by AnalyzeHealth.
type HealthResult struct {
	Run            Run            `json:"run"`
	HealthAnalysis HealthAnalysis `json:"healthAnalysis"`
	RawOutput      string         `json:"rawOutput"`
}

// MaintenanceParams controls RunMaintenance. The zero value is a dry run.
type MaintenanceParams struct {
	Apply bool
}

// MaintenanceRun is returned by RunMaintenance.
type MaintenanceRun struct {
	Run                Run               `json:"run"`
	MaintenanceResults MaintenanceResult `json:"maintenanceResults"`
	RawOutput          string            `json:"rawOutput"`
}

// Report is a saved maintenance report.
type Report struct {
	Path        string    `json:"path"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generatedAt"`
	SizeKB      int       `json:"sizeKb"`
}

// ReportResult is returned by GenerateReport.
type ReportResult struct {
	Run       Run    `json:"run"`
	Report    Report `json:"report"`
	RawOutput string `json:"rawOutput"`
}

// CleanupParams controls Cleanup. The zero value is a dry run of a
// stale_data cleanup with the default age limit.
type CleanupParams struct {
	MaxAgeDays  int
	Apply       bool
	CleanupType string
}

// CleanupRun is returned by Cleanup.
type CleanupRun struct {
	Run            Run           `json:"run"`
	CleanupResults CleanupResult `json:"cleanupResults"`
	RawOutput      string        `json:"rawOutput"`
}

// StatusRecommendation is one prioritized follow-up from Status.
type StatusRecommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Action   string `json:"action"`
	Command  string `json:"command"`
}

// Status combines a health analysis with a deprecation scan.
type Status struct {
	LastCheck            time.Time              `json:"lastCheck"`
	GovernanceHealth     HealthAnalysis         `json:"governanceHealth"`
	DeprecatedComponents DeprecatedComponents   `json:"deprecatedComponents"`
	MaintenanceNeeded    bool                   `json:"maintenanceNeeded"`
	Recommendations      []StatusRecommendation `json:"recommendations"`
	Runs                 []Run                  `json:"runs"`
}

// Coordinator sequences maintenance invocations. It keeps no state between
// calls and is safe for concurrent use if its Runner is.
type Coordinator struct {
	runner  Runner
	workDir string
	logger  *slog.Logger

	now      func() time.Time
	newID    func() string
	readFile func(string) ([]byte, error)
}

// NewCoordinator creates a coordinator. workDir resolves relative report paths.
func NewCoordinator(runner Runner, workDir string, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		runner:   runner,
		workDir:  workDir,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
		readFile: os.ReadFile,
	}
}

// tracker accumulates the phase trail of a single invocation.
type tracker struct {
	run   Run
	start time.Time
}

func (c *Coordinator) begin() *tracker {
	start := c.now()
	return &tracker{
		run:   Run{RunID: c.newID(), Phases: []Phase{PhaseIdle}, StartedAt: start.UTC()},
		start: start,
	}
}

func (t *tracker) enter(p Phase) {
	t.run.Phases = append(t.run.Phases, p)
}

func (c *Coordinator) finish(t *tracker) Run {
	t.enter(PhaseIdle)
	t.run.DurationMs = c.now().Sub(t.start).Milliseconds()
	return t.run
}

// invoke runs the process once inside the given working phase.
func (c *Coordinator) invoke(ctx context.Context, t *tracker, phase Phase, args []string) (*Invocation, error) {
	t.run.Args = args
	t.enter(phase)
	inv, err := c.runner.Run(ctx, args)
	if err != nil {
		c.logger.Warn("Maintenance invocation failed",
			"runId", t.run.RunID,
			"phase", string(phase),
			"error", err.Error(),
		)
		return nil, err
	}
	c.logger.Info("Maintenance invocation completed",
		"runId", t.run.RunID,
		"phase", string(phase),
		"duration", inv.Duration,
	)
	return inv, nil
}

// DetectDeprecated lists scripts and data files the process considers deprecated.
func (c *Coordinator) DetectDeprecated(ctx context.Context) (*DetectionResult, error) {
	t := c.begin()
	inv, err := c.invoke(ctx, t, PhaseDetecting, []string{FlagDetectOnly})
	if err != nil {
		return nil, err
	}
	return &DetectionResult{
		Run:                  c.finish(t),
		DeprecatedComponents: ParseDetection(inv.Stdout),
		RawOutput:            inv.Stdout,
	}, nil
}

// AnalyzeHealth reports the health of the governance framework.
func (c *Coordinator) AnalyzeHealth(ctx context.Context) (*HealthResult, error) {
	t := c.begin()
	t.enter(PhaseDetecting)
	inv, err := c.invoke(ctx, t, PhaseReporting, []string{FlagHealthOnly})
	if err != nil {
		return nil, err
	}
	return &HealthResult{
		Run:            c.finish(t),
		HealthAnalysis: ParseHealth(inv.Stdout),
		RawOutput:      inv.Stdout,
	}, nil
}

func maintenanceArgs(apply bool) []string {
	args := []string{FlagFullMaintenance}
	if !apply {
		args = append(args, FlagDryRun)
	}
	return args
}

// RunMaintenance runs the full maintenance cycle.
func (c *Coordinator) RunMaintenance(ctx context.Context, p MaintenanceParams) (*MaintenanceRun, error) {
	t := c.begin()
	t.enter(PhaseDetecting)
	inv, err := c.invoke(ctx, t, PhaseMaintaining, maintenanceArgs(p.Apply))
	if err != nil {
		return nil, err
	}
	return &MaintenanceRun{
		Run:                c.finish(t),
		MaintenanceResults: ParseMaintenance(inv.Stdout, !p.Apply),
		RawOutput:          inv.Stdout,
	}, nil
}

// GenerateReport asks the process for a report and reads the saved file.
func (c *Coordinator) GenerateReport(ctx context.Context) (*ReportResult, error) {
	t := c.begin()
	t.enter(PhaseDetecting)
	inv, err := c.invoke(ctx, t, PhaseReporting, []string{FlagReportOnly})
	if err != nil {
		return nil, err
	}

	failed := func(cause error) error {
		return errors.NewSubprocessFailed("report generation failed or file not found", cause,
			errors.SubprocessDetails{Args: inv.Args, Stdout: inv.Stdout, Stderr: inv.Stderr})
	}

	reportPath, ok := ParseReportPath(inv.Stdout)
	if !ok {
		return nil, failed(nil)
	}
	if !filepath.IsAbs(reportPath) && c.workDir != "" {
		reportPath = filepath.Join(c.workDir, reportPath)
	}
	content, err := c.readFile(reportPath)
	if err != nil {
		c.logger.Warn("Report file unreadable", "path", reportPath, "error", err.Error())
		return nil, failed(err)
	}

	return &ReportResult{
		Run: c.finish(t),
		Report: Report{
			Path:        reportPath,
			Content:     string(content),
			GeneratedAt: c.now().UTC(),
			SizeKB:      int(math.Round(float64(len(content)) / 1024)),
		},
		RawOutput: inv.Stdout,
	}, nil
}

func (p *CleanupParams) normalize() error {
	if p.CleanupType == "" {
		p.CleanupType = CleanupStaleData
	}
	valid := false
	for _, ct := range CleanupTypes {
		if p.CleanupType == ct {
			valid = true
			break
		}
	}
	if !valid {
		return errors.NewInvalidEnum("cleanupType", p.CleanupType, CleanupTypes)
	}
	switch {
	case p.MaxAgeDays == 0:
		p.MaxAgeDays = DefaultMaxAgeDays
	case p.MaxAgeDays < 0:
		return errors.NewInvalidArgument("maxAgeDays", "must be a positive number of days")
	}
	return nil
}

// Cleanup runs a maintenance cycle and reports what was or would be removed.
// Every cleanup type drives the same full maintenance mode; the age limit is
// echoed in the result.
func (c *Coordinator) Cleanup(ctx context.Context, p CleanupParams) (*CleanupRun, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}
	t := c.begin()
	t.enter(PhaseDetecting)
	inv, err := c.invoke(ctx, t, PhaseMaintaining, maintenanceArgs(p.Apply))
	if err != nil {
		return nil, err
	}
	return &CleanupRun{
		Run:            c.finish(t),
		CleanupResults: ParseCleanup(inv.Stdout, p),
		RawOutput:      inv.Stdout,
	}, nil
}

// Status runs a health analysis and a deprecation scan and derives whether
// maintenance is needed. Health issues are listed before cleanup.
func (c *Coordinator) Status(ctx context.Context) (*Status, error) {
	health, err := c.AnalyzeHealth(ctx)
	if err != nil {
		return nil, err
	}
	detection, err := c.DetectDeprecated(ctx)
	if err != nil {
		return nil, err
	}

	st := &Status{
		LastCheck:            c.now().UTC(),
		GovernanceHealth:     health.HealthAnalysis,
		DeprecatedComponents: detection.DeprecatedComponents,
		Recommendations:      []StatusRecommendation{},
		Runs:                 []Run{health.Run, detection.Run},
	}

	if n := len(health.HealthAnalysis.Recommendations); n > 0 {
		st.MaintenanceNeeded = true
		st.Recommendations = append(st.Recommendations, StatusRecommendation{
			Type:     "health",
			Priority: "high",
			Action:   fmt.Sprintf("Address %d governance health issues", n),
			Command:  CommandAnalyzeHealth,
		})
	}
	if n := detection.DeprecatedComponents.TotalCount; n > 0 {
		st.MaintenanceNeeded = true
		st.Recommendations = append(st.Recommendations, StatusRecommendation{
			Type:     "cleanup",
			Priority: "medium",
			Action:   fmt.Sprintf("Archive %d deprecated components", n),
			Command:  CommandRunMaintenance,
		})
	}
	return st, nil
}
