package impact

import "govinv/internal/model"

// Assessment is the evaluation of one target path.
type Assessment struct {
	Path                   string           `json:"path"`
	ChangeType             model.ChangeType `json:"changeType"`
	RiskLevel              model.RiskLevel  `json:"riskLevel"`
	RiskFactors            []string         `json:"riskFactors"`
	AffectedArtifactCount  int              `json:"affectedArtifactCount"`
	AffectedDirectoryCount int              `json:"affectedDirectoryCount"`
	HighImportanceCount    int              `json:"highImportanceCount"`
	HighConfidenceCount    int              `json:"highConfidenceCount"`
	AffectedChildren       []string         `json:"affectedChildren,omitempty"`
	Recommendations        []string         `json:"recommendations"`
	Dependencies           *DependencyView  `json:"dependencies,omitempty"`
}

// DependencyView is the inventory side of a path: its stored directory
// record and the dependency edges touching it.
type DependencyView struct {
	ExistsInInventory bool               `json:"existsInInventory"`
	StoredRiskLevel   model.RiskLevel    `json:"storedRiskLevel"`
	GovernanceScore   int                `json:"governanceScore"`
	Incoming          int                `json:"incoming"`
	Outgoing          int                `json:"outgoing"`
	Count             int                `json:"count"`
	Edges             []model.Dependency `json:"edges"`
}

// Report is the result of a multi-path analysis.
type Report struct {
	ChangeType  model.ChangeType `json:"changeType"`
	TargetPaths []string         `json:"targetPaths"`
	Assessments []Assessment     `json:"assessments"`
	OverallRisk model.RiskLevel  `json:"overallRisk"`
}
