package report

import (
	"time"

	"github.com/dbsmedya/goreport/internal/monitor"
	"github.com/dbsmedya/goreport/internal/tracking"
)

// EnvInfo names the project and environment a report was built for.
type EnvInfo struct {
	ProjectName string `json:"project_name"`
	Env         string `json:"env"`
}

// Payload is the document embedded in the report and written as JSON.
// Field order is the key order of the output.
type Payload struct {
	CreationTime      string                          `json:"creation_time"`
	DaysBack          *int                            `json:"days_back"`
	Models            *monitor.NodeMap                `json:"models"`
	Sidebars          monitor.Sidebars                `json:"sidebars"`
	Invocation        monitor.Invocation              `json:"invocation"`
	TestResults       map[string][]monitor.TestResult `json:"test_results"`
	TestResultsTotals map[string]monitor.Totals       `json:"test_results_totals"`
	TestRuns          map[string][]monitor.TestRun    `json:"test_runs"`
	TestRunsTotals    map[string]monitor.Totals       `json:"test_runs_totals"`
	Coverages         map[string]monitor.Coverage     `json:"coverages"`
	ModelRuns         []monitor.ModelRuns             `json:"model_runs"`
	ModelRunsTotals   map[string]monitor.Totals       `json:"model_runs_totals"`
	Filters           monitor.Filters                 `json:"filters"`
	Lineage           monitor.Lineage                 `json:"lineage"`
	Tracking          tracking.Identity               `json:"tracking"`
	Env               EnvInfo                         `json:"env"`
}

// NewPayload assembles the output document from a snapshot.
func NewPayload(s *Snapshot, createdAt time.Time, daysBack *int, identity tracking.Identity, env EnvInfo) Payload {
	return Payload{
		CreationTime:      createdAt.UTC().Format(time.RFC3339),
		DaysBack:          daysBack,
		Models:            s.Nodes,
		Sidebars:          s.Sidebars,
		Invocation:        s.Invocation,
		TestResults:       s.TestResults,
		TestResultsTotals: s.TestResultsTotals,
		TestRuns:          s.TestRuns,
		TestRunsTotals:    s.TestRunsTotals,
		Coverages:         s.Coverages,
		ModelRuns:         s.ModelRuns,
		ModelRunsTotals:   s.ModelRunsTotals,
		Filters:           s.Filters,
		Lineage:           s.Lineage,
		Tracking:          identity,
		Env:               env,
	}
}
