package monitor

import "encoding/json"

// Test statuses reported by the upstream tool.
const (
	StatusPass  = "pass"
	StatusWarn  = "warn"
	StatusFail  = "fail"
	StatusError = "error"
)

// DbtTestType is the test type of plain generic/singular tests, as opposed to
// anomaly detection and schema change tests.
const DbtTestType = "dbt_test"

// TestMetadata describes a test and its latest run.
type TestMetadata struct {
	TestUniqueID       string          `json:"test_unique_id"`
	ElementaryUniqueID string          `json:"elementary_unique_id"`
	DatabaseName       string          `json:"database_name"`
	SchemaName         string          `json:"schema_name"`
	TableName          string          `json:"table_name"`
	ColumnName         string          `json:"column_name"`
	TestName           string          `json:"test_name"`
	TestDisplayName    string          `json:"test_display_name"`
	LatestRunTime      string          `json:"latest_run_time"`
	LatestRunStatus    string          `json:"latest_run_status"`
	ModelUniqueID      string          `json:"model_unique_id"`
	TestType           string          `json:"test_type"`
	TestSubType        string          `json:"test_sub_type"`
	TestQuery          string          `json:"test_query,omitempty"`
	TestParams         json.RawMessage `json:"test_params,omitempty"`
	Description        string          `json:"description,omitempty"`
	Tags               []string        `json:"test_tags"`
	NormalizedTestPath string          `json:"normalized_test_path,omitempty"`
}

// GroupKey is the id a test is grouped under in results and totals: its model,
// or the test itself when it is not attached to a model.
func (m TestMetadata) GroupKey() string {
	if m.ModelUniqueID != "" {
		return m.ModelUniqueID
	}
	return m.TestUniqueID
}

// ResultDetail holds the outcome of a single test execution.
type ResultDetail struct {
	ResultDescription string          `json:"result_description,omitempty"`
	FailedRowsCount   *int64          `json:"failed_rows_count"`
	ResultsSample     json.RawMessage `json:"results_sample,omitempty"`
}

// TestResult is the latest result of one test.
type TestResult struct {
	Metadata    TestMetadata `json:"metadata"`
	TestResults ResultDetail `json:"test_results"`
}

// TestInvocation is one historic execution of a test.
type TestInvocation struct {
	ID           string `json:"id"`
	TimeUTC      string `json:"time_utc"`
	Status       string `json:"status"`
	AffectedRows *int64 `json:"affected_rows"`
}

// TestRunHistory is the recent execution history of a test.
type TestRunHistory struct {
	Invocations []TestInvocation `json:"invocations"`
	Description string           `json:"description"`
}

// TestRun pairs test metadata with its execution history.
type TestRun struct {
	Metadata TestMetadata   `json:"metadata"`
	TestRuns TestRunHistory `json:"test_runs"`
}

// Coverage counts tests applied to a model.
type Coverage struct {
	TableTests  int `json:"table_tests"`
	ColumnTests int `json:"column_tests"`
}

// Invocation describes one execution run of the upstream tool.
type Invocation struct {
	InvocationID string `json:"invocation_id,omitempty"`
	DetectedAt   string `json:"detected_at,omitempty"`
	Command      string `json:"command,omitempty"`
	Selected     string `json:"selected,omitempty"`
	FullRefresh  *bool  `json:"full_refresh,omitempty"`
	JobURL       string `json:"job_url,omitempty"`
	JobName      string `json:"job_name,omitempty"`
	JobID        string `json:"job_id,omitempty"`
	Orchestrator string `json:"orchestrator,omitempty"`
}

// Lineage is the dependency graph between report nodes.
type Lineage struct {
	Nodes []string    `json:"nodes"`
	Edges [][2]string `json:"edges"`
}

// EmptyLineage returns a lineage with non-nil, empty collections.
func EmptyLineage() Lineage {
	return Lineage{Nodes: []string{}, Edges: [][2]string{}}
}
