package monitor

import "sort"

// Model run statuses.
const (
	RunStatusSuccess = "success"
	RunStatusError   = "error"
	RunStatusFail    = "fail"
)

// ModelRun is one execution of a model.
type ModelRun struct {
	ID              string  `json:"id"`
	TimeUTC         string  `json:"time_utc"`
	Status          string  `json:"status"`
	FullRefresh     bool    `json:"full_refresh"`
	Materialization string  `json:"materialization"`
	ExecutionTime   float64 `json:"execution_time"`
}

// ModelRunsTotals counts a model's successful and failed runs.
type ModelRunsTotals struct {
	Errors  int `json:"errors"`
	Success int `json:"success"`
}

// ModelRuns is the run history of one model.
type ModelRuns struct {
	UniqueID       string          `json:"unique_id"`
	Runs           []ModelRun      `json:"runs"`
	Totals         ModelRunsTotals `json:"totals"`
	MedianExecTime float64         `json:"median_exec_time"`
	LastExecTime   float64         `json:"last_exec_time"`
	CompiledCode   string          `json:"compiled_code,omitempty"`
}

// Summary projects the run counters onto the test totals shape. The upstream
// run history carries no warning or failure dimension, so both stay zero.
func (m ModelRuns) Summary() Totals {
	return Totals{
		Errors:   m.Totals.Errors,
		Warnings: 0,
		Failures: 0,
		Passed:   m.Totals.Success,
	}
}

// SummarizeModelRuns builds a ModelRuns from runs ordered oldest first.
func SummarizeModelRuns(uniqueID string, runs []ModelRun, compiledCode string) ModelRuns {
	result := ModelRuns{
		UniqueID:     uniqueID,
		Runs:         runs,
		CompiledCode: compiledCode,
	}
	if result.Runs == nil {
		result.Runs = []ModelRun{}
	}

	times := make([]float64, 0, len(runs))
	for _, run := range runs {
		switch run.Status {
		case RunStatusSuccess:
			result.Totals.Success++
		case RunStatusError, RunStatusFail:
			result.Totals.Errors++
		}
		times = append(times, run.ExecutionTime)
	}

	if len(runs) > 0 {
		result.LastExecTime = runs[len(runs)-1].ExecutionTime
		result.MedianExecTime = median(times)
	}
	return result
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
