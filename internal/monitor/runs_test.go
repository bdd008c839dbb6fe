package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelRunsSummary(t *testing.T) {
	runs := ModelRuns{UniqueID: "model.orders", Totals: ModelRunsTotals{Errors: 2, Success: 5}}

	assert.Equal(t, Totals{Errors: 2, Warnings: 0, Passed: 5, Failures: 0}, runs.Summary())
}

func TestSummarizeModelRuns(t *testing.T) {
	runs := []ModelRun{
		{ID: "r1", Status: RunStatusSuccess, ExecutionTime: 4},
		{ID: "r2", Status: RunStatusError, ExecutionTime: 1},
		{ID: "r3", Status: RunStatusSuccess, ExecutionTime: 10},
		{ID: "r4", Status: RunStatusFail, ExecutionTime: 2},
	}

	summary := SummarizeModelRuns("model.orders", runs, "select 1")

	assert.Equal(t, ModelRunsTotals{Errors: 2, Success: 2}, summary.Totals)
	assert.Equal(t, 3.0, summary.MedianExecTime)
	assert.Equal(t, 2.0, summary.LastExecTime)
	assert.Equal(t, "select 1", summary.CompiledCode)
	assert.Equal(t, 4.0, runs[0].ExecutionTime, "input must not be reordered")
}

func TestSummarizeModelRuns_NoRuns(t *testing.T) {
	summary := SummarizeModelRuns("model.orders", nil, "")

	assert.NotNil(t, summary.Runs)
	assert.Zero(t, summary.MedianExecTime)
	assert.Equal(t, Totals{}, summary.Summary())
}

func TestMedianOdd(t *testing.T) {
	assert.Equal(t, 5.0, median([]float64{9, 1, 5}))
}
