package monitor

import (
	"context"

	"github.com/dbsmedya/goreport/internal/selection"
)

// TestResultsQuery parameterizes a test results fetch.
type TestResultsQuery struct {
	Filter                   selection.Filter
	DaysBack                 *int
	DisablePassedTestMetrics bool
	DisableSamples           bool
}

// Store is the read-only metadata service a report is assembled from.
// Implementations must return non-nil collections on success.
type Store interface {
	Models(ctx context.Context, excludeElementary bool) ([]Model, error)
	Sources(ctx context.Context) ([]Source, error)
	Exposures(ctx context.Context) ([]Exposure, error)
	ModelRuns(ctx context.Context, daysBack *int, excludeElementary bool) ([]ModelRuns, error)
	TestsMetadata(ctx context.Context, daysBack *int) ([]TestMetadata, error)

	// TestResults returns the latest result per test grouped by model, and the
	// invocation the results were selected from.
	TestResults(ctx context.Context, q TestResultsQuery) (map[string][]TestResult, Invocation, error)

	// TestRuns returns test execution histories grouped by model.
	TestRuns(ctx context.Context, daysBack, perTest *int) (map[string][]TestRun, error)

	TestCoverages(ctx context.Context) (map[string]Coverage, error)
	Lineage(ctx context.Context, excludeElementary bool) (Lineage, error)
}
