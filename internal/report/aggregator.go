// Package report assembles observability metadata into a snapshot and
// renders it as a self-contained HTML report plus a raw JSON document.
package report

import (
	"context"

	"github.com/dbsmedya/goreport/internal/logger"
	"github.com/dbsmedya/goreport/internal/monitor"
	"github.com/dbsmedya/goreport/internal/selection"
	"github.com/dbsmedya/goreport/internal/tracking"
)

// Steps of the aggregation, used as log and telemetry labels.
const (
	StepModels        = "models"
	StepSources       = "sources"
	StepExposures     = "exposures"
	StepNodes         = "nodes"
	StepModelRuns     = "model_runs"
	StepTestsMetadata = "tests_metadata"
	StepTestResults   = "test_results"
	StepTestRuns      = "test_runs"
	StepCoverages     = "coverages"
	StepLineage       = "lineage"
)

// Query parameterizes one aggregation.
type Query struct {
	DaysBack                 *int
	TestRunsAmount           *int
	Filter                   selection.Filter
	DisablePassedTestMetrics bool
	DisableSamples           bool
	ExcludeElementaryModels  bool
}

// Snapshot is everything fetched for one report. Every collection is
// non-nil, including after a failed fetch.
type Snapshot struct {
	Models    []monitor.Model
	Sources   []monitor.Source
	Exposures []monitor.Exposure
	Nodes     *monitor.NodeMap
	Sidebars  monitor.Sidebars

	ModelRuns       []monitor.ModelRuns
	ModelRunsTotals map[string]monitor.Totals

	TestsMetadata     []monitor.TestMetadata
	TestResults       map[string][]monitor.TestResult
	TestResultsTotals map[string]monitor.Totals
	Invocation        monitor.Invocation
	TestRuns          map[string][]monitor.TestRun
	TestRunsTotals    map[string]monitor.Totals

	Coverages map[string]monitor.Coverage
	Lineage   monitor.Lineage
	Filters   monitor.Filters
}

// Aggregator fetches report data from a store.
type Aggregator struct {
	store  monitor.Store
	logger *logger.Logger
}

// NewAggregator creates an aggregator reading from store.
func NewAggregator(store monitor.Store, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Aggregator{store: store, logger: log}
}

// guard runs one fetch. On error it logs, records the failure on the run
// and returns fallback so the report can still be produced.
func guard[T any](ctx context.Context, a *Aggregator, run *tracking.Run, step string, fallback T, fetch func(context.Context) (T, error)) T {
	v, err := fetch(ctx)
	if err != nil {
		a.logger.WithStep(step).Errorw("Unable to fetch report data, continuing without it", "error", err)
		run.Fail(step, err)
		return fallback
	}
	return v
}

// Aggregate runs every fetch in sequence and assembles the snapshot. It
// does not return an error: failed fetches degrade to empty data and mark
// the run unsuccessful.
func (a *Aggregator) Aggregate(ctx context.Context, run *tracking.Run, q Query) *Snapshot {
	s := &Snapshot{}

	s.Models = orEmptySlice(guard(ctx, a, run, StepModels, []monitor.Model{}, func(ctx context.Context) ([]monitor.Model, error) {
		return a.store.Models(ctx, q.ExcludeElementaryModels)
	}))
	s.Sources = orEmptySlice(guard(ctx, a, run, StepSources, []monitor.Source{}, a.store.Sources))
	s.Exposures = orEmptySlice(guard(ctx, a, run, StepExposures, []monitor.Exposure{}, a.store.Exposures))

	s.Nodes = guard(ctx, a, run, StepNodes, monitor.NewNodeMap(), func(context.Context) (*monitor.NodeMap, error) {
		return monitor.MergeNodes(s.Models, s.Sources, s.Exposures)
	})

	// Exposures stay in the node map but are not listed in the sidebars.
	sidebarNodes := make([]monitor.Artifact, 0, len(s.Models)+len(s.Sources))
	for i := range s.Models {
		sidebarNodes = append(sidebarNodes, &s.Models[i])
	}
	for i := range s.Sources {
		sidebarNodes = append(sidebarNodes, &s.Sources[i])
	}
	s.Sidebars = monitor.BuildSidebars(sidebarNodes)

	s.ModelRuns = orEmptySlice(guard(ctx, a, run, StepModelRuns, []monitor.ModelRuns{}, func(ctx context.Context) ([]monitor.ModelRuns, error) {
		return a.store.ModelRuns(ctx, q.DaysBack, q.ExcludeElementaryModels)
	}))
	s.ModelRunsTotals = make(map[string]monitor.Totals, len(s.ModelRuns))
	for _, runs := range s.ModelRuns {
		s.ModelRunsTotals[runs.UniqueID] = runs.Summary()
	}

	s.TestsMetadata = orEmptySlice(guard(ctx, a, run, StepTestsMetadata, []monitor.TestMetadata{}, func(ctx context.Context) ([]monitor.TestMetadata, error) {
		return a.store.TestsMetadata(ctx, q.DaysBack)
	}))

	a.fetchTestResults(ctx, run, q, s)
	a.fetchTestRuns(ctx, run, q, s)

	s.Coverages = orEmptyMap(guard(ctx, a, run, StepCoverages, map[string]monitor.Coverage{}, a.store.TestCoverages))

	s.Lineage = guard(ctx, a, run, StepLineage, monitor.EmptyLineage(), func(ctx context.Context) (monitor.Lineage, error) {
		return a.store.Lineage(ctx, q.ExcludeElementaryModels)
	})
	if s.Lineage.Nodes == nil {
		s.Lineage.Nodes = []string{}
	}
	if s.Lineage.Edges == nil {
		s.Lineage.Edges = [][2]string{}
	}

	s.Filters = monitor.BuildFilters(s.TestResultsTotals, s.TestRunsTotals, s.Models, s.Sources, s.ModelRuns)

	a.recordCounts(run, s)
	return s
}

type testResultsFetch struct {
	results    map[string][]monitor.TestResult
	invocation monitor.Invocation
}

// fetchTestResults fetches results and derives their totals inside one
// boundary, so a failure leaves both empty.
func (a *Aggregator) fetchTestResults(ctx context.Context, run *tracking.Run, q Query, s *Snapshot) {
	fetched := guard(ctx, a, run, StepTestResults, testResultsFetch{}, func(ctx context.Context) (testResultsFetch, error) {
		results, invocation, err := a.store.TestResults(ctx, monitor.TestResultsQuery{
			Filter:                   q.Filter,
			DaysBack:                 q.DaysBack,
			DisablePassedTestMetrics: q.DisablePassedTestMetrics,
			DisableSamples:           q.DisableSamples,
		})
		return testResultsFetch{results: results, invocation: invocation}, err
	})

	s.TestResults = orEmptyMap(fetched.results)
	s.Invocation = fetched.invocation
	s.TestResultsTotals = monitor.TestResultsTotals(monitor.FlattenResultsMetadata(s.TestResults))
}

func (a *Aggregator) fetchTestRuns(ctx context.Context, run *tracking.Run, q Query, s *Snapshot) {
	runs := guard(ctx, a, run, StepTestRuns, map[string][]monitor.TestRun{}, func(ctx context.Context) (map[string][]monitor.TestRun, error) {
		return a.store.TestRuns(ctx, q.DaysBack, q.TestRunsAmount)
	})

	s.TestRuns = orEmptyMap(runs)
	history := make(map[string][]monitor.TestInvocation)
	for _, group := range s.TestRuns {
		for _, r := range group {
			history[r.Metadata.TestUniqueID] = r.TestRuns.Invocations
		}
	}
	s.TestRunsTotals = monitor.TestRunsTotals(monitor.FlattenRunsMetadata(s.TestRuns), history)
}

func (a *Aggregator) recordCounts(run *tracking.Run, s *Snapshot) {
	elementaryTests := 0
	for _, test := range s.TestsMetadata {
		if test.TestType != monitor.DbtTestType {
			elementaryTests++
		}
	}

	run.Props.Set(tracking.PropElementaryTestCount, elementaryTests)
	run.Props.Set(tracking.PropTestResultCount, len(s.TestsMetadata))
	run.Props.Set(tracking.PropModelCount, len(s.Models))
	run.Props.Set(tracking.PropSourceCount, len(s.Sources))
	run.Props.Set(tracking.PropExposureCount, len(s.Exposures))
}

func orEmptySlice[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func orEmptyMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}
