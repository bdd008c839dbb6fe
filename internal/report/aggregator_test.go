package report

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dbsmedya/goreport/internal/logger"
	"github.com/dbsmedya/goreport/internal/monitor"
	"github.com/dbsmedya/goreport/internal/selection"
	"github.com/dbsmedya/goreport/internal/tracking"
)

type stepRecorder struct {
	steps []string
}

func (r *stepRecorder) RecordException(step string, _ error) { r.steps = append(r.steps, step) }

func (r *stepRecorder) Report(context.Context, string, *tracking.ExecutionProperties) error {
	return nil
}

func TestAggregate_AllFetchesSucceed(t *testing.T) {
	store := newFakeStore()
	run := tracking.NewRun(nil)

	s := NewAggregator(store, nil).Aggregate(context.Background(), run, Query{Filter: selection.LastInvocation()})

	require.True(t, run.Success.OK())
	assert.Equal(t, []string{"model.shop.orders", "source.shop.raw.orders", "exposure.shop.revenue"}, s.Nodes.Keys())
	assert.Equal(t, "inv-1", s.Invocation.InvocationID)
	assert.Equal(t, selection.LastInvocation(), store.lastTRQ.Filter)

	wantTotals := map[string]monitor.Totals{
		"model.shop.orders": {Passed: 1, Failures: 1},
	}
	if diff := cmp.Diff(wantTotals, s.TestResultsTotals); diff != "" {
		t.Errorf("test results totals mismatch (-want +got):\n%s", diff)
	}

	wantRunTotals := map[string]monitor.Totals{
		"model.shop.orders": {Passed: 1, Failures: 1},
	}
	if diff := cmp.Diff(wantRunTotals, s.TestRunsTotals); diff != "" {
		t.Errorf("test runs totals mismatch (-want +got):\n%s", diff)
	}

	wantModelRunTotals := map[string]monitor.Totals{
		"model.shop.orders": {Errors: 1, Passed: 1},
	}
	if diff := cmp.Diff(wantModelRunTotals, s.ModelRunsTotals); diff != "" {
		t.Errorf("model run totals mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(store.lineage, s.Lineage); diff != "" {
		t.Errorf("lineage mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_ExecutionProperties(t *testing.T) {
	run := tracking.NewRun(nil)

	NewAggregator(newFakeStore(), nil).Aggregate(context.Background(), run, Query{})

	want := map[string]any{
		tracking.PropElementaryTestCount: 1,
		tracking.PropTestResultCount:     2,
		tracking.PropModelCount:          1,
		tracking.PropSourceCount:         1,
		tracking.PropExposureCount:       1,
	}
	if diff := cmp.Diff(want, run.Props.All()); diff != "" {
		t.Errorf("execution properties mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_TestResultCountFollowsMetadata(t *testing.T) {
	store := newFakeStore()
	store.errs[StepTestResults] = errors.New("timeout")
	run := tracking.NewRun(nil)

	s := NewAggregator(store, nil).Aggregate(context.Background(), run, Query{})

	require.Empty(t, s.TestResults)
	require.Len(t, s.TestsMetadata, 2)
	assert.Equal(t, len(s.TestsMetadata), run.Props.All()[tracking.PropTestResultCount])
}

func TestAggregate_SidebarsExcludeExposures(t *testing.T) {
	run := tracking.NewRun(nil)

	s := NewAggregator(newFakeStore(), nil).Aggregate(context.Background(), run, Query{})

	models, ok := s.Sidebars.Dbt.Lookup("shop", "models")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"model.shop.orders", "source.shop.raw.orders"}, models.Files)
	_, ok = s.Nodes.Get("exposure.shop.revenue")
	assert.True(t, ok, "exposures stay in the node map")
}

func TestAggregate_PassesQueryThrough(t *testing.T) {
	store := newFakeStore()
	runs := 5
	days := 3

	NewAggregator(store, nil).Aggregate(context.Background(), tracking.NewRun(nil), Query{
		DaysBack:                 &days,
		TestRunsAmount:           &runs,
		Filter:                   selection.ByInvocationID("inv-1"),
		DisablePassedTestMetrics: true,
		DisableSamples:           true,
	})

	assert.Equal(t, &days, store.lastTRQ.DaysBack)
	assert.True(t, store.lastTRQ.DisablePassedTestMetrics)
	assert.True(t, store.lastTRQ.DisableSamples)
	assert.Equal(t, selection.ByInvocationID("inv-1"), store.lastTRQ.Filter)
	assert.Equal(t, &runs, store.perTests)
}

func TestAggregate_FailedFetchesDegrade(t *testing.T) {
	steps := []string{
		StepModels, StepSources, StepExposures, StepModelRuns, StepTestsMetadata,
		StepTestResults, StepTestRuns, StepCoverages, StepLineage,
	}

	for _, step := range steps {
		t.Run(step, func(t *testing.T) {
			store := newFakeStore()
			store.errs[step] = errors.New("warehouse unavailable")
			recorder := &stepRecorder{}
			run := tracking.NewRun(recorder)

			s := NewAggregator(store, nil).Aggregate(context.Background(), run, Query{})

			assert.False(t, run.Success.OK())
			assert.Equal(t, []string{step}, recorder.steps)
			assertNonNil(t, s)
		})
	}
}

func TestAggregate_FailureLoggedOnceAtError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewWithCore(core)
	store := newFakeStore()
	store.errs[StepCoverages] = errors.New("warehouse unavailable")
	run := tracking.NewRun(tracking.NewLogTracker(log))

	NewAggregator(store, log).Aggregate(context.Background(), run, Query{})

	errorsLogged := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errorsLogged, 1)
	assert.Equal(t, StepCoverages, errorsLogged[0].ContextMap()["step"])
	assert.Len(t, logs.FilterMessage("Step failed").FilterLevelExact(zapcore.DebugLevel).All(), 1)
}

func TestAggregate_EveryFetchFails(t *testing.T) {
	store := newFakeStore()
	for _, step := range []string{
		StepModels, StepSources, StepExposures, StepModelRuns, StepTestsMetadata,
		StepTestResults, StepTestRuns, StepCoverages, StepLineage,
	} {
		store.errs[step] = errors.New("down")
	}
	run := tracking.NewRun(nil)

	s := NewAggregator(store, nil).Aggregate(context.Background(), run, Query{})

	assert.False(t, run.Success.OK())
	assertNonNil(t, s)
	assert.Empty(t, s.Models)
	assert.Empty(t, s.TestResults)
	assert.Empty(t, s.TestResultsTotals)
	assert.Empty(t, s.ModelRunsTotals)
	assert.Empty(t, s.Lineage.Nodes)
	assert.Equal(t, 0, s.Nodes.Len())
}

func TestAggregate_TestResultsFailureClearsTotals(t *testing.T) {
	store := newFakeStore()
	store.errs[StepTestResults] = errors.New("timeout")

	s := NewAggregator(store, nil).Aggregate(context.Background(), tracking.NewRun(nil), Query{})

	assert.Empty(t, s.TestResults)
	assert.Empty(t, s.TestResultsTotals)
	assert.NotEmpty(t, s.TestRunsTotals, "totals come only from data fetched in the same call")
}

func TestAggregate_DuplicateNodeDegrades(t *testing.T) {
	store := newFakeStore()
	store.sources[0].UniqueID = store.models[0].UniqueID
	recorder := &stepRecorder{}
	run := tracking.NewRun(recorder)

	s := NewAggregator(store, nil).Aggregate(context.Background(), run, Query{})

	assert.False(t, run.Success.OK())
	assert.Equal(t, []string{StepNodes}, recorder.steps)
	assert.Equal(t, 0, s.Nodes.Len())
}

func TestAggregate_NilStoreResults(t *testing.T) {
	s := NewAggregator(&fakeStore{errs: map[string]error{}}, nil).Aggregate(context.Background(), tracking.NewRun(nil), Query{})
	assertNonNil(t, s)
}

func assertNonNil(t *testing.T, s *Snapshot) {
	t.Helper()
	assert.NotNil(t, s.Models)
	assert.NotNil(t, s.Sources)
	assert.NotNil(t, s.Exposures)
	assert.NotNil(t, s.Nodes)
	assert.NotNil(t, s.Sidebars.Dbt)
	assert.NotNil(t, s.ModelRuns)
	assert.NotNil(t, s.ModelRunsTotals)
	assert.NotNil(t, s.TestsMetadata)
	assert.NotNil(t, s.TestResults)
	assert.NotNil(t, s.TestResultsTotals)
	assert.NotNil(t, s.TestRuns)
	assert.NotNil(t, s.TestRunsTotals)
	assert.NotNil(t, s.Coverages)
	assert.NotNil(t, s.Lineage.Nodes)
	assert.NotNil(t, s.Lineage.Edges)
	assert.NotNil(t, s.Filters.TestResults)
	assert.NotNil(t, s.Filters.ModelRuns)
}
