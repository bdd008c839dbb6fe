package report

import (
	"context"

	"github.com/dbsmedya/goreport/internal/monitor"
)

// fakeStore serves fixed data and fails the steps listed in errs.
type fakeStore struct {
	models        []monitor.Model
	sources       []monitor.Source
	exposures     []monitor.Exposure
	modelRuns     []monitor.ModelRuns
	testsMetadata []monitor.TestMetadata
	testResults   map[string][]monitor.TestResult
	invocation    monitor.Invocation
	testRuns      map[string][]monitor.TestRun
	coverages     map[string]monitor.Coverage
	lineage       monitor.Lineage

	errs     map[string]error
	lastTRQ  monitor.TestResultsQuery
	perTests *int
}

func (f *fakeStore) err(step string) error { return f.errs[step] }

func (f *fakeStore) Models(context.Context, bool) ([]monitor.Model, error) {
	if err := f.err(StepModels); err != nil {
		return nil, err
	}
	return f.models, nil
}

func (f *fakeStore) Sources(context.Context) ([]monitor.Source, error) {
	if err := f.err(StepSources); err != nil {
		return nil, err
	}
	return f.sources, nil
}

func (f *fakeStore) Exposures(context.Context) ([]monitor.Exposure, error) {
	if err := f.err(StepExposures); err != nil {
		return nil, err
	}
	return f.exposures, nil
}

func (f *fakeStore) ModelRuns(context.Context, *int, bool) ([]monitor.ModelRuns, error) {
	if err := f.err(StepModelRuns); err != nil {
		return nil, err
	}
	return f.modelRuns, nil
}

func (f *fakeStore) TestsMetadata(context.Context, *int) ([]monitor.TestMetadata, error) {
	if err := f.err(StepTestsMetadata); err != nil {
		return nil, err
	}
	return f.testsMetadata, nil
}

func (f *fakeStore) TestResults(_ context.Context, q monitor.TestResultsQuery) (map[string][]monitor.TestResult, monitor.Invocation, error) {
	f.lastTRQ = q
	if err := f.err(StepTestResults); err != nil {
		return nil, monitor.Invocation{}, err
	}
	return f.testResults, f.invocation, nil
}

func (f *fakeStore) TestRuns(_ context.Context, _ *int, perTest *int) (map[string][]monitor.TestRun, error) {
	f.perTests = perTest
	if err := f.err(StepTestRuns); err != nil {
		return nil, err
	}
	return f.testRuns, nil
}

func (f *fakeStore) TestCoverages(context.Context) (map[string]monitor.Coverage, error) {
	if err := f.err(StepCoverages); err != nil {
		return nil, err
	}
	return f.coverages, nil
}

func (f *fakeStore) Lineage(context.Context, bool) (monitor.Lineage, error) {
	if err := f.err(StepLineage); err != nil {
		return monitor.Lineage{}, err
	}
	return f.lineage, nil
}

func newFakeStore() *fakeStore {
	orders := monitor.Model{
		ArtifactBase: monitor.ArtifactBase{
			UniqueID:     "model.shop.orders",
			Name:         "orders",
			PackageName:  "shop",
			OriginalPath: "models/orders.sql",
			Owners:       []string{"data-team"},
			Tags:         []string{"finance"},
		},
		Materialization: "table",
		DependsOn:       []string{"source.shop.raw.orders"},
	}
	orders.Normalize()

	raw := monitor.Source{
		ArtifactBase: monitor.ArtifactBase{
			UniqueID:     "source.shop.raw.orders",
			Name:         "orders",
			PackageName:  "shop",
			OriginalPath: "models/sources.yml",
		},
		SourceName: "raw",
	}
	raw.Normalize()

	dashboard := monitor.Exposure{
		ArtifactBase: monitor.ArtifactBase{
			UniqueID:     "exposure.shop.revenue",
			Name:         "revenue",
			PackageName:  "shop",
			OriginalPath: "models/exposures.yml",
		},
		Type:      "dashboard",
		DependsOn: []string{"model.shop.orders"},
	}
	dashboard.Normalize()

	passing := monitor.TestMetadata{
		TestUniqueID: "test.shop.not_null_orders_id", ModelUniqueID: "model.shop.orders",
		LatestRunStatus: monitor.StatusPass, TestType: monitor.DbtTestType,
	}
	anomaly := monitor.TestMetadata{
		TestUniqueID: "test.shop.volume_anomalies", ModelUniqueID: "model.shop.orders",
		LatestRunStatus: monitor.StatusFail, TestType: "anomaly_detection",
	}

	return &fakeStore{
		models:    []monitor.Model{orders},
		sources:   []monitor.Source{raw},
		exposures: []monitor.Exposure{dashboard},
		modelRuns: []monitor.ModelRuns{
			monitor.SummarizeModelRuns("model.shop.orders", []monitor.ModelRun{
				{ID: "r1", Status: monitor.RunStatusSuccess, ExecutionTime: 2},
				{ID: "r2", Status: monitor.RunStatusError, ExecutionTime: 4},
			}, ""),
		},
		testsMetadata: []monitor.TestMetadata{passing, anomaly},
		testResults: map[string][]monitor.TestResult{
			"model.shop.orders": {{Metadata: passing}, {Metadata: anomaly}},
		},
		invocation: monitor.Invocation{InvocationID: "inv-1", Command: "test"},
		testRuns: map[string][]monitor.TestRun{
			"model.shop.orders": {{
				Metadata: anomaly,
				TestRuns: monitor.TestRunHistory{Invocations: []monitor.TestInvocation{
					{ID: "inv-0", Status: monitor.StatusPass},
					{ID: "inv-1", Status: monitor.StatusFail},
				}},
			}},
		},
		coverages: map[string]monitor.Coverage{"model.shop.orders": {TableTests: 1, ColumnTests: 1}},
		lineage: monitor.Lineage{
			Nodes: []string{"source.shop.raw.orders", "model.shop.orders", "exposure.shop.revenue"},
			Edges: [][2]string{{"source.shop.raw.orders", "model.shop.orders"}, {"model.shop.orders", "exposure.shop.revenue"}},
		},
		errs: map[string]error{},
	}
}
