package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goreport/internal/browser"
	"github.com/dbsmedya/goreport/internal/tracking"
)

func newTestGenerator(t *testing.T, store *fakeStore, launcher *browser.Launcher) (*Generator, string) {
	t.Helper()
	dir := t.TempDir()
	warehouseID := "wh-1"
	g := NewGenerator(store, Settings{
		TargetDir:   dir,
		Env:         "prod",
		ProjectName: "shop",
		Identity: tracking.Identity{
			AnonymousUserID:      "user-1",
			AnonymousWarehouseID: &warehouseID,
		},
	}, launcher, nil)
	g.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return g, dir
}

func readPayload(t *testing.T, dir string) map[string]json.RawMessage {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, OutputJSONName))
	require.NoError(t, err)
	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}

func TestGenerate_WritesReport(t *testing.T) {
	g, dir := newTestGenerator(t, newFakeStore(), nil)
	run := tracking.NewRun(nil)

	ok, path, err := g.Generate(context.Background(), run, Options{Select: "last_invocation"})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, DefaultReportName), path)
	assert.FileExists(t, path)

	payload := readPayload(t, dir)
	for _, key := range []string{
		"creation_time", "days_back", "models", "sidebars", "invocation", "test_results",
		"test_results_totals", "test_runs", "test_runs_totals", "coverages", "model_runs",
		"model_runs_totals", "filters", "lineage", "tracking", "env",
	} {
		assert.Contains(t, payload, key)
	}
	assert.JSONEq(t, `"2024-03-01T12:00:00Z"`, string(payload["creation_time"]))
	assert.JSONEq(t, `null`, string(payload["days_back"]))
	assert.JSONEq(t, `{"project_name":"shop","env":"prod"}`, string(payload["env"]))
	assert.JSONEq(t, `{"posthog_api_key":"","report_generator_anonymous_user_id":"user-1","anonymous_warehouse_id":"wh-1"}`, string(payload["tracking"]))
}

func TestGenerate_ProjectNameOption(t *testing.T) {
	g, dir := newTestGenerator(t, newFakeStore(), nil)
	days := 7

	_, _, err := g.Generate(context.Background(), tracking.NewRun(nil), Options{ProjectName: "override", DaysBack: &days})
	require.NoError(t, err)

	payload := readPayload(t, dir)
	assert.JSONEq(t, `{"project_name":"override","env":"prod"}`, string(payload["env"]))
	assert.JSONEq(t, `7`, string(payload["days_back"]))
}

func TestGenerate_FetchFailureStillWritesReport(t *testing.T) {
	store := newFakeStore()
	store.errs[StepTestResults] = errors.New("permission denied")
	g, dir := newTestGenerator(t, store, nil)

	ok, path, err := g.Generate(context.Background(), tracking.NewRun(nil), Options{})

	require.NoError(t, err)
	assert.False(t, ok)
	assert.FileExists(t, path)
	payload := readPayload(t, dir)
	assert.JSONEq(t, `{}`, string(payload["test_results"]))
	assert.JSONEq(t, `{}`, string(payload["test_results_totals"]))
}

func TestGenerate_InvalidPathWritesNothing(t *testing.T) {
	g, dir := newTestGenerator(t, newFakeStore(), nil)

	ok, path, err := g.Generate(context.Background(), tracking.NewRun(nil), Options{FilePath: filepath.Join(dir, "report.json")})

	var pathErr *InvalidPathError
	require.ErrorAs(t, err, &pathErr)
	assert.False(t, ok)
	assert.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerate_MissingTemplateIsFatal(t *testing.T) {
	store := newFakeStore()
	g, dir := newTestGenerator(t, store, nil)
	g.settings.TemplatePath = filepath.Join(dir, "missing.html")

	_, _, err := g.Generate(context.Background(), tracking.NewRun(nil), Options{})

	var tmplErr *TemplateError
	require.ErrorAs(t, err, &tmplErr)
	assert.NoFileExists(t, filepath.Join(dir, OutputJSONName))
}

func TestGenerate_OpensBrowser(t *testing.T) {
	var opened []string
	launcher := browser.NewLauncherWith(func(url string) error {
		opened = append(opened, url)
		return nil
	}, nil)
	g, _ := newTestGenerator(t, newFakeStore(), launcher)

	_, _, err := g.Generate(context.Background(), tracking.NewRun(nil), Options{ShouldOpenBrowser: false})
	require.NoError(t, err)
	assert.Empty(t, opened)

	_, path, err := g.Generate(context.Background(), tracking.NewRun(nil), Options{ShouldOpenBrowser: true})
	require.NoError(t, err)
	require.Len(t, opened, 1)
	assert.Contains(t, opened[0], filepath.ToSlash(path))
}

func TestGenerate_BrowserFailureDoesNotFail(t *testing.T) {
	launcher := browser.NewLauncherWith(func(string) error { return errors.New("no display") }, nil)
	g, _ := newTestGenerator(t, newFakeStore(), launcher)

	ok, _, err := g.Generate(context.Background(), tracking.NewRun(nil), Options{ShouldOpenBrowser: true})

	require.NoError(t, err)
	assert.True(t, ok)
}
