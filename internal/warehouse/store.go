package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dbsmedya/goreport/internal/graph"
	"github.com/dbsmedya/goreport/internal/logger"
	"github.com/dbsmedya/goreport/internal/monitor"
	"github.com/dbsmedya/goreport/internal/selection"
	"github.com/dbsmedya/goreport/internal/sqlutil"
)

// Monitoring tables written by the upstream package.
const (
	tableModels      = "dbt_models"
	tableSources     = "dbt_sources"
	tableExposures   = "dbt_exposures"
	tableRunResults  = "dbt_run_results"
	tableTests       = "dbt_tests"
	tableTestResults = "elementary_test_results"
	tableInvocations = "dbt_invocations"
)

// elementaryPackage is the package name of the monitoring package's own models.
const elementaryPackage = "elementary"

const timeLayout = "2006-01-02T15:04:05Z07:00"

// Store implements monitor.Store on top of the monitoring schema.
type Store struct {
	db     *sql.DB
	schema string
	logger *logger.Logger
	now    func() time.Time
}

var _ monitor.Store = (*Store)(nil)

// NewStore creates a store reading from the given schema. The schema name is
// validated once here since it is interpolated into every query.
func NewStore(db *sql.DB, schema string, log *logger.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if _, err := sqlutil.QuoteIdentifierSafe(schema); err != nil {
		return nil, fmt.Errorf("invalid monitoring schema: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{db: db, schema: schema, logger: log, now: time.Now}, nil
}

func (s *Store) table(name string) string {
	qualified, _ := sqlutil.QualifiedTable(s.schema, name)
	return qualified
}

// since returns a filter fragment limiting column to the lookback window.
func (s *Store) since(column string, daysBack *int) (string, []any) {
	if daysBack == nil {
		return "", nil
	}
	return " AND " + column + " >= ?", []any{s.now().UTC().AddDate(0, 0, -*daysBack)}
}

func formatTime(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.UTC().Format(timeLayout)
}

// Models returns all models, ordered by unique id.
func (s *Store) Models(ctx context.Context, excludeElementary bool) ([]monitor.Model, error) {
	query := fmt.Sprintf(`SELECT unique_id, name, database_name, schema_name, alias, owner, tags,
		package_name, description, original_path, materialization, depends_on_nodes
		FROM %s WHERE 1=1`, s.table(tableModels))
	var args []any
	if excludeElementary {
		query += " AND package_name <> ?"
		args = append(args, elementaryPackage)
	}
	query += " ORDER BY unique_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	models := []monitor.Model{}
	for rows.Next() {
		var m monitor.Model
		var name, db, schema, alias, owner, tags, pkg, desc, path sql.NullString
		var materialization, dependsOn sql.NullString
		if err := rows.Scan(&m.UniqueID, &name, &db, &schema, &alias, &owner, &tags,
			&pkg, &desc, &path, &materialization, &dependsOn); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		m.Name = name.String
		m.DatabaseName = db.String
		m.SchemaName = schema.String
		m.TableName = alias.String
		m.Owners = stringList(owner)
		m.Tags = stringList(tags)
		m.PackageName = pkg.String
		m.Description = desc.String
		m.OriginalPath = path.String
		m.Materialization = materialization.String
		m.DependsOn = stringList(dependsOn)
		m.Normalize()
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read models: %w", err)
	}
	return models, nil
}

// Sources returns all sources, ordered by unique id.
func (s *Store) Sources(ctx context.Context) ([]monitor.Source, error) {
	query := fmt.Sprintf(`SELECT unique_id, name, source_name, database_name, schema_name, identifier,
		owner, tags, package_name, description, original_path
		FROM %s ORDER BY unique_id`, s.table(tableSources))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	sources := []monitor.Source{}
	for rows.Next() {
		var src monitor.Source
		var name, sourceName, db, schema, identifier, owner, tags, pkg sql.NullString
		var desc, path sql.NullString
		if err := rows.Scan(&src.UniqueID, &name, &sourceName, &db, &schema, &identifier,
			&owner, &tags, &pkg, &desc, &path); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		src.Name = name.String
		src.SourceName = sourceName.String
		src.DatabaseName = db.String
		src.SchemaName = schema.String
		src.TableName = identifier.String
		src.Owners = stringList(owner)
		src.Tags = stringList(tags)
		src.PackageName = pkg.String
		src.Description = desc.String
		src.OriginalPath = path.String
		src.Normalize()
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}
	return sources, nil
}

// Exposures returns all exposures, ordered by unique id.
func (s *Store) Exposures(ctx context.Context) ([]monitor.Exposure, error) {
	query := fmt.Sprintf(`SELECT unique_id, name, label, type, maturity, url, owner_email, owner_name,
		tags, package_name, description, original_path, depends_on_nodes
		FROM %s ORDER BY unique_id`, s.table(tableExposures))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query exposures: %w", err)
	}
	defer rows.Close()

	exposures := []monitor.Exposure{}
	for rows.Next() {
		var e monitor.Exposure
		var name, label, typ, maturity, url, ownerEmail, ownerName, tags, pkg sql.NullString
		var desc, path, dependsOn sql.NullString
		if err := rows.Scan(&e.UniqueID, &name, &label, &typ, &maturity, &url, &ownerEmail, &ownerName,
			&tags, &pkg, &desc, &path, &dependsOn); err != nil {
			return nil, fmt.Errorf("failed to scan exposure: %w", err)
		}
		e.Name = name.String
		e.Label = label.String
		e.Type = typ.String
		e.Maturity = maturity.String
		e.URL = url.String
		e.OwnerEmail = ownerEmail.String
		e.Owners = stringList(ownerName)
		e.Tags = stringList(tags)
		e.PackageName = pkg.String
		e.Description = desc.String
		e.OriginalPath = path.String
		e.DependsOn = stringList(dependsOn)
		e.Normalize()
		exposures = append(exposures, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read exposures: %w", err)
	}
	return exposures, nil
}

// ModelRuns returns the run history of every model, oldest run first.
func (s *Store) ModelRuns(ctx context.Context, daysBack *int, excludeElementary bool) ([]monitor.ModelRuns, error) {
	filter, args := s.since("generated_at", daysBack)
	query := fmt.Sprintf(`SELECT unique_id, invocation_id, generated_at, status, full_refresh,
		materialization, execution_time, compiled_code
		FROM %s WHERE resource_type = 'model'%s
		ORDER BY unique_id, generated_at`, s.table(tableRunResults), filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query model runs: %w", err)
	}
	defer rows.Close()

	var order []string
	runs := make(map[string][]monitor.ModelRun)
	compiled := make(map[string]string)
	for rows.Next() {
		var uniqueID string
		var invocationID, status, materialization, code sql.NullString
		var generatedAt sql.NullTime
		var fullRefresh sql.NullBool
		var executionTime sql.NullFloat64
		if err := rows.Scan(&uniqueID, &invocationID, &generatedAt, &status, &fullRefresh,
			&materialization, &executionTime, &code); err != nil {
			return nil, fmt.Errorf("failed to scan model run: %w", err)
		}
		if excludeElementary && strings.HasPrefix(uniqueID, "model."+elementaryPackage+".") {
			continue
		}
		if _, seen := runs[uniqueID]; !seen {
			order = append(order, uniqueID)
		}
		runs[uniqueID] = append(runs[uniqueID], monitor.ModelRun{
			ID:              invocationID.String,
			TimeUTC:         formatTime(generatedAt),
			Status:          strings.ToLower(status.String),
			FullRefresh:     fullRefresh.Bool,
			Materialization: materialization.String,
			ExecutionTime:   executionTime.Float64,
		})
		if code.Valid {
			compiled[uniqueID] = code.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read model runs: %w", err)
	}

	result := make([]monitor.ModelRuns, 0, len(order))
	for _, id := range order {
		result = append(result, monitor.SummarizeModelRuns(id, runs[id], compiled[id]))
	}
	return result, nil
}

// resultRow is one row of the test results table.
type resultRow struct {
	metadata     monitor.TestMetadata
	detail       monitor.ResultDetail
	invocationID string
}

// testResultRows returns matching test results, newest first.
func (s *Store) testResultRows(ctx context.Context, filter string, args []any) ([]resultRow, error) {
	query := fmt.Sprintf(`SELECT test_unique_id, elementary_unique_id, model_unique_id, invocation_id, detected_at,
		database_name, schema_name, table_name, column_name, test_type, test_sub_type,
		test_results_description, test_results_query, test_name, test_short_name, test_params,
		tags, status, failures, result_rows
		FROM %s WHERE 1=1%s
		ORDER BY detected_at DESC`, s.table(tableTestResults), filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query test results: %w", err)
	}
	defer rows.Close()

	var out []resultRow
	for rows.Next() {
		var r resultRow
		var elementaryID, modelID, invocationID, db, schema, table sql.NullString
		var column, testType, subType, description, testQuery, name sql.NullString
		var shortName, params, tags, status, sample sql.NullString
		var detectedAt sql.NullTime
		var failures sql.NullInt64
		if err := rows.Scan(&r.metadata.TestUniqueID, &elementaryID, &modelID, &invocationID, &detectedAt,
			&db, &schema, &table, &column, &testType, &subType,
			&description, &testQuery, &name, &shortName, &params,
			&tags, &status, &failures, &sample); err != nil {
			return nil, fmt.Errorf("failed to scan test result: %w", err)
		}

		displayName := shortName.String
		if displayName == "" {
			displayName = name.String
		}
		columnName := column.String
		if columnName == "" {
			columnName = jsonField(params, "column_name")
		}

		r.invocationID = invocationID.String
		r.metadata.ElementaryUniqueID = elementaryID.String
		r.metadata.ModelUniqueID = modelID.String
		r.metadata.DatabaseName = db.String
		r.metadata.SchemaName = schema.String
		r.metadata.TableName = table.String
		r.metadata.ColumnName = columnName
		r.metadata.TestType = testType.String
		r.metadata.TestSubType = subType.String
		r.metadata.TestQuery = testQuery.String
		r.metadata.TestName = name.String
		r.metadata.TestDisplayName = displayName
		r.metadata.TestParams = rawJSON(params)
		r.metadata.Tags = stringList(tags)
		r.metadata.LatestRunTime = formatTime(detectedAt)
		r.metadata.LatestRunStatus = strings.ToLower(status.String)
		r.detail = monitor.ResultDetail{
			ResultDescription: description.String,
			FailedRowsCount:   nullInt64(failures),
			ResultsSample:     sampleRows(sample),
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read test results: %w", err)
	}
	return out, nil
}

// latestPerTest keeps the first (newest) row of each test.
func latestPerTest(rows []resultRow) []resultRow {
	seen := make(map[string]bool, len(rows))
	var out []resultRow
	for _, r := range rows {
		if seen[r.metadata.TestUniqueID] {
			continue
		}
		seen[r.metadata.TestUniqueID] = true
		out = append(out, r)
	}
	return out
}

// TestsMetadata returns the latest metadata of every test within the window.
func (s *Store) TestsMetadata(ctx context.Context, daysBack *int) ([]monitor.TestMetadata, error) {
	filter, args := s.since("detected_at", daysBack)
	rows, err := s.testResultRows(ctx, filter, args)
	if err != nil {
		return nil, err
	}

	tests := []monitor.TestMetadata{}
	for _, r := range latestPerTest(rows) {
		tests = append(tests, r.metadata)
	}
	return tests, nil
}

// TestResults returns the latest result of each test selected by the query,
// grouped by model.
func (s *Store) TestResults(ctx context.Context, q monitor.TestResultsQuery) (map[string][]monitor.TestResult, monitor.Invocation, error) {
	results := make(map[string][]monitor.TestResult)

	invocation, filter, args, err := s.resolveSelection(ctx, q.Filter, q.DaysBack)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warnw("No invocation matches the selection", "select", q.Filter.String())
		return results, monitor.Invocation{}, nil
	}
	if err != nil {
		return nil, monitor.Invocation{}, err
	}

	rows, err := s.testResultRows(ctx, filter, args)
	if err != nil {
		return nil, monitor.Invocation{}, err
	}

	for _, r := range latestPerTest(rows) {
		detail := r.detail
		if q.DisableSamples || (q.DisablePassedTestMetrics && r.metadata.LatestRunStatus == monitor.StatusPass) {
			detail.ResultsSample = nil
		}
		key := r.metadata.GroupKey()
		results[key] = append(results[key], monitor.TestResult{Metadata: r.metadata, TestResults: detail})
	}
	return results, invocation, nil
}

// resolveSelection turns a selection filter into a test results filter and
// the invocation it refers to.
func (s *Store) resolveSelection(ctx context.Context, f selection.Filter, daysBack *int) (monitor.Invocation, string, []any, error) {
	var invocation monitor.Invocation
	var err error

	switch f.Mode() {
	case selection.ModeLastInvocation:
		invocation, err = s.invocation(ctx, "ORDER BY generated_at DESC LIMIT 1")
	case selection.ModeInvocationID:
		invocation, err = s.invocation(ctx, "WHERE invocation_id = ? LIMIT 1", f.Value())
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warnw("Invocation not found, filtering by id only", "invocation_id", f.Value())
			invocation, err = monitor.Invocation{InvocationID: f.Value()}, nil
		}
	case selection.ModeInvocationTime:
		invocation, err = s.invocation(ctx, "WHERE generated_at <= ? ORDER BY generated_at DESC LIMIT 1", f.Value())
	default:
		filter, args := s.since("detected_at", daysBack)
		return monitor.Invocation{}, filter, args, nil
	}
	if err != nil {
		return monitor.Invocation{}, "", nil, err
	}
	return invocation, " AND invocation_id = ?", []any{invocation.InvocationID}, nil
}

// invocation fetches one invocation record. sql.ErrNoRows is returned unwrapped.
func (s *Store) invocation(ctx context.Context, clause string, args ...any) (monitor.Invocation, error) {
	query := fmt.Sprintf(`SELECT invocation_id, generated_at, command, selected, full_refresh,
		job_url, job_name, job_id, orchestrator
		FROM %s %s`, s.table(tableInvocations), clause)

	var inv monitor.Invocation
	var generatedAt sql.NullTime
	var command, selected, jobURL, jobName, jobID, orchestrator sql.NullString
	var fullRefresh sql.NullBool
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&inv.InvocationID, &generatedAt, &command, &selected,
		&fullRefresh, &jobURL, &jobName, &jobID, &orchestrator)
	if errors.Is(err, sql.ErrNoRows) {
		return monitor.Invocation{}, err
	}
	if err != nil {
		return monitor.Invocation{}, fmt.Errorf("failed to query invocation: %w", err)
	}

	inv.DetectedAt = formatTime(generatedAt)
	inv.Command = command.String
	inv.Selected = selected.String
	inv.FullRefresh = nullBool(fullRefresh)
	inv.JobURL = jobURL.String
	inv.JobName = jobName.String
	inv.JobID = jobID.String
	inv.Orchestrator = orchestrator.String
	return inv, nil
}

// Invocations returns the recent executions of each test, oldest first,
// keeping at most perTest per test when perTest is set.
func (s *Store) Invocations(ctx context.Context, daysBack, perTest *int) (map[string][]monitor.TestInvocation, error) {
	filter, args := s.since("detected_at", daysBack)
	query := fmt.Sprintf(`SELECT test_unique_id, invocation_id, detected_at, status, failures
		FROM %s WHERE 1=1%s
		ORDER BY test_unique_id, detected_at DESC`, s.table(tableTestResults), filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query test invocations: %w", err)
	}
	defer rows.Close()

	invocations := make(map[string][]monitor.TestInvocation)
	for rows.Next() {
		var testID string
		var invocationID, status sql.NullString
		var detectedAt sql.NullTime
		var failures sql.NullInt64
		if err := rows.Scan(&testID, &invocationID, &detectedAt, &status, &failures); err != nil {
			return nil, fmt.Errorf("failed to scan test invocation: %w", err)
		}
		if perTest != nil && len(invocations[testID]) >= *perTest {
			continue
		}
		invocations[testID] = append(invocations[testID], monitor.TestInvocation{
			ID:           invocationID.String,
			TimeUTC:      formatTime(detectedAt),
			Status:       strings.ToLower(status.String),
			AffectedRows: nullInt64(failures),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read test invocations: %w", err)
	}

	for id, history := range invocations {
		for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
			history[i], history[j] = history[j], history[i]
		}
		invocations[id] = history
	}
	return invocations, nil
}

// TestRuns returns each test's latest metadata with its execution history,
// grouped by model.
func (s *Store) TestRuns(ctx context.Context, daysBack, perTest *int) (map[string][]monitor.TestRun, error) {
	filter, args := s.since("detected_at", daysBack)
	rows, err := s.testResultRows(ctx, filter, args)
	if err != nil {
		return nil, err
	}

	invocations, err := s.Invocations(ctx, daysBack, perTest)
	if err != nil {
		return nil, err
	}

	runs := make(map[string][]monitor.TestRun)
	for _, r := range latestPerTest(rows) {
		history := invocations[r.metadata.TestUniqueID]
		if history == nil {
			history = []monitor.TestInvocation{}
		}
		key := r.metadata.GroupKey()
		runs[key] = append(runs[key], monitor.TestRun{
			Metadata: r.metadata,
			TestRuns: monitor.TestRunHistory{
				Invocations: history,
				Description: r.detail.ResultDescription,
			},
		})
	}
	return runs, nil
}

// TestCoverages counts table-level and column-level tests per model.
func (s *Store) TestCoverages(ctx context.Context) (map[string]monitor.Coverage, error) {
	query := fmt.Sprintf(`SELECT parent_model_unique_id, test_column_name
		FROM %s WHERE parent_model_unique_id IS NOT NULL`, s.table(tableTests))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query test coverage: %w", err)
	}
	defer rows.Close()

	coverages := make(map[string]monitor.Coverage)
	for rows.Next() {
		var modelID string
		var column sql.NullString
		if err := rows.Scan(&modelID, &column); err != nil {
			return nil, fmt.Errorf("failed to scan test coverage: %w", err)
		}
		c := coverages[modelID]
		if column.String == "" {
			c.TableTests++
		} else {
			c.ColumnTests++
		}
		coverages[modelID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read test coverage: %w", err)
	}
	return coverages, nil
}

// Lineage builds the dependency graph of all models, sources and exposures.
// A cyclic graph is logged and still returned, in insertion order.
func (s *Store) Lineage(ctx context.Context, excludeElementary bool) (monitor.Lineage, error) {
	models, err := s.Models(ctx, excludeElementary)
	if err != nil {
		return monitor.EmptyLineage(), err
	}
	sources, err := s.Sources(ctx)
	if err != nil {
		return monitor.EmptyLineage(), err
	}
	exposures, err := s.Exposures(ctx)
	if err != nil {
		return monitor.EmptyLineage(), err
	}

	artifacts := make([]monitor.Artifact, 0, len(models)+len(sources)+len(exposures))
	for i := range sources {
		artifacts = append(artifacts, &sources[i])
	}
	for i := range models {
		artifacts = append(artifacts, &models[i])
	}
	for i := range exposures {
		artifacts = append(artifacts, &exposures[i])
	}

	builder := graph.NewBuilder(artifacts)
	g, err := builder.Build()
	if err != nil {
		return monitor.EmptyLineage(), fmt.Errorf("failed to build lineage: %w", err)
	}
	if skipped := builder.Skipped(); len(skipped) > 0 {
		s.logger.Debugw("Skipped dependencies on nodes outside the lineage", "count", len(skipped))
	}
	s.logger.Debugw("Lineage graph built", "nodes", g.NodeCount(), "edges", g.EdgeCount())

	lineage, err := g.Lineage()
	var cycleErr *graph.CycleError
	if errors.As(err, &cycleErr) {
		s.logger.Warnw("Lineage graph has a cycle, nodes listed in insertion order",
			"cycle", strings.Join(cycleErr.Info.CyclePath, " -> "))
		return lineage, nil
	}
	if err != nil {
		return monitor.EmptyLineage(), fmt.Errorf("failed to build lineage: %w", err)
	}
	return lineage, nil
}
