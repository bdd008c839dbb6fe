package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goreport/internal/browser"
	"github.com/dbsmedya/goreport/internal/config"
	"github.com/dbsmedya/goreport/internal/report"
	"github.com/dbsmedya/goreport/internal/tracking"
)

// reportFlags are the generation options shared by report and send.
type reportFlags struct {
	daysBack                 int
	executionsLimit          int
	filePath                 string
	disablePassedTestMetrics bool
	disableSamples           bool
	openBrowser              bool
	excludeElementaryModels  bool
	projectName              string
	selectExpr               string
}

func addReportFlags(cmd *cobra.Command, f *reportFlags) {
	cmd.Flags().IntVarP(&f.daysBack, "days-back", "d", 0,
		"Only include data from the last N days (overrides report.days_back)")
	cmd.Flags().IntVar(&f.executionsLimit, "executions-limit", 0,
		"Number of recent executions kept per test (overrides report.test_runs_amount)")
	cmd.Flags().StringVar(&f.filePath, "file-path", "",
		"Path of the HTML report (default <target_dir>/elementary_report.html)")
	cmd.Flags().BoolVar(&f.disablePassedTestMetrics, "disable-passed-test-metrics", false,
		"Drop result samples of passing tests")
	cmd.Flags().BoolVar(&f.disableSamples, "disable-samples", false,
		"Drop all result samples")
	cmd.Flags().BoolVar(&f.excludeElementaryModels, "exclude-elementary-models", false,
		"Exclude the monitoring package's own models")
	cmd.Flags().StringVar(&f.projectName, "project-name", "",
		"Project name shown in the report (overrides report.project_name)")
	cmd.Flags().StringVar(&f.selectExpr, "select", "",
		"Result selection: last_invocation, invocation_id:<id> or invocation_time:<time>")
}

// options merges flags over the report config. Unset numeric limits yield nil.
func (f *reportFlags) options(cmd *cobra.Command, cfg config.ReportConfig) report.Options {
	opts := report.Options{
		FilePath:                 f.filePath,
		DisablePassedTestMetrics: f.disablePassedTestMetrics || cfg.DisablePassedTestMetrics,
		DisableSamples:           f.disableSamples || cfg.DisableSamples,
		ExcludeElementaryModels:  f.excludeElementaryModels || cfg.ExcludeElementaryModels,
		ProjectName:              f.projectName,
		Select:                   f.selectExpr,
		ShouldOpenBrowser:        cfg.OpenBrowser,
	}

	opts.DaysBack = intOption(cmd, "days-back", f.daysBack, cfg.DaysBack)
	opts.TestRunsAmount = intOption(cmd, "executions-limit", f.executionsLimit, cfg.TestRunsAmount)

	if flag := cmd.Flags().Lookup("open-browser"); flag != nil && flag.Changed {
		opts.ShouldOpenBrowser = f.openBrowser
	}
	return opts
}

// intOption returns the flag value when set, else the positive config value, else nil.
func intOption(cmd *cobra.Command, name string, flagValue, configValue int) *int {
	if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
		return &flagValue
	}
	if configValue > 0 {
		return &configValue
	}
	return nil
}

var reportOpts reportFlags

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the observability report",
	Long: `Report reads models, sources, exposures, test results and run history
from the monitoring schema and writes a self-contained HTML report plus the
raw data as elementary_output.json in the target directory.

A failing query does not stop the report: the affected section is left empty
and the command exits with status 1.

Example:
  goreport report --config goreport.yaml --days-back 7 --select last_invocation`,
	RunE: runReport,
}

func init() {
	addReportFlags(reportCmd, &reportOpts)
	reportCmd.Flags().BoolVar(&reportOpts.openBrowser, "open-browser", true,
		"Open the report in the default browser (overrides report.open_browser)")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	run := s.newRun()
	opts := reportOpts.options(cmd, s.cfg.Report)

	s.log.Infow("Starting report generation", "config", GetConfigFile(), "run_id", run.ID)

	ok, path, err := generate(s, run, opts)
	s.finish(run)
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}

	printHeader("Report Generated")
	printField("Report", path)
	printRunSummary(run)
	printField("Status", statusText(ok))

	if !ok {
		return fmt.Errorf("report generated with errors, see the log for failed steps")
	}
	return nil
}

func generate(s *session, run *tracking.Run, opts report.Options) (bool, string, error) {
	var launcher *browser.Launcher
	if opts.ShouldOpenBrowser {
		launcher = browser.NewLauncher(s.log)
	}

	generator := report.NewGenerator(s.store, report.Settings{
		TargetDir:    s.cfg.Report.TargetDir,
		TemplatePath: s.cfg.Report.TemplatePath,
		Env:          s.cfg.Report.Env,
		ProjectName:  s.cfg.Report.ProjectName,
		Identity:     s.identity(),
	}, launcher, s.log)

	return generator.Generate(s.ctx, run, opts)
}
