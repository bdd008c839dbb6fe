package report

import (
	"context"
	"time"

	"github.com/dbsmedya/goreport/internal/browser"
	"github.com/dbsmedya/goreport/internal/logger"
	"github.com/dbsmedya/goreport/internal/monitor"
	"github.com/dbsmedya/goreport/internal/selection"
	"github.com/dbsmedya/goreport/internal/tracking"
)

// Settings are the per-installation values a generator is built with.
type Settings struct {
	TargetDir    string
	TemplatePath string
	Env          string
	ProjectName  string
	Identity     tracking.Identity
}

// Options parameterize one report generation.
type Options struct {
	DaysBack                 *int
	TestRunsAmount           *int
	FilePath                 string
	DisablePassedTestMetrics bool
	DisableSamples           bool
	ShouldOpenBrowser        bool
	ExcludeElementaryModels  bool
	ProjectName              string
	Select                   string
}

// Generator produces the report files for one warehouse.
type Generator struct {
	settings   Settings
	aggregator *Aggregator
	launcher   *browser.Launcher
	logger     *logger.Logger
	now        func() time.Time
}

// NewGenerator creates a generator reading from store. A nil launcher
// disables browser opening.
func NewGenerator(store monitor.Store, settings Settings, launcher *browser.Launcher, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{
		settings:   settings,
		aggregator: NewAggregator(store, log),
		launcher:   launcher,
		logger:     log,
		now:        time.Now,
	}
}

// Generate writes the HTML report and its JSON document. It returns the
// run's success flag and the absolute report path. The error is set only
// when the output path or template is unusable or the files cannot be
// written; data fetch failures are reflected in the flag instead.
func (g *Generator) Generate(ctx context.Context, run *tracking.Run, opts Options) (bool, string, error) {
	htmlPath, err := ResolvePath(g.settings.TargetDir, opts.FilePath)
	if err != nil {
		return false, "", err
	}
	serializer, err := NewSerializer(g.settings.TargetDir, g.settings.TemplatePath)
	if err != nil {
		return false, "", err
	}

	g.logger.Infow("Generating report", "path", htmlPath, "select", opts.Select)

	snapshot := g.aggregator.Aggregate(ctx, run, Query{
		DaysBack:                 opts.DaysBack,
		TestRunsAmount:           opts.TestRunsAmount,
		Filter:                   selection.Parse(opts.Select, g.logger),
		DisablePassedTestMetrics: opts.DisablePassedTestMetrics,
		DisableSamples:           opts.DisableSamples,
		ExcludeElementaryModels:  opts.ExcludeElementaryModels,
	})

	projectName := opts.ProjectName
	if projectName == "" {
		projectName = g.settings.ProjectName
	}
	payload := NewPayload(snapshot, g.now(), opts.DaysBack, g.settings.Identity, EnvInfo{
		ProjectName: projectName,
		Env:         g.settings.Env,
	})

	jsonPath, err := serializer.Write(htmlPath, payload)
	if err != nil {
		return false, "", err
	}
	g.logger.Infow("Report written", "path", htmlPath, "data", jsonPath)

	if opts.ShouldOpenBrowser && g.launcher != nil {
		g.launcher.Open(htmlPath)
	}

	return run.Success.OK(), htmlPath, nil
}
