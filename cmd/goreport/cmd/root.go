package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goreport/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
	targetDir string
	envName   string
)

var rootCmd = &cobra.Command{
	Use:   "goreport",
	Short: "Data observability report generator",
	Long: `A CLI tool that reads data observability metadata (models, sources,
exposures, test results, run history) from the monitoring schema of a
warehouse and builds a single self-contained HTML report.

Features:
  - Test results and run history per model, with totals and filters
  - Model run history with median and last execution times
  - Lineage ordered by dependency (Kahn's algorithm)
  - Delivery of the report to Slack, S3 and Google Cloud Storage`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "goreport.yaml",
		"Path to configuration file")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	rootCmd.PersistentFlags().StringVar(&targetDir, "target-dir", "",
		"Override the directory the report files are written to")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "",
		"Override the environment name shown in the report")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
	TargetDir string
	Env       string
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		TargetDir: targetDir,
		Env:       envName,
	}
}

// loadConfig reads the config file, overlays environment secrets and CLI
// overrides, and validates the result.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ApplyEnv(ctx); err != nil {
		return nil, err
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.TargetDir, overrides.Env)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
