package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goreport/internal/config"
	"github.com/dbsmedya/goreport/internal/logger"
	"github.com/dbsmedya/goreport/internal/warehouse"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and warehouse access",
	Long: `Validate checks the configuration file and the warehouse connection
before a report is generated.

Checks performed:
  - Configuration syntax and required fields
  - Warehouse connectivity
  - Monitoring schema name
  - Enabled delivery sinks

Example:
  goreport validate --config goreport.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(context.Background())
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting validation checks...")

	printHeader("Configuration Validation")
	printField("Config file", GetConfigFile())
	printField("Warehouse", fmt.Sprintf("%s:%d", cfg.Warehouse.Host, cfg.Warehouse.Port))
	printField("Schema", cfg.Warehouse.MonitoringSchema())
	printField("Target dir", cfg.Report.TargetDir)
	printField("Sinks", enabledSinks(cfg))

	ctx := warehouse.SetupSignalHandler()
	manager := warehouse.NewManager(&cfg.Warehouse)
	if err := manager.Connect(ctx); err != nil {
		printField("Connection", statusText(false))
		return err
	}
	defer manager.Close()

	if _, err := warehouse.NewStore(manager.DB, cfg.Warehouse.MonitoringSchema(), log); err != nil {
		printField("Connection", statusText(false))
		return err
	}

	printField("Connection", statusText(true))
	fmt.Fprintln(outputWriter, "=== Validation Complete ===")
	return nil
}

func enabledSinks(cfg *config.Config) string {
	var names []string
	if cfg.Slack.Enabled() {
		names = append(names, "slack")
	}
	if cfg.S3.Enabled() {
		names = append(names, "s3")
	}
	if cfg.GCS.Enabled() {
		names = append(names, "gcs")
	}
	if len(names) == 0 {
		return "none"
	}
	return fmt.Sprint(names)
}
