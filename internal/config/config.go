// Package config provides configuration structures and loading for GoReport.
package config

// Config represents the complete application configuration.
type Config struct {
	Warehouse WarehouseConfig `yaml:"warehouse" mapstructure:"warehouse"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Slack     SlackConfig     `yaml:"slack" mapstructure:"slack"`
	S3        S3Config        `yaml:"s3" mapstructure:"s3"`
	GCS       GCSConfig       `yaml:"gcs" mapstructure:"gcs"`
	Tracking  TrackingConfig  `yaml:"tracking" mapstructure:"tracking"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// WarehouseConfig represents the MySQL connection holding the observability tables.
type WarehouseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	Schema             string `yaml:"schema" mapstructure:"schema"` // schema of the monitoring tables, defaults to database
	TLS                string `yaml:"tls" mapstructure:"tls"`       // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// ReportConfig holds report generation defaults. CLI flags take precedence.
type ReportConfig struct {
	TargetDir                string `yaml:"target_dir" mapstructure:"target_dir"`
	Env                      string `yaml:"env" mapstructure:"env"`
	ProjectName              string `yaml:"project_name" mapstructure:"project_name"`
	TemplatePath             string `yaml:"template_path" mapstructure:"template_path"` // empty uses the bundled template
	DaysBack                 int    `yaml:"days_back" mapstructure:"days_back"`
	TestRunsAmount           int    `yaml:"test_runs_amount" mapstructure:"test_runs_amount"`
	DisablePassedTestMetrics bool   `yaml:"disable_passed_test_metrics" mapstructure:"disable_passed_test_metrics"`
	DisableSamples           bool   `yaml:"disable_samples" mapstructure:"disable_samples"`
	ExcludeElementaryModels  bool   `yaml:"exclude_elementary_models" mapstructure:"exclude_elementary_models"`
	OpenBrowser              bool   `yaml:"open_browser" mapstructure:"open_browser"`
}

// SlackConfig represents the chat notification sink.
type SlackConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	Channel string `yaml:"channel" mapstructure:"channel"`
}

// Enabled reports whether the Slack sink has enough settings to deliver a file.
func (c SlackConfig) Enabled() bool {
	return c.Token != "" && c.Channel != ""
}

// S3Config represents the S3 bucket sink.
type S3Config struct {
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	Region    string `yaml:"region" mapstructure:"region"`
	Profile   string `yaml:"profile" mapstructure:"profile"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	PathStyle bool   `yaml:"path_style" mapstructure:"path_style"`
}

// Enabled reports whether the S3 sink is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// GCSConfig represents the Google Cloud Storage bucket sink.
type GCSConfig struct {
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
}

// Enabled reports whether the GCS sink is configured.
func (c GCSConfig) Enabled() bool {
	return c.Bucket != ""
}

// TrackingConfig represents anonymous usage tracking and run metrics.
type TrackingConfig struct {
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	PosthogAPIKey string `yaml:"posthog_api_key" mapstructure:"posthog_api_key"`
	MetricsFile   string `yaml:"metrics_file" mapstructure:"metrics_file"` // prometheus textfile output
	UserIDFile    string `yaml:"user_id_file" mapstructure:"user_id_file"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Warehouse: WarehouseConfig{
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     5,
			MaxIdleConnections: 2,
		},
		Report: ReportConfig{
			TargetDir:   "edr_target",
			Env:         "dev",
			OpenBrowser: true,
		},
		Tracking: TrackingConfig{
			Enabled:    true,
			UserIDFile: ".goreport_user_id",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// MonitoringSchema returns the schema that holds the monitoring tables.
func (w WarehouseConfig) MonitoringSchema() string {
	if w.Schema != "" {
		return w.Schema
	}
	return w.Database
}
