package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/viper"
)

// Load reads configuration from the given file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	cfg.Warehouse.Host = expandEnvVar(cfg.Warehouse.Host)
	cfg.Warehouse.User = expandEnvVar(cfg.Warehouse.User)
	cfg.Warehouse.Password = expandEnvVar(cfg.Warehouse.Password)
	cfg.Warehouse.Database = expandEnvVar(cfg.Warehouse.Database)
	cfg.Warehouse.Schema = expandEnvVar(cfg.Warehouse.Schema)

	cfg.Report.TargetDir = expandEnvVar(cfg.Report.TargetDir)
	cfg.Report.TemplatePath = expandEnvVar(cfg.Report.TemplatePath)

	cfg.Slack.Token = expandEnvVar(cfg.Slack.Token)
	cfg.S3.Bucket = expandEnvVar(cfg.S3.Bucket)
	cfg.GCS.Bucket = expandEnvVar(cfg.GCS.Bucket)
	cfg.GCS.CredentialsFile = expandEnvVar(cfg.GCS.CredentialsFile)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// EnvOverrides lists the secrets that may be supplied through the environment
// instead of the config file.
type EnvOverrides struct {
	WarehousePassword  string `env:"GOREPORT_WAREHOUSE_PASSWORD"`
	SlackToken         string `env:"GOREPORT_SLACK_TOKEN"`
	S3Bucket           string `env:"GOREPORT_S3_BUCKET"`
	GCSBucket          string `env:"GOREPORT_GCS_BUCKET"`
	GCSCredentialsFile string `env:"GOREPORT_GCS_CREDENTIALS_FILE"`
}

// ApplyEnv overlays values from the process environment. Only variables that
// are set and non-empty replace config values.
func (c *Config) ApplyEnv(ctx context.Context) error {
	return c.applyEnv(ctx, envconfig.OsLookuper())
}

func (c *Config) applyEnv(ctx context.Context, lookuper envconfig.Lookuper) error {
	var env EnvOverrides
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: lookuper,
	}); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if env.WarehousePassword != "" {
		c.Warehouse.Password = env.WarehousePassword
	}
	if env.SlackToken != "" {
		c.Slack.Token = env.SlackToken
	}
	if env.S3Bucket != "" {
		c.S3.Bucket = env.S3Bucket
	}
	if env.GCSBucket != "" {
		c.GCS.Bucket = env.GCSBucket
	}
	if env.GCSCredentialsFile != "" {
		c.GCS.CredentialsFile = env.GCSCredentialsFile
	}
	return nil
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat, targetDir, env string) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if targetDir != "" {
		c.Report.TargetDir = targetDir
	}
	if env != "" {
		c.Report.Env = env
	}
}
