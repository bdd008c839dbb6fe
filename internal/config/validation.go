package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateWarehouse()...)
	errors = append(errors, c.validateReport()...)
	errors = append(errors, c.validateSinks()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateWarehouse() ValidationErrors {
	var errors ValidationErrors
	w := &c.Warehouse

	if w.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "warehouse.host",
			Message: "host is required",
		})
	}

	if w.Port <= 0 || w.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "warehouse.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if w.User == "" {
		errors = append(errors, ValidationError{
			Field:   "warehouse.user",
			Message: "user is required",
		})
	}

	if w.MonitoringSchema() == "" {
		errors = append(errors, ValidationError{
			Field:   "warehouse.database",
			Message: "database or schema is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[w.TLS] {
		errors = append(errors, ValidationError{
			Field:   "warehouse.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if w.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "warehouse.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateReport() ValidationErrors {
	var errors ValidationErrors

	if c.Report.TargetDir == "" {
		errors = append(errors, ValidationError{
			Field:   "report.target_dir",
			Message: "target_dir is required",
		})
	}

	if c.Report.DaysBack < 0 {
		errors = append(errors, ValidationError{
			Field:   "report.days_back",
			Message: "days_back cannot be negative",
		})
	}

	if c.Report.TestRunsAmount < 0 {
		errors = append(errors, ValidationError{
			Field:   "report.test_runs_amount",
			Message: "test_runs_amount cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateSinks() ValidationErrors {
	var errors ValidationErrors

	if c.Slack.Token != "" && c.Slack.Channel == "" {
		errors = append(errors, ValidationError{
			Field:   "slack.channel",
			Message: "channel is required when a slack token is set",
		})
	}

	if c.S3.PathStyle && c.S3.Endpoint == "" {
		errors = append(errors, ValidationError{
			Field:   "s3.endpoint",
			Message: "endpoint is required when path_style is enabled",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
