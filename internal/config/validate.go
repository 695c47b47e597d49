package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Webhook validation
	if cfg.Webhook.URL == "" {
		issues = append(issues, ValidationIssue{
			Path:    "webhook.url",
			Message: "webhook URL is required",
		})
	} else if u, err := url.Parse(cfg.Webhook.URL); err != nil || u.Scheme == "" || u.Host == "" {
		issues = append(issues, ValidationIssue{
			Path:    "webhook.url",
			Message: fmt.Sprintf("not a valid absolute URL: %q", cfg.Webhook.URL),
		})
	}

	validMethods := []string{"GET", "POST"}
	if cfg.Webhook.Method != "" && !slices.Contains(validMethods, cfg.Webhook.Method) {
		issues = append(issues, ValidationIssue{
			Path:    "webhook.method",
			Message: fmt.Sprintf("must be one of %v, got %q", validMethods, cfg.Webhook.Method),
		})
	}

	if cfg.Webhook.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "webhook.timeoutSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Webhook.TimeoutSeconds),
		})
	}

	// Store validation
	validDrivers := []string{"sqlite", "memory"}
	if cfg.Store.Driver != "" && !slices.Contains(validDrivers, cfg.Store.Driver) {
		issues = append(issues, ValidationIssue{
			Path:    "store.driver",
			Message: fmt.Sprintf("must be one of %v, got %q", validDrivers, cfg.Store.Driver),
		})
	}

	// Feed validation
	if cfg.Feed.Port < 0 || cfg.Feed.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "feed.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Feed.Port),
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
