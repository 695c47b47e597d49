package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// webhook headers so auth tokens can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	for name, value := range cfg.Webhook.Headers {
		cfg.Webhook.Headers[name] = expandEnvVars(value)
	}
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Webhook.Method == "" {
		cfg.Webhook.Method = "POST"
	}
	if cfg.Webhook.SessionKey == "" {
		cfg.Webhook.SessionKey = "sessionId"
	}
	if cfg.Webhook.InputKey == "" {
		cfg.Webhook.InputKey = "chatInput"
	}
	if cfg.Webhook.CallbackKey == "" {
		cfg.Webhook.CallbackKey = "callbackValue"
	}
	if cfg.Webhook.TimeoutSeconds == 0 {
		cfg.Webhook.TimeoutSeconds = 120
	}
	if cfg.Chat.ErrorMessage == "" {
		cfg.Chat.ErrorMessage = DefaultErrorMessage
	}
	if cfg.Chat.Scope == "" {
		cfg.Chat.Scope = "default"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Feed.Port == 0 {
		cfg.Feed.Port = 18790
	}
	if cfg.Feed.Bind == "" {
		cfg.Feed.Bind = "127.0.0.1"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// applyEnvOverrides reads TTCHAT_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TTCHAT_WEBHOOK_URL"); v != "" {
		cfg.Webhook.URL = v
	}
	if v := os.Getenv("TTCHAT_WEBHOOK_METHOD"); v != "" {
		cfg.Webhook.Method = strings.ToUpper(v)
	}
	if v := os.Getenv("TTCHAT_SCOPE"); v != "" {
		cfg.Chat.Scope = v
	}
	if v := os.Getenv("TTCHAT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TTCHAT_FEED_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Feed.Port = port
		}
	}
	if v := os.Getenv("TTCHAT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
