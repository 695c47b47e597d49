package config

// Config is the root configuration for ttchat.
type Config struct {
	Webhook WebhookConfig `yaml:"webhook"`
	Chat    ChatConfig    `yaml:"chat,omitempty"`
	Store   StoreConfig   `yaml:"store,omitempty"`
	Feed    FeedConfig    `yaml:"feed,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// WebhookConfig describes the remote endpoint the engine talks to.
type WebhookConfig struct {
	URL            string            `yaml:"url"`
	Method         string            `yaml:"method,omitempty"` // "GET" | "POST"
	Headers        map[string]string `yaml:"headers,omitempty"`
	SessionKey     string            `yaml:"sessionKey,omitempty"`  // body field carrying the session id
	InputKey       string            `yaml:"inputKey,omitempty"`    // body field carrying the user text
	CallbackKey    string            `yaml:"callbackKey,omitempty"` // body field carrying a pending callback value
	TimeoutSeconds int               `yaml:"timeoutSeconds,omitempty"`
}

// ChatConfig controls engine behavior independent of the wire protocol.
type ChatConfig struct {
	LoadPreviousSession *bool    `yaml:"loadPreviousSession,omitempty"` // defaults to true
	InitialMessages     []string `yaml:"initialMessages,omitempty"`
	ErrorMessage        string   `yaml:"errorMessage,omitempty"`
	AllowFileUploads    bool     `yaml:"allowFileUploads,omitempty"`
	Scope               string   `yaml:"scope,omitempty"` // storage scope; one active session per scope
}

// LoadPreviousEnabled reports whether history restoration is on.
func (c ChatConfig) LoadPreviousEnabled() bool {
	if c.LoadPreviousSession == nil {
		return true
	}
	return *c.LoadPreviousSession
}

// StoreConfig selects the session-id persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver,omitempty"` // "sqlite" | "memory"
	Path   string `yaml:"path,omitempty"`
}

// FeedConfig controls the WebSocket state feed server.
type FeedConfig struct {
	Port int    `yaml:"port,omitempty"`
	Bind string `yaml:"bind,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"`
}
