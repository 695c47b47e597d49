package config

import "fmt"

// DefaultErrorMessage is shown in the transcript when a send fails.
// The widget historically ships Italian copy; hosts override it per locale.
const DefaultErrorMessage = "Spiacenti, si è verificato un errore durante l'elaborazione della tua richiesta. Riprova."

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Webhook: WebhookConfig{
			Method:         "POST",
			SessionKey:     "sessionId",
			InputKey:       "chatInput",
			CallbackKey:    "callbackValue",
			TimeoutSeconds: 120,
		},
		Chat: ChatConfig{
			ErrorMessage: DefaultErrorMessage,
			Scope:        "default",
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Feed: FeedConfig{
			Port: 18790,
			Bind: "127.0.0.1",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
