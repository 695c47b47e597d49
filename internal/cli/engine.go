package cli

import (
	"fmt"

	"github.com/ttdigital/ttchat/internal/chat"
	"github.com/ttdigital/ttchat/internal/config"
	"github.com/ttdigital/ttchat/internal/store"
	"github.com/ttdigital/ttchat/internal/transport"
)

// buildEngine assembles the chat engine from the resolved config: session
// store, webhook transport, orchestrator. The returned cleanup closes the
// store; callers must invoke it.
func buildEngine(cfg config.Config) (*chat.Client, func(), error) {
	issues := config.Validate(&cfg)
	if len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return nil, nil, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}

	sessions, cleanup, err := openSessionStore(cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	webhook := transport.NewWebhook(cfg.Webhook, log)
	engine := chat.New(cfg.Chat, webhook, sessions, log)
	return engine, cleanup, nil
}

// openSessionStore selects the persistence backend from config.
func openSessionStore(cfg config.StoreConfig) (store.SessionStore, func(), error) {
	if cfg.Driver == "memory" {
		log.Info().Msg("using in-memory session store")
		return store.NewMemorySessionStore(), func() {}, nil
	}

	dbPath := cfg.Path
	if dbPath == "" {
		if err := paths.EnsureDirs(); err != nil {
			return nil, nil, fmt.Errorf("creating data directory: %w", err)
		}
		dbPath = paths.DefaultStorePath()
	}

	db, err := store.Open(dbPath, log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	log.Info().Str("path", dbPath).Msg("using SQLite session store")
	return store.NewSQLiteSessionStore(db), func() { db.Close() }, nil
}

// loadConfig reads the config file, falling back to defaults when absent.
func loadConfig() config.Config {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		log.Debug().Err(err).Str("path", paths.Config).Msg("config not loaded, using defaults")
		return config.Defaults()
	}
	return cfg
}
