package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akeren/atelier-waitlist/internal/log"
	apperrors "github.com/akeren/atelier-waitlist/pkg/errors"
	"github.com/akeren/atelier-waitlist/pkg/postgrest"
	"github.com/akeren/atelier-waitlist/pkg/utils"
)

// Backend names the store behind the waitlist table.
type Backend string

const (
	BackendSupabase Backend = "supabase"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

const (
	WaitlistBackendEnvKey = "WAITLIST_BACKEND"
	SupabaseURLEnvKey     = "SUPABASE_URL"
	SupabaseAnonKeyEnvKey = "SUPABASE_ANON_KEY"
	SupabaseTimeoutEnvKey = "SUPABASE_TIMEOUT"
	SQLitePathEnvKey      = "SQLITE_PATH"

	defaultSQLitePath = "waitlist.db"
)

type StoreConfig struct {
	Backend Backend

	SupabaseURL     string
	SupabaseAnonKey string
	// SupabaseTimeout bounds each table service call. Zero means no client-side timeout.
	SupabaseTimeout time.Duration

	SQLitePath string
}

// NewStoreConfig reads the store settings from the environment. The supabase backend needs both
// SUPABASE_URL and SUPABASE_ANON_KEY; a missing one is a configuration error, not a runtime one.
func NewStoreConfig() (*StoreConfig, error) {
	backend := Backend(strings.ToLower(utils.GetEnvTrimmedOrDefault(WaitlistBackendEnvKey, string(BackendSupabase))))

	cfg := &StoreConfig{
		Backend:         backend,
		SupabaseURL:     sanitizeEnv(utils.GetEnvTrimmed(SupabaseURLEnvKey)),
		SupabaseAnonKey: sanitizeEnv(utils.GetEnvTrimmed(SupabaseAnonKeyEnvKey)),
		SupabaseTimeout: utils.GetEnvPositiveDuration(SupabaseTimeoutEnvKey, 0),
		SQLitePath:      sanitizeEnv(utils.GetEnvTrimmedOrDefault(SQLitePathEnvKey, defaultSQLitePath)),
	}

	switch backend {
	case BackendSupabase:
		var missing []string
		if cfg.SupabaseURL == "" {
			missing = append(missing, SupabaseURLEnvKey)
		}
		if cfg.SupabaseAnonKey == "" {
			missing = append(missing, SupabaseAnonKeyEnvKey)
		}
		if len(missing) > 0 {
			return nil, apperrors.NewConfigurationError(
				fmt.Sprintf("missing required table service env vars: %s", strings.Join(missing, ", ")),
				nil,
			)
		}
	case BackendPostgres, BackendSQLite:
	default:
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("unsupported %s %q (allowed: supabase, postgres, sqlite)", WaitlistBackendEnvKey, backend),
			nil,
		)
	}

	return cfg, nil
}

func (sc *StoreConfig) UsesDatabase() bool {
	return sc.Backend == BackendPostgres || sc.Backend == BackendSQLite
}

// NewDataClient builds the table service client for the supabase backend.
func NewDataClient(logger *log.Logger, cfg *StoreConfig) (*postgrest.Client, error) {
	client, err := postgrest.NewClient(postgrest.Config{
		URL:     cfg.SupabaseURL,
		APIKey:  cfg.SupabaseAnonKey,
		Timeout: cfg.SupabaseTimeout,
	})
	if err != nil {
		var cfgErr *postgrest.ConfigError
		if errors.As(err, &cfgErr) {
			logger.Error("Table service client configuration is invalid", "error", err)
			return nil, apperrors.NewConfigurationError("invalid table service configuration", err)
		}
		return nil, err
	}

	logger.Info("Table service client configured", "url", cfg.SupabaseURL, "timeout", cfg.SupabaseTimeout.String())
	return client, nil
}

func CloseDataClient(client *postgrest.Client, logger *log.Logger) {
	if client == nil {
		return
	}

	client.Close()
	logger.Info("Table service client closed")
}
