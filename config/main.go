package config

import (
	"context"
	"time"

	"github.com/akeren/atelier-waitlist/config/router"
	"github.com/akeren/atelier-waitlist/internal/log"
	"github.com/akeren/atelier-waitlist/internal/models"
	"github.com/akeren/atelier-waitlist/pkg/constants"
	"github.com/akeren/atelier-waitlist/pkg/postgrest"
	"github.com/akeren/atelier-waitlist/pkg/utils"
	"gorm.io/gorm"
)

const defaultTwitterURL = "https://twitter.com/useatelieros"

type ApplicationConfig struct {
	// Exactly one of DB and DataClient is set, depending on Store.Backend.
	DB              *gorm.DB
	DataClient      *postgrest.Client
	Store           *StoreConfig
	RouterService   *router.RouterService
	Logger          *log.Logger
	Config          *AppConfig
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	RequestTimeout time.Duration
	TwitterURL     string
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		RequestTimeout: utils.GetEnvPositiveDuration("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
		TwitterURL:     utils.GetEnvOrDefault("TWITTER_URL", defaultTwitterURL),
	}
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.DataClient != nil {
		CloseDataClient(ac.DataClient, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	ac.Logger.Info("Application cleanup completed")
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	store, err := NewStoreConfig()
	if err != nil {
		return nil, err
	}
	logger.Info("Waitlist store selected", "backend", string(store.Backend))

	if autoMigrate {
		if !store.UsesDatabase() {
			logger.Warn("--auto-migrate ignored: the supabase backend manages its own schema")
			autoMigrate = false
		} else {
			appEnv := GetAppEnv()
			if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
				return nil, err
			}
			if appEnv == "" {
				logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
			}
		}
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	appConfig := &ApplicationConfig{
		Store:           store,
		Logger:          logger,
		Config:          NewAppConfig(),
		TracingShutdown: tracingShutdown,
	}

	if store.UsesDatabase() {
		db, err := NewDatabase(logger, store, nil)
		if err != nil {
			appConfig.Cleanup()
			return nil, err
		}
		appConfig.DB = db

		if autoMigrate {
			if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
				appConfig.Cleanup()
				return nil, err
			}
		}
	} else {
		client, err := NewDataClient(logger, store)
		if err != nil {
			appConfig.Cleanup()
			return nil, err
		}
		appConfig.DataClient = client
	}

	appConfig.RouterService = router.CreateRouterService(logger, &router.RouterConfig{
		RequestTimeout: appConfig.Config.RequestTimeout,
	})

	logger.Info("Application configuration loaded successfully")

	return appConfig, nil
}
