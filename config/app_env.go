package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/akeren/atelier-waitlist/internal/log"
	"github.com/akeren/atelier-waitlist/pkg/utils"
	"github.com/joho/godotenv"
)

const (
	AppEnvKey     = "APP_ENV"
	DotenvPathKey = "DOTENV_PATH"
)

// InitializeEnvFile loads DOTENV_PATH (default .env) without overriding variables already set in
// the process environment. Set SKIP_DOTENV=true in containers that inject env directly.
func InitializeEnvFile(logger *log.Logger) {
	if utils.GetEnvBool("SKIP_DOTENV", false) {
		logger.Info("Skipping .env file load (SKIP_DOTENV=true)")
		return
	}

	path := utils.GetEnvTrimmedOrDefault(DotenvPathKey, ".env")

	if err := godotenv.Load(path); err != nil {
		logger.Warn("No .env file found or failed to load it", "path", path, "error", err.Error())
		return
	}

	logger.Info("Environment variables loaded from .env file", "path", path)
}

func GetValueFromEnvironmentVariable(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func GetAppEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(AppEnvKey)))
}

// ValidateAutoMigrateAllowed keeps --auto-migrate away from shared environments, where the
// schema belongs to `cli migrate`.
func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))

	switch env {
	case "", "dev", "development", "local", "test", "testing":
		return nil
	default:
		return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: \"\", dev, development, local, test, testing)", AppEnvKey, env)
	}
}
