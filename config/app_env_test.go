package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/akeren/atelier-waitlist/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAutoMigrateAllowed_AllowsDevLikeEnvs(t *testing.T) {
	allowed := []string{"", "dev", "development", "local", "test", "testing", "DEV", "  Local  "}

	for _, env := range allowed {
		t.Run(env, func(t *testing.T) {
			assert.NoError(t, ValidateAutoMigrateAllowed(env))
		})
	}
}

func TestValidateAutoMigrateAllowed_RejectsProdAndOtherEnvs(t *testing.T) {
	rejected := []string{"prod", "production", "staging", "preprod", " Production ", "qa"}

	for _, env := range rejected {
		t.Run(env, func(t *testing.T) {
			assert.Error(t, ValidateAutoMigrateAllowed(env))
		})
	}
}

func TestSanitizeEnv(t *testing.T) {
	assert.Equal(t, "https://abc.supabase.co", sanitizeEnv(`  "https://abc.supabase.co" `))
	assert.Equal(t, "key", sanitizeEnv(`'key'`))
	assert.Equal(t, `"`, sanitizeEnv(`"`))
}

func TestParseOTLPEndpoint(t *testing.T) {
	hostport, path, insecure, err := parseOTLPEndpoint("http://collector:4318")
	assert.NoError(t, err)
	assert.Equal(t, "collector:4318", hostport)
	assert.Equal(t, "/v1/traces", path)
	assert.True(t, insecure)

	hostport, path, insecure, err = parseOTLPEndpoint("https://otel.example.com/custom")
	assert.NoError(t, err)
	assert.Equal(t, "otel.example.com", hostport)
	assert.Equal(t, "/custom", path)
	assert.False(t, insecure)

	_, _, _, err = parseOTLPEndpoint("collector:4318/v1/traces")
	assert.Error(t, err)

	_, _, _, err = parseOTLPEndpoint("grpc://collector:4317")
	assert.Error(t, err)
}

func TestInitializeEnvFile_LoadsWithoutOverriding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("WAITLIST_TEST_FROM_FILE=file\nWAITLIST_TEST_PRESET=file\n"), 0o600))

	t.Setenv("SKIP_DOTENV", "")
	t.Setenv(DotenvPathKey, path)
	t.Setenv("WAITLIST_TEST_PRESET", "process")
	t.Setenv("WAITLIST_TEST_FROM_FILE", "")
	os.Unsetenv("WAITLIST_TEST_FROM_FILE")

	InitializeEnvFile(log.NewLoggerWithJSONOutput())

	assert.Equal(t, "file", os.Getenv("WAITLIST_TEST_FROM_FILE"))
	assert.Equal(t, "process", os.Getenv("WAITLIST_TEST_PRESET"))
}

func TestTracingAttributes(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv(AppEnvKey, " Staging ")
	t.Setenv(WaitlistBackendEnvKey, "SQLite")

	attrs := map[string]string{}
	for _, kv := range tracingAttributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}

	assert.Equal(t, "atelier-waitlist", attrs["service.name"])
	assert.Equal(t, "staging", attrs["deployment.environment"])
	assert.Equal(t, "sqlite", attrs["waitlist.backend"])
}

func TestSetupTracing_DisabledReturnsNilShutdown(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "false")

	shutdown, err := SetupTracing(log.NewLoggerWithJSONOutput())
	require.NoError(t, err)
	assert.Nil(t, shutdown)
}

func TestNewOTLPExporter(t *testing.T) {
	exporter, err := newOTLPExporter("http://localhost:4318")
	require.NoError(t, err)
	require.NotNil(t, exporter)
	assert.NoError(t, exporter.Shutdown(context.Background()))

	_, err = newOTLPExporter("collector:4318/v1/traces")
	assert.Error(t, err)
}
