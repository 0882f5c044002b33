package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akeren/atelier-waitlist/config/router"
	"github.com/akeren/atelier-waitlist/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDatastore struct {
	err error
}

func (s stubDatastore) Ping(context.Context) error { return s.err }

type stubBreaker string

func (s stubBreaker) BreakerState() string { return string(s) }

type healthResponse struct {
	Code    int          `json:"code"`
	Data    HealthStatus `json:"data"`
	Message string       `json:"message"`
}

func serveHealth(t *testing.T, factory MonitoringControllerFactory) (*httptest.ResponseRecorder, healthResponse) {
	t.Helper()
	t.Setenv("METRICS_ENABLED", "false")

	rs := router.CreateRouterService(log.NewLoggerWithJSONOutput(), nil)
	rs.MountController(factory.CreateController())

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestHealth_Healthy(t *testing.T) {
	logger := log.NewLoggerWithJSONOutput()

	w, resp := serveHealth(t, NewMonitoringControllerFactory(stubDatastore{}, "supabase", stubBreaker("closed"), logger))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resp.Data.Datastore)
	assert.Equal(t, "supabase", resp.Data.Backend)
	assert.Equal(t, "closed", resp.Data.Breaker)
}

func TestHealth_DatastoreDown(t *testing.T) {
	logger := log.NewLoggerWithJSONOutput()

	w, resp := serveHealth(t, NewMonitoringControllerFactory(stubDatastore{err: errors.New("refused")}, "sqlite", nil, logger))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 0, resp.Data.Datastore)
	assert.Empty(t, resp.Data.Breaker)
}

func TestStatus(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "false")

	rs := router.CreateRouterService(log.NewLoggerWithJSONOutput(), nil)
	rs.MountController(NewMonitoringController(stubDatastore{}, "sqlite", nil, log.NewLoggerWithJSONOutput()))

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Monitoring endpoint is operational.")
}
