package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/akeren/atelier-waitlist/config/router"
	"github.com/akeren/atelier-waitlist/internal/log"
)

const healthCheckTimeout = 3 * time.Second

// Datastore is the store behind the waitlist table.
type Datastore interface {
	Ping(ctx context.Context) error
}

// BreakerReporter is implemented by stores that sit behind a circuit breaker.
type BreakerReporter interface {
	BreakerState() string
}

type HealthStatus struct {
	Datastore int    `json:"datastore"` // 1 = healthy, 0 = unhealthy
	Backend   string `json:"backend"`
	Breaker   string `json:"breaker,omitempty"`
	Uptime    int    `json:"uptime"` // uptime in seconds
}

type MonitoringController struct {
	datastore Datastore
	backend   string
	breaker   BreakerReporter
	logger    *log.Logger
	startTime time.Time
}

func NewMonitoringController(datastore Datastore, backend string, breaker BreakerReporter, logger *log.Logger) *router.RESTController {
	ctrl := &MonitoringController{
		datastore: datastore,
		backend:   backend,
		breaker:   breaker,
		logger:    logger,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			routerService.AddGetHandler(controller, "status", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.status(c)
			})

			routerService.AddGetHandler(controller, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(c)
			})
		},
	)
}

func (ctrl *MonitoringController) healthCheck(c *router.RequestContext) *router.ServiceResult {
	logger := router.GetLogger(c)
	logger.Info("Health check endpoint called")

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	healthStatus := ctrl.performHealthChecks(ctx, logger)

	if healthStatus.Datastore == 0 {
		return router.ErrorResult(http.StatusServiceUnavailable, "atelier-waitlist health check failed", healthStatus)
	}

	return router.OKResult(healthStatus, "atelier-waitlist health check completed")
}

func (ctrl *MonitoringController) status(c *router.RequestContext) *router.ServiceResult {
	return router.OKResult("Monitoring endpoint is operational.", "Monitoring successful")
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Backend: ctrl.backend,
		Uptime:  int(time.Since(ctrl.startTime).Seconds()),
	}

	checkDatastoreConnectivity(ctx, ctrl, &status, logger)

	if ctrl.breaker != nil {
		status.Breaker = ctrl.breaker.BreakerState()
	}

	return status
}

func checkDatastoreConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.datastore == nil {
		status.Datastore = 0
		logger.Error("Datastore not configured")
		return
	}

	if err := ctrl.datastore.Ping(ctx); err != nil {
		status.Datastore = 0
		logger.Error("Datastore health check failed", "backend", ctrl.backend, "error", err)
		return
	}

	status.Datastore = 1
	logger.Info("Datastore health check passed", "backend", ctrl.backend)
}
