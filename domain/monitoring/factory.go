package monitoring

import (
	"github.com/akeren/atelier-waitlist/config/router"
	"github.com/akeren/atelier-waitlist/internal/log"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	datastore Datastore
	backend   string
	breaker   BreakerReporter
	logger    *log.Logger
}

// NewMonitoringControllerFactory takes an optional breaker; pass nil for stores without one.
func NewMonitoringControllerFactory(datastore Datastore, backend string, breaker BreakerReporter, logger *log.Logger) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		datastore: datastore,
		backend:   backend,
		breaker:   breaker,
		logger:    logger,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.datastore, f.backend, f.breaker, f.logger)
}
