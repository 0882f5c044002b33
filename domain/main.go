package domain

import (
	"fmt"

	"github.com/akeren/atelier-waitlist/config"
	"github.com/akeren/atelier-waitlist/domain/monitoring"
	"github.com/akeren/atelier-waitlist/domain/waitlist"
	"github.com/akeren/atelier-waitlist/pkg/postgrest"
	"github.com/akeren/atelier-waitlist/web"
)

// SetupCoreDomain wires the waitlist store, service and pages into the router. The service is
// built once so its metrics register a single time.
func SetupCoreDomain(appConfig *config.ApplicationConfig) error {
	rs := appConfig.RouterService
	logger := appConfig.Logger

	templates, err := web.Templates()
	if err != nil {
		return fmt.Errorf("load page templates: %w", err)
	}
	rs.SetHTMLTemplate(templates)

	var (
		repository waitlist.WaitlistRepository
		breaker    monitoring.BreakerReporter
	)

	if appConfig.DataClient != nil {
		repository = waitlist.NewRESTWaitlistRepository(appConfig.DataClient)
		breaker = clientBreaker{client: appConfig.DataClient}
	} else {
		repository = waitlist.NewGormWaitlistRepository(appConfig.DB)
	}

	metrics := waitlist.NewSignupMetrics(rs.MetricsRegisterer())
	service := waitlist.NewWaitlistService(logger, repository, metrics)

	backend := string(appConfig.Store.Backend)
	rs.MountController(monitoring.NewMonitoringControllerFactory(repository, backend, breaker, logger).CreateController())
	rs.MountController(waitlist.NewLandingPageController(service, logger, appConfig.Config.TwitterURL))
	rs.MountController(waitlist.NewWaitlistController(service, logger))

	return nil
}

type clientBreaker struct {
	client *postgrest.Client
}

func (b clientBreaker) BreakerState() string {
	return b.client.BreakerState().String()
}
