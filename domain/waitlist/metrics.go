package waitlist

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess   = "success"
	outcomeDuplicate = "duplicate"
	outcomeFailure   = "failure"
)

type SignupMetrics struct {
	signups *prometheus.CounterVec
}

// NewSignupMetrics registers the signup counter on reg. A nil reg keeps the counter local,
// which is what happens when /metrics is disabled.
func NewSignupMetrics(reg prometheus.Registerer) *SignupMetrics {
	m := &SignupMetrics{
		signups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_signups_total",
				Help: "Waitlist submissions by outcome.",
			},
			[]string{"outcome"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.signups)
	}

	return m
}

func (m *SignupMetrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(outcome).Inc()
}
