package service

import (
	"github.com/AlibekovAA/social-hub/internal/observability/metrics"
)

func recordLogin(result string) {
	metrics.LoginAttemptsTotal.WithLabelValues(result).Inc()
}

func recordRegistration(result string) {
	metrics.RegistrationsTotal.WithLabelValues(result).Inc()
}

func incrementSessionsIssued() {
	metrics.SessionsIssued.Inc()
}

func incrementSessionsRevoked() {
	metrics.SessionsRevoked.Inc()
}

func recordResolveFailure(reason string) {
	metrics.SessionResolveFailures.WithLabelValues(reason).Inc()
}
