package service

import (
	"github.com/AlibekovAA/authify/backend/internal/observability/metrics"
)

const (
	resultSuccess  = "success"
	resultConflict = "conflict"
	resultInvalid  = "invalid_credentials"
	resultError    = "error"
)

func recordRegistration(result string) {
	metrics.RegistrationsTotal.WithLabelValues(result).Inc()
}

func recordLogin(result string) {
	metrics.LoginsTotal.WithLabelValues(result).Inc()
}
