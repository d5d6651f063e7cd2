package service

import "time"

// Registration outcomes recorded by RegistrationMetrics.
const (
	OutcomeCreated  = "created"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// RegistrationMetrics records registration results and hashing cost.
type RegistrationMetrics interface {
	RecordRegistration(outcome string)
	ObserveHashDuration(d time.Duration)
}
