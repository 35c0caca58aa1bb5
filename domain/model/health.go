package model

import "time"

// Health component statuses.
const (
	HealthStatusUp       = "up"
	HealthStatusDown     = "down"
	HealthStatusDisabled = "disabled"
)

// HealthCheck is one component probe result.
type HealthCheck struct {
	Component string    `json:"component" bson:"component"`
	Status    string    `json:"status" bson:"status"`
	Detail    string    `json:"detail,omitempty" bson:"detail,omitempty"`
	CheckedAt time.Time `json:"checked_at" bson:"checked_at"`
}

// HealthSnapshot aggregates the component probes taken at one instant,
// optionally persisted to Mongo for an operational history.
type HealthSnapshot struct {
	Checks      []HealthCheck `json:"checks" bson:"checks"`
	PendingJobs int64         `json:"pending_jobs" bson:"pending_jobs"`
	TakenAt     time.Time     `json:"taken_at" bson:"taken_at"`
}

// Healthy reports whether no probe is down. Disabled components do not count
// against health.
func (s *HealthSnapshot) Healthy() bool {
	for _, c := range s.Checks {
		if c.Status == HealthStatusDown {
			return false
		}
	}
	return true
}
