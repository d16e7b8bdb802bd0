package domain

import (
	"slices"
	"time"
)

// Maintenance lifecycle states.
const (
	MaintenanceStatusScheduled  = "Scheduled"
	MaintenanceStatusInProgress = "In Progress"
	MaintenanceStatusVerifying  = "Verifying"
	MaintenanceStatusCompleted  = "Completed"
)

// MaintenanceStatuses is the closed set of values accepted for Maintenance.Status.
var MaintenanceStatuses = []string{
	MaintenanceStatusScheduled,
	MaintenanceStatusInProgress,
	MaintenanceStatusVerifying,
	MaintenanceStatusCompleted,
}

// Component states.
const (
	ComponentStatusOperational         = "Operational"
	ComponentStatusUnderMaintenance    = "Under Maintenance"
	ComponentStatusDegradedPerformance = "Degraded Performance"
	ComponentStatusPartialOutage       = "Partial Outage"
	ComponentStatusMajorOutage         = "Major Outage"
)

// ComponentStatuses is the closed set of values accepted for Component.Status.
var ComponentStatuses = []string{
	ComponentStatusOperational,
	ComponentStatusUnderMaintenance,
	ComponentStatusDegradedPerformance,
	ComponentStatusPartialOutage,
	ComponentStatusMajorOutage,
}

// IsMaintenanceStatus reports whether s is a known maintenance status.
func IsMaintenanceStatus(s string) bool { return slices.Contains(MaintenanceStatuses, s) }

// IsComponentStatus reports whether s is a known component status.
func IsComponentStatus(s string) bool { return slices.Contains(ComponentStatuses, s) }

// ParseTimestamp parses an RFC 3339 timestamp, with or without fractional
// seconds. Timestamps travel as strings so that the stored form is exactly
// what the caller sent.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// IsValidTimestamp reports whether s parses with ParseTimestamp.
func IsValidTimestamp(s string) bool {
	_, err := ParseTimestamp(s)
	return err == nil
}

// Now returns the current time formatted the way UpdatedAt defaults are stored.
func Now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
