package domain

import "time"

type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Alert is created by alert submission and mutated only by the resolve
// operation, which sets Resolved and stamps ResolvedAt.
type Alert struct {
	ID          int64      `json:"id"`
	VehicleVIN  string     `json:"vehicleVin"`
	TelemetryID *int64     `json:"telemetryId,omitempty"`
	AlertType   string     `json:"alertType"`
	Severity    Severity   `json:"severity"`
	Message     string     `json:"message"`
	Resolved    bool       `json:"resolved"`
	CreatedAt   time.Time  `json:"createdAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
}

type AlertFilter struct {
	VehicleVIN string
	AlertType  string
	Severity   string
	Resolved   *bool
	StartTime  *time.Time
	EndTime    *time.Time
}
