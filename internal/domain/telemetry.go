package domain

import "time"

type EngineStatus string

const (
	EngineOn   EngineStatus = "On"
	EngineOff  EngineStatus = "Off"
	EngineIdle EngineStatus = "Idle"
)

func (s EngineStatus) Valid() bool {
	switch s {
	case EngineOn, EngineOff, EngineIdle:
		return true
	}
	return false
}

// TelemetryRecord is immutable once written; the analytics layer only
// ever reads these rows.
type TelemetryRecord struct {
	ID               int64        `json:"id"`
	VehicleVIN       string       `json:"vehicleVin"`
	Latitude         float64      `json:"latitude"`
	Longitude        float64      `json:"longitude"`
	Speed            float64      `json:"speed"`
	EngineStatus     EngineStatus `json:"engineStatus"`
	FuelBatteryLevel float64      `json:"fuelBatteryLevel"`
	OdometerReading  float64      `json:"odometerReading"`
	DiagnosticCodes  []string     `json:"diagnosticCodes,omitempty"`
	Timestamp        time.Time    `json:"timestamp"`
	CreatedAt        time.Time    `json:"createdAt"`
}
