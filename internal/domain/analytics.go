package domain

import "time"

// Analytics defaults. Time windows and thresholds are hours, fuel
// thresholds are percentages.
const (
	DefaultTimeWindow        = 24.0
	DefaultInactiveThreshold = 24.0
	MaxTimeWindow            = 8760.0 // 1 year
	LowFuelThreshold         = 15.0
	CriticalFuelThreshold    = 5.0
)

// FleetAnalytics is the fleet-wide snapshot returned by /analytics/fleet.
type FleetAnalytics struct {
	ActiveVehicles       int          `json:"activeVehicles"`
	InactiveVehicles     int          `json:"inactiveVehicles"`
	TotalVehicles        int          `json:"totalVehicles"`
	AverageFuelLevel     float64      `json:"averageFuelLevel"`
	TotalDistanceLast24h float64      `json:"totalDistanceLast24h"`
	AlertSummary         AlertSummary `json:"alertSummary"`
	LastUpdated          time.Time    `json:"lastUpdated"`
}

type ActivityStatus struct {
	Active            int     `json:"active"`
	Inactive          int     `json:"inactive"`
	InactiveThreshold float64 `json:"inactiveThreshold"`
}

type FuelAnalytics struct {
	AverageFuelLevel     float64   `json:"averageFuelLevel"`
	LowFuelVehicles      int       `json:"lowFuelVehicles"`
	CriticalFuelVehicles int       `json:"criticalFuelVehicles"`
	FleetID              string    `json:"fleetId,omitempty"`
	LastUpdated          time.Time `json:"lastUpdated"`
}

type DistanceAnalytics struct {
	TotalDistance             float64   `json:"totalDistance"`
	AverageDistancePerVehicle float64   `json:"averageDistancePerVehicle"`
	TimeWindow                float64   `json:"timeWindow"`
	VehicleCount              int       `json:"vehicleCount"`
	FleetID                   string    `json:"fleetId,omitempty"`
	LastUpdated               time.Time `json:"lastUpdated"`
}

// AlertSummary counts alerts created within the window, grouped by type
// and by severity independently (not cross-tabulated).
type AlertSummary struct {
	ByType      map[string]int `json:"byType"`
	BySeverity  map[string]int `json:"bySeverity"`
	Total       int            `json:"total"`
	TimeWindow  float64        `json:"timeWindow"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// VehicleActivity covers every known vehicle, including ones that have
// never reported: those carry nil LastTelemetryTime and nil HoursInactive.
type VehicleActivity struct {
	VehicleVIN        string     `json:"vehicleVin"`
	IsActive          bool       `json:"isActive"`
	LastTelemetryTime *time.Time `json:"lastTelemetryTime"`
	HoursInactive     *float64   `json:"hoursInactive"`
}

type VehicleDistance struct {
	VehicleVIN       string  `json:"vehicleVin"`
	StartOdometer    float64 `json:"startOdometer"`
	EndOdometer      float64 `json:"endOdometer"`
	DistanceTraveled float64 `json:"distanceTraveled"`
	TimeWindow       float64 `json:"timeWindow"`
}

type VehicleFuelStatus struct {
	VehicleVIN       string    `json:"vehicleVin"`
	CurrentFuelLevel float64   `json:"currentFuelLevel"`
	LastUpdated      time.Time `json:"lastUpdated"`
	IsLowFuel        bool      `json:"isLowFuel"`
	IsCriticalFuel   bool      `json:"isCriticalFuel"`
}

// AnalyticsHealth reports the probe used by /analytics/health.
type AnalyticsHealth struct {
	Status       string    `json:"status"` // healthy | degraded | unhealthy
	CacheSize    int       `json:"cacheSize"`
	LastUpdate   time.Time `json:"lastUpdate"`
	ResponseTime *int64    `json:"responseTime,omitempty"` // milliseconds
}

// Aggregate row shapes produced by the store and consumed by the
// analytics computations.

// OdometerSpan is one vehicle's min/max odometer among rows inside a
// time window.
type OdometerSpan struct {
	VehicleVIN  string
	MinOdometer float64
	MaxOdometer float64
}

// VehicleLastSeen pairs a vehicle with its most recent telemetry
// timestamp; nil when the vehicle has never reported.
type VehicleLastSeen struct {
	VehicleVIN        string
	LastTelemetryTime *time.Time
}

// FuelReading is a vehicle's latest fuel/battery level.
type FuelReading struct {
	VehicleVIN       string
	FuelBatteryLevel float64
	Timestamp        time.Time
}
