package analytics

import (
	"fmt"
	"strconv"
)

// Cache keys are built from the operation name and normalized parameter
// values, so identical logical queries always map to the same key. An
// absent fleet filter normalizes to the literal "all"; the refresh flow
// relies on that marker when scoping invalidation.

func fleetOrAll(fleetID string) string {
	if fleetID == "" {
		return "all"
	}
	return fleetID
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func fleetAnalyticsKey(fleetID string, timeWindow float64) string {
	return fmt.Sprintf("fleet_analytics_%s_%s", fleetOrAll(fleetID), formatHours(timeWindow))
}

func activityStatusKey(fleetID string, timeWindow, threshold float64) string {
	return fmt.Sprintf("activity_status_%s_%s_%s", fleetOrAll(fleetID), formatHours(timeWindow), formatHours(threshold))
}

func fuelAnalyticsKey(fleetID string) string {
	return fmt.Sprintf("fuel_analytics_%s", fleetOrAll(fleetID))
}

func distanceAnalyticsKey(fleetID string, timeWindow float64) string {
	return fmt.Sprintf("distance_analytics_%s_%s", fleetOrAll(fleetID), formatHours(timeWindow))
}

func alertSummaryKey(fleetID string, timeWindow float64, resolved *bool) string {
	res := "all"
	if resolved != nil {
		res = strconv.FormatBool(*resolved)
	}
	return fmt.Sprintf("alert_summary_%s_%s_%s", fleetOrAll(fleetID), formatHours(timeWindow), res)
}
