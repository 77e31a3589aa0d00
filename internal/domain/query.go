package domain

import "time"

// AnalyticsQuery is the sanitized query shape shared by the analytics
// endpoints. Zero values mean "not provided"; defaults are applied by
// the analytics service.
type AnalyticsQuery struct {
	FleetID    string
	TimeWindow float64
	StartTime  *time.Time
	EndTime    *time.Time
}

type ActivityQuery struct {
	AnalyticsQuery
	InactiveThreshold float64
}

type AlertSummaryQuery struct {
	AnalyticsQuery
	Resolved   *bool
	AlertTypes []string
	Severities []string
}
