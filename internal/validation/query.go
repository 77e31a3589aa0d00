// Package validation rejects malformed input before it reaches the
// store or the analytics aggregator. Validators accumulate one error
// per bad field rather than failing fast, so the caller sees every
// problem at once.
package validation

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"fleet-telemetry/backend/internal/domain"
)

// ValidateAnalyticsQuery checks the query parameters shared by all
// analytics endpoints: fleetId, timeWindow, startTime, endTime.
func ValidateAnalyticsQuery(params url.Values) domain.ValidationErrors {
	var errs domain.ValidationErrors

	if params.Has("fleetId") {
		if strings.TrimSpace(params.Get("fleetId")) == "" {
			errs = append(errs, domain.FieldError{
				Field:   "fleetId",
				Message: "fleet ID must be a non-empty string",
				Value:   params.Get("fleetId"),
			})
		}
	}

	if params.Has("timeWindow") {
		tw, err := strconv.ParseFloat(params.Get("timeWindow"), 64)
		if err != nil || tw <= 0 || tw > domain.MaxTimeWindow {
			errs = append(errs, domain.FieldError{
				Field:   "timeWindow",
				Message: "time window must be a positive number of hours (max 8760)",
				Value:   params.Get("timeWindow"),
			})
		}
	}

	var start, end time.Time
	var startOK, endOK bool

	if params.Has("startTime") {
		t, err := time.Parse(time.RFC3339, params.Get("startTime"))
		if err != nil {
			errs = append(errs, domain.FieldError{
				Field:   "startTime",
				Message: "start time must be a valid ISO-8601 timestamp",
				Value:   params.Get("startTime"),
			})
		} else {
			start, startOK = t, true
		}
	}

	if params.Has("endTime") {
		t, err := time.Parse(time.RFC3339, params.Get("endTime"))
		if err != nil {
			errs = append(errs, domain.FieldError{
				Field:   "endTime",
				Message: "end time must be a valid ISO-8601 timestamp",
				Value:   params.Get("endTime"),
			})
		} else {
			end, endOK = t, true
		}
	}

	if startOK && endOK && !start.Before(end) {
		errs = append(errs, domain.FieldError{
			Field:   "timeRange",
			Message: "start time must be before end time",
		})
	}

	return errs
}

// ValidateActivityQuery adds the inactiveThreshold rule on top of the
// base analytics rules.
func ValidateActivityQuery(params url.Values) domain.ValidationErrors {
	errs := ValidateAnalyticsQuery(params)

	if params.Has("inactiveThreshold") {
		thr, err := strconv.ParseFloat(params.Get("inactiveThreshold"), 64)
		if err != nil || thr <= 0 || thr > domain.MaxTimeWindow {
			errs = append(errs, domain.FieldError{
				Field:   "inactiveThreshold",
				Message: "inactive threshold must be a positive number of hours (max 8760)",
				Value:   params.Get("inactiveThreshold"),
			})
		}
	}

	return errs
}

// ValidateAlertSummaryQuery adds resolved, alertTypes and severities
// rules on top of the base analytics rules.
func ValidateAlertSummaryQuery(params url.Values) domain.ValidationErrors {
	errs := ValidateAnalyticsQuery(params)

	if params.Has("resolved") {
		if v := params.Get("resolved"); v != "true" && v != "false" {
			errs = append(errs, domain.FieldError{
				Field:   "resolved",
				Message: "resolved must be a boolean value",
				Value:   v,
			})
		}
	}

	for _, t := range params["alertTypes"] {
		if strings.TrimSpace(t) == "" {
			errs = append(errs, domain.FieldError{
				Field:   "alertTypes",
				Message: "all alert types must be non-empty strings",
			})
			break
		}
	}

	for _, s := range params["severities"] {
		if !domain.Severity(s).Valid() {
			errs = append(errs, domain.FieldError{
				Field:   "severities",
				Message: "severities must be one of: Low, Medium, High, Critical",
				Value:   s,
			})
			break
		}
	}

	return errs
}

// SanitizeAnalyticsParams extracts the typed query struct from raw
// parameters, trimming strings, clamping the window to its maximum and
// discarding anything unparseable. Validation is expected to have run
// first; sanitization is forgiving on its own.
func SanitizeAnalyticsParams(params url.Values) domain.AnalyticsQuery {
	var q domain.AnalyticsQuery

	if v := strings.TrimSpace(params.Get("fleetId")); v != "" {
		q.FleetID = v
	}

	if v := params.Get("timeWindow"); v != "" {
		if tw, err := strconv.ParseFloat(v, 64); err == nil && tw > 0 {
			if tw > domain.MaxTimeWindow {
				tw = domain.MaxTimeWindow
			}
			q.TimeWindow = tw
		}
	}

	if v := params.Get("startTime"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.StartTime = &t
		}
	}

	if v := params.Get("endTime"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.EndTime = &t
		}
	}

	return q
}

func SanitizeActivityParams(params url.Values) domain.ActivityQuery {
	q := domain.ActivityQuery{AnalyticsQuery: SanitizeAnalyticsParams(params)}

	if v := params.Get("inactiveThreshold"); v != "" {
		if thr, err := strconv.ParseFloat(v, 64); err == nil && thr > 0 {
			if thr > domain.MaxTimeWindow {
				thr = domain.MaxTimeWindow
			}
			q.InactiveThreshold = thr
		}
	}

	return q
}

func SanitizeAlertSummaryParams(params url.Values) domain.AlertSummaryQuery {
	q := domain.AlertSummaryQuery{AnalyticsQuery: SanitizeAnalyticsParams(params)}

	switch params.Get("resolved") {
	case "true":
		v := true
		q.Resolved = &v
	case "false":
		v := false
		q.Resolved = &v
	}

	for _, t := range params["alertTypes"] {
		if t = strings.TrimSpace(t); t != "" {
			q.AlertTypes = append(q.AlertTypes, t)
		}
	}

	for _, s := range params["severities"] {
		if domain.Severity(s).Valid() {
			q.Severities = append(q.Severities, s)
		}
	}

	return q
}
