package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrDuplicateVIN    = errors.New("vehicle VIN already exists")
	ErrAlertNotFound   = errors.New("alert not found")
	ErrNoTelemetry     = errors.New("no telemetry data found for vehicle")
)

// FieldError describes a single invalid query parameter or body field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationErrors accumulates every problem found in a request so the
// caller sees all of them at once instead of the first only.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return strings.Join(msgs, "; ")
}
