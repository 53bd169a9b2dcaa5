package action

import (
	"fmt"

	"github.com/Sternrassler/wb-api-client/pkg/metrics"
)

// MissingFieldError is returned when an action declares a data field that the
// normalized result does not contain.
type MissingFieldError struct {
	Action string
	Field  string
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("WB service %s: field %q missing from response", e.Action, e.Field)
}

// Extract returns v[field] when field is set, or v itself otherwise.
func Extract(name string, v any, field string) (any, error) {
	if field == "" {
		return v, nil
	}

	obj, ok := v.(map[string]any)
	if !ok {
		metrics.MissingFields.WithLabelValues(name).Inc()
		return nil, &MissingFieldError{Action: name, Field: field}
	}

	value, ok := obj[field]
	if !ok {
		metrics.MissingFields.WithLabelValues(name).Inc()
		return nil, &MissingFieldError{Action: name, Field: field}
	}

	return value, nil
}
