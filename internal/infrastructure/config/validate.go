package config

import "fmt"

// ValidationError is a configuration validation failure for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidatePort checks that port is within 1..65535.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

// ValidateLogLevel checks that level is a known logger level.
func ValidateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return nil
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"}
	}
}

// ValidateRange checks that value is within [lo, hi].
func ValidateRange(field string, value, lo, hi float64) error {
	if value < lo || value > hi {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be between %g and %g", lo, hi)}
	}
	return nil
}
