package version

import "fmt"

// ValidationError is returned when a caller-supplied value breaks a record
// precondition, before anything is persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ConfigError is returned when backend selection or a tag template is
// incomplete, before any storage I/O happens.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
