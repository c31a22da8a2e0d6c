package types

import "fmt"

// ValidationError reports a domain-constraint violation, naming the field
// that failed so callers can disambiguate bad input from stale references.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
