package logfan

import (
	"fmt"
	"strings"
)

// Severity is the ordered level attached to records and registrations.
// Comparisons use the numeric codes, so a registration admits a record
// when the record's severity is greater than or equal to its minimum.
type Severity int

const (
	// None is a filter sentinel: a registration with minimum severity None
	// admits every record. It is never attached to a real record.
	None Severity = 0

	Debug       Severity = 10
	Information Severity = 20
	Warning     Severity = 30
	Error       Severity = 40
	Critical    Severity = 50
)

// String returns the canonical lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case None:
		return "none"
	case Debug:
		return "debug"
	case Information:
		return "information"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Critical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity converts a level name to its Severity. Matching is
// case-insensitive and accepts the common short form "info".
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none":
		return None, nil
	case "debug":
		return Debug, nil
	case "info", "information":
		return Information, nil
	case "warn", "warning":
		return Warning, nil
	case "error":
		return Error, nil
	case "critical":
		return Critical, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownSeverity, name)
	}
}
