package enums

import "fmt"

// BackfillStatus tracks a snapshot day that failed to archive and is
// waiting to be retried.
type BackfillStatus string

const (
	BackfillStatusPending  BackfillStatus = "pending"
	BackfillStatusResolved BackfillStatus = "resolved"
)

var validBackfillStatuses = []BackfillStatus{
	BackfillStatusPending,
	BackfillStatusResolved,
}

// String implements fmt.Stringer.
func (b BackfillStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BackfillStatus.
func (b BackfillStatus) IsValid() bool {
	for _, candidate := range validBackfillStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBackfillStatus converts raw input into a BackfillStatus.
func ParseBackfillStatus(value string) (BackfillStatus, error) {
	for _, candidate := range validBackfillStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid backfill status %q", value)
}
