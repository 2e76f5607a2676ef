package policy

import "time"

// DefaultMutabilityWindow is how long after recordedAt an observation stays editable.
const DefaultMutabilityWindow = 24 * time.Hour

// CanMutate reports whether now is within window of recordedAt (inclusive).
func CanMutate(now, recordedAt time.Time, window time.Duration) bool {
	return now.Sub(recordedAt) <= window
}
