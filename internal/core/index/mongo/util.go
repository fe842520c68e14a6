package mongo

import "time"

// timeUntil returns the remaining time before deadline, at least 1ms so the
// server-side limit never reads as "unbounded".
func timeUntil(deadline time.Time) time.Duration {
	d := time.Until(deadline)
	if d < time.Millisecond {
		return time.Millisecond
	}
	return d
}
