package session

import "time"

// SetClock replaces the clock of the Issuer.
func SetClock(i *Issuer, now func() time.Time) {
	i.now = now
}
