package port

import "time"

// Clock abstracts wall time so tests can advance virtual time through the
// channel's flush stagger and the sampler's inter-reading delay.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}
