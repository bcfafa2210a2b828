package location

import (
	"context"
	"sync"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/domain"
)

// Feed is an in-memory location provider fed by the transport side: the map
// peer streams raw device readings up to the host, and each CurrentReading
// call blocks until the next one arrives. Permission and services flags
// default to granted until the peer reports otherwise in its capabilities.
type Feed struct {
	mu         sync.Mutex
	waiters    []chan domain.LocationReading
	permission bool
	services   bool
}

func NewFeed() *Feed {
	return &Feed{permission: true, services: true}
}

// Publish hands a fresh reading to every blocked CurrentReading call.
func (f *Feed) Publish(reading domain.LocationReading) {
	f.mu.Lock()
	waiters := f.waiters
	f.waiters = nil
	f.mu.Unlock()
	for _, w := range waiters {
		w <- reading
	}
}

// CurrentReading waits for the next published reading. It never returns a
// stale sample: a reading published before the call is not observed.
func (f *Feed) CurrentReading(ctx context.Context) (domain.LocationReading, error) {
	ch := make(chan domain.LocationReading, 1)
	f.mu.Lock()
	f.waiters = append(f.waiters, ch)
	f.mu.Unlock()

	select {
	case reading := <-ch:
		return reading, nil
	case <-ctx.Done():
		f.mu.Lock()
		for i, w := range f.waiters {
			if w == ch {
				f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
				break
			}
		}
		f.mu.Unlock()
		return domain.LocationReading{}, ctx.Err()
	}
}

func (f *Feed) PermissionGranted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.permission
}

func (f *Feed) ServicesEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.services
}

func (f *Feed) SetPermissionGranted(granted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permission = granted
}

func (f *Feed) SetServicesEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.services = enabled
}
