package service

import (
	"testing"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/port"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *SessionManager {
	return NewSessionManager(SessionManagerDeps{
		Store:       new(MockPackageLister),
		Clock:       newFakeClock(),
		NewProvider: func() port.LocationProvider { return new(MockProvider) },
	})
}

func TestCreateReplacesExistingSession(t *testing.T) {
	mgr := newTestManager()
	driverID := uuid.New()

	first := mgr.Create(driverID)
	second := mgr.Create(driverID)

	assert.Equal(t, 1, mgr.Count())
	current, ok := mgr.Get(driverID.String())
	require.True(t, ok)
	assert.Same(t, second, current)
	assert.NotSame(t, first, second)

	// The replaced session's channel was destroyed.
	assert.False(t, first.FitToPackages())
	assert.Equal(t, 0, first.Channel().QueuedCount())
}

func TestRemoveOnlyDropsOwnSession(t *testing.T) {
	mgr := newTestManager()
	driverID := uuid.New()

	stale := mgr.Create(driverID)
	replacement := mgr.Create(driverID)

	// A late disconnect callback from the stale session must not evict the
	// replacement.
	mgr.Remove(stale)

	current, ok := mgr.Get(driverID.String())
	require.True(t, ok)
	assert.Same(t, replacement, current)

	mgr.Remove(replacement)
	_, ok = mgr.Get(driverID.String())
	assert.False(t, ok)
	assert.Equal(t, 0, mgr.Count())
}
