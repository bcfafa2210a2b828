package service

import (
	"sync"
	"time"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/adapter/location"
	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/port"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionManager owns the live map sessions, one per driver. A driver
// reconnecting replaces their previous session.
type SessionManager struct {
	store         PackageLister
	geo           port.GeoWriter
	clock         port.Clock
	logger        *zap.Logger
	channelCfg    ChannelConfig
	samplerCfg    SamplerConfig
	locateTimeout time.Duration
	newProvider   func() port.LocationProvider

	mu       sync.RWMutex
	sessions map[string]*MapSession
}

type SessionManagerDeps struct {
	Store         PackageLister
	Geo           port.GeoWriter
	Clock         port.Clock
	Logger        *zap.Logger
	ChannelCfg    ChannelConfig
	SamplerCfg    SamplerConfig
	LocateTimeout time.Duration
	// NewProvider overrides the per-session location source; the default is
	// an in-memory feed filled by the peer's locationReading events.
	NewProvider func() port.LocationProvider
}

func NewSessionManager(deps SessionManagerDeps) *SessionManager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.NewProvider == nil {
		deps.NewProvider = func() port.LocationProvider { return location.NewFeed() }
	}
	return &SessionManager{
		store:         deps.Store,
		geo:           deps.Geo,
		clock:         deps.Clock,
		logger:        deps.Logger,
		channelCfg:    deps.ChannelCfg,
		samplerCfg:    deps.SamplerCfg,
		locateTimeout: deps.LocateTimeout,
		newProvider:   deps.NewProvider,
		sessions:      make(map[string]*MapSession),
	}
}

// Create builds a session for the driver, closing any previous one.
func (m *SessionManager) Create(driverID uuid.UUID) *MapSession {
	session := NewMapSession(MapSessionDeps{
		DriverID:      driverID,
		Provider:      m.newProvider(),
		Geo:           m.geo,
		Store:         m.store,
		Clock:         m.clock,
		Logger:        m.logger,
		ChannelCfg:    m.channelCfg,
		SamplerCfg:    m.samplerCfg,
		LocateTimeout: m.locateTimeout,
	})

	m.mu.Lock()
	previous := m.sessions[session.ID()]
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	if previous != nil {
		previous.Close()
		m.logger.Info("replaced existing map session", zap.String("sessionId", session.ID()))
	}
	return session
}

func (m *SessionManager) Get(id string) (*MapSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok
}

// Remove drops the session from the registry if it is still the registered
// one, and closes it.
func (m *SessionManager) Remove(session *MapSession) {
	m.mu.Lock()
	if current, ok := m.sessions[session.ID()]; ok && current == session {
		delete(m.sessions, session.ID())
	}
	m.mu.Unlock()
	session.Close()
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
