package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/domain"
	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/port"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultLocateTimeout = 30 * time.Second

// PackageLister is the slice of the package store the session needs.
type PackageLister interface {
	ListPackagesByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Package, error)
}

// MapSession wires one channel, facade and sampler to a single connected
// map peer and reacts to its lifecycle events. It is the owner the channel
// expects: it marks peerLoaded when the transport attaches and
// peerSignaledReady when the peer's mapReady event arrives.
type MapSession struct {
	id            string
	driverID      uuid.UUID
	channel       *MessageChannel
	facade        *MapCommandFacade
	sampler       *LocationSampler
	provider      port.LocationProvider
	geo           port.GeoWriter
	store         PackageLister
	logger        *zap.Logger
	locateTimeout time.Duration

	mu        sync.Mutex
	history   []domain.LocationFix
	markerIDs []string
}

type MapSessionDeps struct {
	DriverID      uuid.UUID
	Provider      port.LocationProvider
	Geo           port.GeoWriter
	Store         PackageLister
	Clock         port.Clock
	Logger        *zap.Logger
	ChannelCfg    ChannelConfig
	SamplerCfg    SamplerConfig
	LocateTimeout time.Duration
}

func NewMapSession(deps MapSessionDeps) *MapSession {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.LocateTimeout <= 0 {
		deps.LocateTimeout = defaultLocateTimeout
	}
	channel := NewMessageChannel(deps.ChannelCfg, deps.Clock, deps.Logger)
	s := &MapSession{
		id:            deps.DriverID.String(),
		driverID:      deps.DriverID,
		channel:       channel,
		facade:        NewMapCommandFacade(channel, deps.Logger),
		sampler:       NewLocationSampler(deps.Provider, deps.SamplerCfg, deps.Clock, deps.Logger),
		provider:      deps.Provider,
		geo:           deps.Geo,
		store:         deps.Store,
		logger:        deps.Logger.With(zap.String("sessionId", deps.DriverID.String())),
		locateTimeout: deps.LocateTimeout,
	}
	s.registerPeerEvents()
	return s
}

func (s *MapSession) registerPeerEvents() {
	s.channel.On(domain.EvtMapReady, s.onMapReady)
	s.channel.On(domain.EvtMarkerAdded, s.onMarkerAdded)
	s.channel.On(domain.EvtMarkerError, s.onMarkerError)
	s.channel.On(domain.EvtMapCentered, s.onMapCentered)
	s.channel.On(domain.EvtError, s.onPeerError)
	s.channel.On(domain.EvtLocationReading, s.onLocationReading)
}

func (s *MapSession) onMapReady(raw json.RawMessage) {
	var evt domain.MapReadyEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		s.logger.Warn("bad mapReady event", zap.Error(err))
		return
	}
	if evt.Capabilities != nil {
		if sink, ok := s.provider.(port.CapabilitySink); ok {
			sink.SetPermissionGranted(evt.Capabilities.LocationPermission)
			sink.SetServicesEnabled(evt.Capabilities.LocationServices)
		}
		s.logger.Info("map peer ready",
			zap.Bool("locationPermission", evt.Capabilities.LocationPermission),
			zap.Bool("locationServices", evt.Capabilities.LocationServices))
	} else {
		s.logger.Info("map peer ready")
	}
	s.channel.MarkPeerSignaledReady(true)
}

func (s *MapSession) onMarkerAdded(raw json.RawMessage) {
	var evt domain.MarkerAddedEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		s.logger.Warn("bad markerAdded event", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.markerIDs = append(s.markerIDs, evt.MarkerID)
	s.mu.Unlock()
	s.logger.Debug("marker draw acknowledged", zap.String("markerId", evt.MarkerID))
}

func (s *MapSession) onMarkerError(raw json.RawMessage) {
	var evt domain.MarkerErrorEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		s.logger.Warn("bad markerError event", zap.Error(err))
		return
	}
	s.logger.Warn("marker draw failed on peer",
		zap.String("markerId", evt.MarkerID),
		zap.String("peerError", evt.Error))
}

func (s *MapSession) onMapCentered(raw json.RawMessage) {
	var evt domain.MapCenteredEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return
	}
	s.logger.Debug("map centering completed", zap.Float64("zoom", evt.Zoom))
}

func (s *MapSession) onPeerError(raw json.RawMessage) {
	var evt domain.PeerErrorEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return
	}
	s.logger.Error("map peer reported error", zap.String("peerError", evt.Error))
}

func (s *MapSession) onLocationReading(raw json.RawMessage) {
	var evt domain.LocationReadingEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		s.logger.Warn("bad locationReading event", zap.Error(err))
		return
	}
	if sink, ok := s.provider.(port.ReadingSink); ok {
		sink.Publish(evt.Reading)
	}
	if s.geo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.geo.UpdateDriverPosition(ctx, s.driverID.String(), evt.Reading.Latitude, evt.Reading.Longitude); err != nil {
			s.logger.Warn("geo position update failed", zap.Error(err))
		}
	}
}

func (s *MapSession) ID() string { return s.id }

func (s *MapSession) DriverID() uuid.UUID { return s.driverID }

// Channel exposes the underlying message channel to the transport layer,
// which feeds inbound peer messages into it.
func (s *MapSession) Channel() *MessageChannel { return s.channel }

// AttachPeer installs the transport handle; the handshake is complete only
// once the peer also signals mapReady.
func (s *MapSession) AttachPeer(p port.MessagePeer) {
	s.channel.AttachPeer(p)
	s.channel.MarkPeerLoaded(true)
	s.logger.Info("map peer attached")
}

// DetachPeer drops all readiness flags so later sends queue until the peer
// reconnects and signals ready again.
func (s *MapSession) DetachPeer() {
	s.channel.MarkPeerSignaledReady(false)
	s.channel.MarkPeerLoaded(false)
	s.channel.AttachPeer(nil)
	s.logger.Info("map peer detached")
}

// LocateMe acquires a high-confidence fix, records it in the history, then
// centers the map and drops a marker. The returned errors are the typed
// acquisition failures from the domain package; the caller owns the retry
// affordance.
func (s *MapSession) LocateMe(ctx context.Context) (domain.LocationFix, error) {
	if !s.provider.ServicesEnabled() {
		return domain.LocationFix{}, domain.ErrServicesDisabled
	}
	if !s.provider.PermissionGranted() {
		return domain.LocationFix{}, domain.ErrPermissionDenied
	}

	ctx, cancel := context.WithTimeout(ctx, s.locateTimeout)
	defer cancel()

	fix, err := s.sampler.Acquire(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = domain.ErrAcquisitionTimeout
		}
		s.logger.Warn("location acquisition failed", zap.Error(err))
		return domain.LocationFix{}, err
	}

	s.mu.Lock()
	s.history = append(s.history, fix)
	s.mu.Unlock()

	s.logger.Info("location fix acquired",
		zap.String("method", string(fix.Method)),
		zap.Float64("accuracyM", fix.AccuracyM),
		zap.Int("totalReadings", fix.TotalReadings),
		zap.Int("goodReadings", fix.GoodReadings))

	coord := domain.Coordinate{Latitude: fix.Latitude, Longitude: fix.Longitude}
	s.facade.CenterOnLocation(coord, fix.AccuracyM)
	s.facade.AddUserLocationMarker(fix)
	return fix, nil
}

// SyncPackages loads the driver's packages from the store and pushes them
// to the peer. Returns the number of packages loaded.
func (s *MapSession) SyncPackages(ctx context.Context) (int, error) {
	packages, err := s.store.ListPackagesByDriver(ctx, s.driverID)
	if err != nil {
		return 0, err
	}
	s.facade.LoadPackagesOnMap(packages, s.lastCoordinate())
	return len(packages), nil
}

// FitToPackages asks the peer to frame the loaded packages.
func (s *MapSession) FitToPackages() bool {
	return s.facade.FitToPackages()
}

// ClearMarkers removes user markers on the peer; the local marker history
// is cleared only when the command was actually delivered.
func (s *MapSession) ClearMarkers() bool {
	if !s.facade.ClearUserMarkers() {
		return false
	}
	s.mu.Lock()
	s.markerIDs = nil
	s.mu.Unlock()
	return true
}

// ReportDriverLocation feeds a raw reading into the sampler's provider,
// records the driver position in the geo index, and moves the driver marker
// on the peer.
func (s *MapSession) ReportDriverLocation(ctx context.Context, reading domain.LocationReading) error {
	if sink, ok := s.provider.(port.ReadingSink); ok {
		sink.Publish(reading)
	}
	if s.geo != nil {
		if err := s.geo.UpdateDriverPosition(ctx, s.driverID.String(), reading.Latitude, reading.Longitude); err != nil {
			return err
		}
	}
	s.facade.UpdateDriverLocation(&reading)
	return nil
}

// History returns the fixes acquired during this session, oldest first.
func (s *MapSession) History() []domain.LocationFix {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LocationFix, len(s.history))
	copy(out, s.history)
	return out
}

// Markers returns the ids of markers the peer has acknowledged.
func (s *MapSession) Markers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.markerIDs))
	copy(out, s.markerIDs)
	return out
}

// Close tears the session down and discards any queued messages.
func (s *MapSession) Close() {
	s.channel.Destroy()
}

func (s *MapSession) lastCoordinate() *domain.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return nil
	}
	last := s.history[len(s.history)-1]
	return &domain.Coordinate{Latitude: last.Latitude, Longitude: last.Longitude}
}
