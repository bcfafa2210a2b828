package service

import (
	"context"
	"sort"
	"time"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/domain"
	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/port"
	"go.uber.org/zap"
)

// SamplerConfig tunes the acquisition loop. The thresholds were chosen for
// outdoor pedestrian GPS; indoor or vehicular use may want different values,
// so none of them are hardcoded in the algorithm.
type SamplerConfig struct {
	// MaxReadings bounds the number of raw samples per acquisition.
	MaxReadings int
	// ReadingInterval is the pause between consecutive samples.
	ReadingInterval time.Duration
	// ExcellentAccuracyM stops the loop early once reached, provided
	// MinReadingsBeforeEarlyExit samples have been collected.
	ExcellentAccuracyM float64
	// PoorAccuracyM is the exclusive upper bound for a "good" reading.
	PoorAccuracyM float64
	// MinReadingsBeforeEarlyExit prevents trusting a single lucky sample.
	MinReadingsBeforeEarlyExit int
}

func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		MaxReadings:                3,
		ReadingInterval:            2 * time.Second,
		ExcellentAccuracyM:         5,
		PoorAccuracyM:              200,
		MinReadingsBeforeEarlyExit: 2,
	}
}

// LocationSampler produces one fix of the best practically achievable
// accuracy within the caller's time budget by taking repeated samples and
// averaging the good ones.
type LocationSampler struct {
	provider port.LocationProvider
	clock    port.Clock
	cfg      SamplerConfig
	logger   *zap.Logger
}

func NewLocationSampler(provider port.LocationProvider, cfg SamplerConfig, clock port.Clock, logger *zap.Logger) *LocationSampler {
	if cfg.MaxReadings <= 0 {
		cfg.MaxReadings = DefaultSamplerConfig().MaxReadings
	}
	if cfg.ReadingInterval <= 0 {
		cfg.ReadingInterval = DefaultSamplerConfig().ReadingInterval
	}
	if cfg.ExcellentAccuracyM <= 0 {
		cfg.ExcellentAccuracyM = DefaultSamplerConfig().ExcellentAccuracyM
	}
	if cfg.PoorAccuracyM <= 0 {
		cfg.PoorAccuracyM = DefaultSamplerConfig().PoorAccuracyM
	}
	if cfg.MinReadingsBeforeEarlyExit <= 0 {
		cfg.MinReadingsBeforeEarlyExit = DefaultSamplerConfig().MinReadingsBeforeEarlyExit
	}
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationSampler{provider: provider, clock: clock, cfg: cfg, logger: logger}
}

// Acquire runs one acquisition attempt. The overall budget is the caller's
// context; when it expires the in-flight provider call is abandoned and
// ErrAcquisitionTimeout is returned. Individual failed samples are logged
// and skipped; only a fully empty attempt fails with ErrNoReadings.
func (s *LocationSampler) Acquire(ctx context.Context) (domain.LocationFix, error) {
	var readings []domain.LocationReading
	for attempt := 1; attempt <= s.cfg.MaxReadings; attempt++ {
		if attempt > 1 {
			s.clock.Sleep(s.cfg.ReadingInterval)
		}
		if ctx.Err() != nil {
			return domain.LocationFix{}, domain.ErrAcquisitionTimeout
		}
		reading, err := s.provider.CurrentReading(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return domain.LocationFix{}, domain.ErrAcquisitionTimeout
			}
			s.logger.Warn("location reading failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}
		reading.ReadingNumber = attempt
		readings = append(readings, reading)
		s.logger.Debug("location reading collected",
			zap.Int("attempt", attempt),
			zap.Float64("accuracyM", reading.AccuracyM))
		if reading.AccuracyM <= s.cfg.ExcellentAccuracyM && len(readings) >= s.cfg.MinReadingsBeforeEarlyExit {
			break
		}
	}
	if len(readings) == 0 {
		return domain.LocationFix{}, domain.ErrNoReadings
	}
	return s.resolve(readings), nil
}

// resolve partitions the samples at the poor threshold, prefers the good
// set, and averages it when at least two good readings exist. Reported
// accuracy for an averaged fix is the best accuracy among the inputs.
func (s *LocationSampler) resolve(readings []domain.LocationReading) domain.LocationFix {
	good := make([]domain.LocationReading, 0, len(readings))
	for _, r := range readings {
		if r.AccuracyM < s.cfg.PoorAccuracyM {
			good = append(good, r)
		}
	}
	pool := good
	if len(pool) == 0 {
		pool = readings
	}
	sorted := make([]domain.LocationReading, len(pool))
	copy(sorted, pool)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AccuracyM < sorted[j].AccuracyM })
	best := sorted[0]

	fix := domain.LocationFix{
		LocationReading: best,
		Method:          domain.FixMethodBestSingle,
		TotalReadings:   len(readings),
		GoodReadings:    len(good),
	}
	if len(good) >= 2 {
		var latSum, lngSum float64
		minAcc := good[0].AccuracyM
		for _, r := range good {
			latSum += r.Latitude
			lngSum += r.Longitude
			if r.AccuracyM < minAcc {
				minAcc = r.AccuracyM
			}
		}
		fix.Latitude = latSum / float64(len(good))
		fix.Longitude = lngSum / float64(len(good))
		fix.AccuracyM = minAcc
		fix.Method = domain.FixMethodAveraged
		fix.IsAveraged = true
	}
	return fix
}
