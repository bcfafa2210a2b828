package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CurrentReading(ctx context.Context) (domain.LocationReading, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.LocationReading), args.Error(1)
}

func (m *MockProvider) PermissionGranted() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockProvider) ServicesEnabled() bool {
	args := m.Called()
	return args.Bool(0)
}

func reading(lat, lng, accuracy float64) domain.LocationReading {
	return domain.LocationReading{
		Latitude:  lat,
		Longitude: lng,
		AccuracyM: accuracy,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAcquireAveragesGoodReadings(t *testing.T) {
	provider := new(MockProvider)
	provider.On("CurrentReading", mock.Anything).Return(reading(40.7000, -74.0000, 4), nil).Once()
	provider.On("CurrentReading", mock.Anything).Return(reading(40.7002, -74.0002, 6), nil).Once()

	cfg := DefaultSamplerConfig()
	cfg.MaxReadings = 2
	sampler := NewLocationSampler(provider, cfg, newFakeClock(), nil)

	fix, err := sampler.Acquire(context.Background())

	require.NoError(t, err)
	assert.True(t, fix.IsAveraged)
	assert.Equal(t, domain.FixMethodAveraged, fix.Method)
	assert.InDelta(t, (40.7000+40.7002)/2, fix.Latitude, 1e-9)
	assert.InDelta(t, (-74.0000-74.0002)/2, fix.Longitude, 1e-9)
	assert.Equal(t, 4.0, fix.AccuracyM, "averaged fix reports the best accuracy among good readings")
	assert.Equal(t, 2, fix.TotalReadings)
	assert.Equal(t, 2, fix.GoodReadings)
	provider.AssertExpectations(t)
}

func TestAcquireStopsEarlyOnExcellentAccuracy(t *testing.T) {
	provider := new(MockProvider)
	provider.On("CurrentReading", mock.Anything).Return(reading(40.70, -74.00, 4), nil).Once()
	provider.On("CurrentReading", mock.Anything).Return(reading(40.71, -74.01, 3), nil).Once()

	clock := newFakeClock()
	sampler := NewLocationSampler(provider, DefaultSamplerConfig(), clock, nil)

	fix, err := sampler.Acquire(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, fix.TotalReadings, "excellent accuracy after two readings skips the third")
	assert.Len(t, clock.Sleeps(), 1, "only one inter-reading pause")
	provider.AssertExpectations(t)
}

func TestAcquireFallsBackToSingleGoodReading(t *testing.T) {
	goodReading := reading(40.7128, -74.0060, 8)
	provider := new(MockProvider)
	provider.On("CurrentReading", mock.Anything).Return(goodReading, nil).Once()
	provider.On("CurrentReading", mock.Anything).Return(reading(40.8, -74.1, 250), nil).Once()
	provider.On("CurrentReading", mock.Anything).Return(domain.LocationReading{}, errors.New("gps glitch")).Once()

	sampler := NewLocationSampler(provider, DefaultSamplerConfig(), newFakeClock(), nil)

	fix, err := sampler.Acquire(context.Background())

	require.NoError(t, err)
	assert.False(t, fix.IsAveraged)
	assert.Equal(t, domain.FixMethodBestSingle, fix.Method)
	assert.Equal(t, goodReading.Latitude, fix.Latitude)
	assert.Equal(t, goodReading.Longitude, fix.Longitude)
	assert.Equal(t, goodReading.AccuracyM, fix.AccuracyM)
	assert.Equal(t, 2, fix.TotalReadings)
	assert.Equal(t, 1, fix.GoodReadings)
}

func TestAcquireUsesAllReadingsWhenNoneGood(t *testing.T) {
	provider := new(MockProvider)
	provider.On("CurrentReading", mock.Anything).Return(reading(40.70, -74.00, 300), nil).Once()
	provider.On("CurrentReading", mock.Anything).Return(reading(40.71, -74.01, 250), nil).Once()
	provider.On("CurrentReading", mock.Anything).Return(reading(40.72, -74.02, 400), nil).Once()

	sampler := NewLocationSampler(provider, DefaultSamplerConfig(), newFakeClock(), nil)

	fix, err := sampler.Acquire(context.Background())

	require.NoError(t, err)
	assert.False(t, fix.IsAveraged)
	assert.Equal(t, 250.0, fix.AccuracyM, "best of the poor readings wins")
	assert.Equal(t, 0, fix.GoodReadings)
	assert.Equal(t, 3, fix.TotalReadings)
}

func TestAcquireFailsWhenNoReadingObtained(t *testing.T) {
	provider := new(MockProvider)
	provider.On("CurrentReading", mock.Anything).Return(domain.LocationReading{}, errors.New("provider offline")).Times(3)

	sampler := NewLocationSampler(provider, DefaultSamplerConfig(), newFakeClock(), nil)

	_, err := sampler.Acquire(context.Background())

	assert.ErrorIs(t, err, domain.ErrNoReadings)
	provider.AssertExpectations(t)
}

func TestAcquireHonorsCallerBudget(t *testing.T) {
	provider := new(MockProvider)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sampler := NewLocationSampler(provider, DefaultSamplerConfig(), newFakeClock(), nil)

	_, err := sampler.Acquire(ctx)

	assert.ErrorIs(t, err, domain.ErrAcquisitionTimeout)
	provider.AssertNotCalled(t, "CurrentReading", mock.Anything)
}

func TestAcquireNumbersReadings(t *testing.T) {
	provider := new(MockProvider)
	provider.On("CurrentReading", mock.Anything).Return(domain.LocationReading{}, errors.New("cold start")).Once()
	provider.On("CurrentReading", mock.Anything).Return(reading(40.70, -74.00, 40), nil).Once()
	provider.On("CurrentReading", mock.Anything).Return(reading(40.70, -74.00, 500), nil).Once()

	sampler := NewLocationSampler(provider, DefaultSamplerConfig(), newFakeClock(), nil)

	fix, err := sampler.Acquire(context.Background())

	require.NoError(t, err)
	// The surviving good reading was attempt number two.
	assert.Equal(t, 2, fix.ReadingNumber)
	assert.Equal(t, 2, fix.TotalReadings)
}
