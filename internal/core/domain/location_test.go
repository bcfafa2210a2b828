package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTierForAccuracy(t *testing.T) {
	tests := []struct {
		name      string
		accuracyM float64
		expected  AccuracyTier
	}{
		{"At Excellent Bound", 5, TierExcellent},
		{"Just Past Excellent", 5.1, TierHigh},
		{"At High Bound", 15, TierHigh},
		{"Mid Good", 40, TierGood},
		{"At Fair Bound", 100, TierFair},
		{"Poor", 150, TierPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TierForAccuracy(tt.accuracyM))
		})
	}
}

func TestZoomForAccuracyIsMonotonic(t *testing.T) {
	accuracies := []float64{3, 12, 40, 90, 150}

	prev := ZoomForAccuracy(accuracies[0])
	for _, acc := range accuracies[1:] {
		zoom := ZoomForAccuracy(acc)
		assert.LessOrEqual(t, zoom, prev, "zoom must not increase as accuracy worsens (%.0fm)", acc)
		prev = zoom
	}
}

func TestNewMessageIDIsUniqueEnough(t *testing.T) {
	seen := map[string]bool{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 1000; i++ {
		id := NewMessageID(now)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
