package domain

import "time"

// LocationReading is one raw sample from a location provider.
type LocationReading struct {
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	AccuracyM     float64   `json:"accuracy"`
	AltitudeM     *float64  `json:"altitude,omitempty"`
	SpeedMPS      *float64  `json:"speed,omitempty"`
	HeadingDeg    *float64  `json:"heading,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	ReadingNumber int       `json:"readingNumber,omitempty"`
}

type FixMethod string

const (
	FixMethodAveraged   FixMethod = "averaged_high_precision"
	FixMethodBestSingle FixMethod = "best_single_reading"
)

// LocationFix is the resolved output of one acquisition attempt.
type LocationFix struct {
	LocationReading
	Method        FixMethod `json:"method"`
	TotalReadings int       `json:"totalReadings"`
	GoodReadings  int       `json:"goodReadings"`
	IsAveraged    bool      `json:"isAveraged"`
}

// Coordinate is a bare lat/lng pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type AccuracyTier string

const (
	TierExcellent AccuracyTier = "excellent"
	TierHigh      AccuracyTier = "high"
	TierGood      AccuracyTier = "good"
	TierFair      AccuracyTier = "fair"
	TierPoor      AccuracyTier = "poor"
)

// Tier bounds in meters, inclusive upper bound.
const (
	AccuracyExcellentM = 5.0
	AccuracyHighM      = 15.0
	AccuracyGoodM      = 50.0
	AccuracyFairM      = 100.0
)

func TierForAccuracy(accuracyM float64) AccuracyTier {
	switch {
	case accuracyM <= AccuracyExcellentM:
		return TierExcellent
	case accuracyM <= AccuracyHighM:
		return TierHigh
	case accuracyM <= AccuracyGoodM:
		return TierGood
	case accuracyM <= AccuracyFairM:
		return TierFair
	default:
		return TierPoor
	}
}

var tierZoom = map[AccuracyTier]float64{
	TierExcellent: 17,
	TierHigh:      16,
	TierGood:      15,
	TierFair:      14,
	TierPoor:      12,
}

// ZoomForAccuracy maps an accuracy radius to a suggested map zoom level,
// non-increasing as accuracy worsens.
func ZoomForAccuracy(accuracyM float64) float64 {
	return tierZoom[TierForAccuracy(accuracyM)]
}
