package power

import (
	"time"
)

// SeverityTier is the advisory level derived from the deviation of the mean
// voltage from nominal.
type SeverityTier string

const (
	TierLow      SeverityTier = "Low"
	TierModerate SeverityTier = "Moderate"
	TierHigh     SeverityTier = "High"
)

// Recommendation returns the canned action text for the tier.
func (t SeverityTier) Recommendation() string {
	switch t {
	case TierLow:
		return "No immediate action required."
	case TierModerate:
		return "Delay machine operations. Monitor closely."
	case TierHigh:
		return "Shutdown advised to prevent machine damage."
	default:
		return ""
	}
}

// Progress returns the progress indicator value in [0,1] shown next to the advisory.
func (t SeverityTier) Progress() float64 {
	switch t {
	case TierLow:
		return 0.2
	case TierModerate:
		return 0.5
	case TierHigh:
		return 0.85
	default:
		return 0
	}
}

// Color returns the advisory panel background colour.
func (t SeverityTier) Color() string {
	switch t {
	case TierLow:
		return "#d4edda"
	case TierModerate:
		return "#fff3cd"
	case TierHigh:
		return "#f8d7da"
	default:
		return ""
	}
}

// Reading is a single row of an uploaded dataset.
// Current and Frequency are nil when the column is absent or the cell is empty.
type Reading struct {
	Timestamp time.Time `json:"timestamp"` // always UTC
	Voltage   float64   `json:"voltage"`
	Current   *float64  `json:"current,omitempty"`
	Frequency *float64  `json:"frequency,omitempty"`
}

// StabilityBand is the inclusive voltage range considered normal operation.
type StabilityBand struct {
	Low  float64 `json:"low" validate:"gte=0"`
	High float64 `json:"high" validate:"gtfield=Low"`
}

// Contains reports whether v lies within [Low, High].
func (b StabilityBand) Contains(v float64) bool {
	return v >= b.Low && v <= b.High
}

// Thresholds bundles the band and nominal voltage a dataset is evaluated against.
type Thresholds struct {
	Band           StabilityBand `json:"band"`
	NominalVoltage float64       `json:"nominalVoltage" validate:"gt=0"`
}

// Severity is the outcome of classifying a dataset's mean voltage.
type Severity struct {
	MeanVoltage      float64      `json:"meanVoltage"`
	PercentDeviation float64      `json:"percentDeviation"`
	Tier             SeverityTier `json:"tier"`
	Recommendation   string       `json:"recommendation"`
	Progress         float64      `json:"progress"`
	Color            string       `json:"color"`
}

// Report is the evaluated view of one dataset.
type Report struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	CreatedAt  time.Time  `json:"createdAt"`
	Thresholds Thresholds `json:"thresholds"`

	RowCount     int  `json:"rowCount"`
	HasCurrent   bool `json:"hasCurrent"`
	HasFrequency bool `json:"hasFrequency"`

	// Preview holds the first PreviewSize readings.
	Preview []Reading `json:"preview"`

	Unstable      []Reading `json:"unstable"`
	UnstableCount int       `json:"unstableCount"`
	Stable        bool      `json:"stable"`
	Message       string    `json:"message"`

	Severity Severity `json:"severity"`

	// Readings is the full dataset, kept for chart rendering only.
	Readings []Reading `json:"-"`
}

// NeedsAttention reports whether the report should raise an alert.
func (r Report) NeedsAttention() bool {
	return r.UnstableCount > 0 || r.Severity.Tier != TierLow
}
