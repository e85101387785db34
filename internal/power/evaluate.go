package power

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// PreviewSize is the number of leading readings copied into a report preview.
const PreviewSize = 10

var validate = validator.New()

// Validate checks that every value is finite, the band is ordered and the
// nominal voltage positive.
func (t Thresholds) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"band low", t.Band.Low},
		{"band high", t.Band.High},
		{"nominal voltage", t.NominalVoltage},
	} {
		if !isFinite(f.value) {
			return fmt.Errorf("%w: %s must be a finite number, got %v", ErrInvalidThresholds, f.name, f.value)
		}
	}
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidThresholds, err)
	}
	return nil
}

// FindUnstableReadings returns, in input order, the readings whose voltage
// lies outside the band.
func FindUnstableReadings(readings []Reading, band StabilityBand) []Reading {
	unstable := make([]Reading, 0)
	for _, r := range readings {
		if !band.Contains(r.Voltage) {
			unstable = append(unstable, r)
		}
	}
	return unstable
}

// ClassifySeverity compares the mean voltage of readings against nominal and
// maps the percent deviation to a tier.
func ClassifySeverity(readings []Reading, nominalVoltage float64) (Severity, error) {
	if len(readings) == 0 {
		return Severity{}, ErrEmptyInput
	}
	if !(nominalVoltage > 0) || !isFinite(nominalVoltage) {
		return Severity{}, fmt.Errorf("%w: nominal voltage must be positive, got %v", ErrInvalidThresholds, nominalVoltage)
	}

	// Running mean; a plain sum overflows for large finite voltages.
	var mean float64
	for i, r := range readings {
		n := float64(i + 1)
		mean += r.Voltage/n - mean/n
	}
	if !isFinite(mean) {
		return Severity{}, &DataFormatError{Column: "Voltage", Reason: "mean voltage is not a finite number"}
	}

	deviation := math.Abs(nominalVoltage-mean) / nominalVoltage * 100
	if !isFinite(deviation) {
		return Severity{}, &DataFormatError{Column: "Voltage", Reason: fmt.Sprintf("deviation of mean %g from nominal %g is not a finite number", mean, nominalVoltage)}
	}
	tier := TierForDeviation(deviation)

	return Severity{
		MeanVoltage:      mean,
		PercentDeviation: deviation,
		Tier:             tier,
		Recommendation:   tier.Recommendation(),
		Progress:         tier.Progress(),
		Color:            tier.Color(),
	}, nil
}

// TierForDeviation maps a percent deviation to a tier.
// Moderate covers [5, 15] inclusive on both ends.
func TierForDeviation(percent float64) SeverityTier {
	switch {
	case percent < 5:
		return TierLow
	case percent <= 15:
		return TierModerate
	default:
		return TierHigh
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
