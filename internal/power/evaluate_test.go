package power

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readingsOf(volts ...float64) []Reading {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	out := make([]Reading, len(volts))
	for i, v := range volts {
		out[i] = Reading{Timestamp: base.Add(time.Duration(i) * time.Minute), Voltage: v}
	}
	return out
}

var band230 = StabilityBand{Low: 215, High: 245}

func TestFindUnstableReadings(t *testing.T) {
	t.Run("only out-of-band readings are returned", func(t *testing.T) {
		got := FindUnstableReadings(readingsOf(210, 230), band230)

		require.Len(t, got, 1)
		assert.Equal(t, 210.0, got[0].Voltage)
	})

	t.Run("band edges are stable", func(t *testing.T) {
		got := FindUnstableReadings(readingsOf(215, 245, 214.99, 245.01), band230)

		require.Len(t, got, 2)
		assert.Equal(t, 214.99, got[0].Voltage)
		assert.Equal(t, 245.01, got[1].Voltage)
	})

	t.Run("preserves input order", func(t *testing.T) {
		in := readingsOf(400, 230, 100, 250, 231, 10)
		got := FindUnstableReadings(in, band230)

		require.Len(t, got, 4)
		assert.Equal(t, []float64{400, 100, 250, 10}, voltages(got))
		assert.Equal(t, in[0].Timestamp, got[0].Timestamp)
		assert.Equal(t, in[5].Timestamp, got[3].Timestamp)
	})

	t.Run("never returns a stable reading", func(t *testing.T) {
		in := readingsOf(100, 200, 214, 215, 220, 230, 240, 245, 246, 300, 500)
		for _, r := range FindUnstableReadings(in, band230) {
			assert.False(t, band230.Contains(r.Voltage), "stable reading %v returned", r.Voltage)
		}
	})

	t.Run("idempotent on its own output", func(t *testing.T) {
		first := FindUnstableReadings(readingsOf(100, 230, 300, 220, 500), band230)
		second := FindUnstableReadings(first, band230)

		assert.Equal(t, first, second)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		got := FindUnstableReadings(nil, band230)

		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("high voltage band", func(t *testing.T) {
		got := FindUnstableReadings(readingsOf(410, 359, 441, 360, 440), StabilityBand{Low: 360, High: 440})

		assert.Equal(t, []float64{359, 441}, voltages(got))
	})
}

func TestClassifySeverity(t *testing.T) {
	t.Run("nominal readings are low severity", func(t *testing.T) {
		in := make([]float64, 10)
		for i := range in {
			in[i] = 230
		}

		sev, err := ClassifySeverity(readingsOf(in...), 230)

		require.NoError(t, err)
		assert.Equal(t, 0.0, sev.PercentDeviation)
		assert.Equal(t, 230.0, sev.MeanVoltage)
		assert.Equal(t, TierLow, sev.Tier)
		assert.Equal(t, 0.2, sev.Progress)
		assert.Equal(t, "No immediate action required.", sev.Recommendation)
		assert.Equal(t, "#d4edda", sev.Color)
	})

	t.Run("mean 200 is moderate", func(t *testing.T) {
		sev, err := ClassifySeverity(readingsOf(190, 210, 200), 230)

		require.NoError(t, err)
		assert.InDelta(t, 13.04, sev.PercentDeviation, 0.01)
		assert.Equal(t, TierModerate, sev.Tier)
		assert.Equal(t, 0.5, sev.Progress)
		assert.Equal(t, "Delay machine operations. Monitor closely.", sev.Recommendation)
	})

	t.Run("mean 100 is high", func(t *testing.T) {
		sev, err := ClassifySeverity(readingsOf(100, 100), 230)

		require.NoError(t, err)
		assert.InDelta(t, 56.52, sev.PercentDeviation, 0.01)
		assert.Equal(t, TierHigh, sev.Tier)
		assert.Equal(t, 0.85, sev.Progress)
		assert.Equal(t, "Shutdown advised to prevent machine damage.", sev.Recommendation)
	})

	t.Run("over-voltage deviates symmetrically", func(t *testing.T) {
		sev, err := ClassifySeverity(readingsOf(260, 260), 230)

		require.NoError(t, err)
		assert.InDelta(t, 13.04, sev.PercentDeviation, 0.01)
		assert.Equal(t, TierModerate, sev.Tier)
	})

	t.Run("severity ignores the stability band", func(t *testing.T) {
		// every reading is out of band yet the mean is exactly nominal
		sev, err := ClassifySeverity(readingsOf(130, 330), 230)

		require.NoError(t, err)
		assert.Equal(t, TierLow, sev.Tier)
	})

	t.Run("deterministic", func(t *testing.T) {
		in := readingsOf(221.3, 199.7, 250.2, 240.9)

		a, errA := ClassifySeverity(in, 230)
		b, errB := ClassifySeverity(in, 230)

		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, a, b)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ClassifySeverity(nil, 230)

		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("non-positive nominal", func(t *testing.T) {
		_, err := ClassifySeverity(readingsOf(230), 0)

		assert.ErrorIs(t, err, ErrInvalidThresholds)
	})

	t.Run("non-finite nominal", func(t *testing.T) {
		for _, nominal := range []float64{math.Inf(1), math.NaN()} {
			_, err := ClassifySeverity(readingsOf(230), nominal)

			assert.ErrorIs(t, err, ErrInvalidThresholds, "nominal %v", nominal)
		}
	})

	t.Run("huge voltages do not overflow the mean", func(t *testing.T) {
		sev, err := ClassifySeverity(readingsOf(1e308, 1e308), 1e308)

		require.NoError(t, err)
		assert.InEpsilon(t, 1e308, sev.MeanVoltage, 1e-12)
		assert.InDelta(t, 0, sev.PercentDeviation, 1e-9)
		assert.Equal(t, TierLow, sev.Tier)

		sev, err = ClassifySeverity(readingsOf(1e308, 1e308), 230)

		require.NoError(t, err)
		assert.False(t, math.IsInf(sev.PercentDeviation, 0))
		assert.Equal(t, TierHigh, sev.Tier)
	})

	t.Run("deviation that overflows is rejected", func(t *testing.T) {
		_, err := ClassifySeverity(readingsOf(1e308, 1e308), 1e-3)

		var formatErr *DataFormatError
		require.ErrorAs(t, err, &formatErr)
		assert.Equal(t, "Voltage", formatErr.Column)
	})
}

func TestTierForDeviation(t *testing.T) {
	cases := []struct {
		percent float64
		want    SeverityTier
	}{
		{0, TierLow},
		{4.99, TierLow},
		{5.0, TierModerate},
		{10, TierModerate},
		{15.0, TierModerate},
		{15.01, TierHigh},
		{80, TierHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TierForDeviation(tc.percent), "deviation %v", tc.percent)
	}
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, Thresholds{Band: band230, NominalVoltage: 230}.Validate())
	assert.NoError(t, Thresholds{Band: StabilityBand{Low: 360, High: 440}, NominalVoltage: 400}.Validate())

	err := Thresholds{Band: StabilityBand{Low: 245, High: 215}, NominalVoltage: 230}.Validate()
	assert.ErrorIs(t, err, ErrInvalidThresholds)

	err = Thresholds{Band: StabilityBand{Low: 215, High: 215}, NominalVoltage: 230}.Validate()
	assert.ErrorIs(t, err, ErrInvalidThresholds)

	err = Thresholds{Band: band230, NominalVoltage: 0}.Validate()
	assert.ErrorIs(t, err, ErrInvalidThresholds)

	nonFinite := []Thresholds{
		{Band: band230, NominalVoltage: math.Inf(1)},
		{Band: band230, NominalVoltage: math.NaN()},
		{Band: StabilityBand{Low: 215, High: math.Inf(1)}, NominalVoltage: 230},
		{Band: StabilityBand{Low: math.NaN(), High: 245}, NominalVoltage: 230},
	}
	for _, th := range nonFinite {
		assert.ErrorIs(t, th.Validate(), ErrInvalidThresholds, "%+v", th)
	}
}

func TestDataFormatErrorMessage(t *testing.T) {
	assert.Equal(t, `column "Voltage": required column is missing`,
		(&DataFormatError{Column: "Voltage", Reason: "required column is missing"}).Error())
	assert.Equal(t, `line 3, column "Voltage": not a finite number (value "abc")`,
		(&DataFormatError{Line: 3, Column: "Voltage", Value: "abc", Reason: "not a finite number"}).Error())
	assert.Equal(t, "line 2: wrong number of fields",
		(&DataFormatError{Line: 2, Reason: "wrong number of fields"}).Error())
}

func voltages(rs []Reading) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.Voltage
	}
	return out
}
