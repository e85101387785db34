package sources

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/i474232898/power-fluctuation-advisory/internal/power"
)

const (
	sampleSize      = 100
	sampleDipStart  = 30
	sampleDipEnd    = 35
	sampleDipVolts  = 50.0
	sampleVoltSigma = 5.0
)

var sampleStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// SampleSet is the demonstration dataset served when nothing was uploaded:
// hourly readings around nominal voltage with a short dip.
// It is generated once and reused for the lifetime of the process.
type SampleSet struct {
	nominal float64
	seed    uint64

	once     sync.Once
	readings []power.Reading
}

// NewSampleSet creates a SampleSet centred on nominal voltage.
func NewSampleSet(nominal float64, seed uint64) *SampleSet {
	return &SampleSet{nominal: nominal, seed: seed}
}

// Readings returns a copy of the memoized dataset.
func (s *SampleSet) Readings() []power.Reading {
	s.once.Do(func() {
		s.readings = generateSample(s.nominal, s.seed)
	})
	out := make([]power.Reading, len(s.readings))
	copy(out, s.readings)
	return out
}

func generateSample(nominal float64, seed uint64) []power.Reading {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	readings := make([]power.Reading, sampleSize)
	for i := range readings {
		voltage := nominal + rng.NormFloat64()*sampleVoltSigma
		if i >= sampleDipStart && i < sampleDipEnd {
			voltage -= sampleDipVolts
		}
		current := 15 + rng.NormFloat64()*2
		frequency := 50 + rng.NormFloat64()*0.3

		readings[i] = power.Reading{
			Timestamp: sampleStart.Add(time.Duration(i) * time.Hour),
			Voltage:   voltage,
			Current:   &current,
			Frequency: &frequency,
		}
	}
	return readings
}
