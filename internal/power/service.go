package power

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// notifyTimeout bounds a single alert dispatch, retries included.
const notifyTimeout = 30 * time.Second

// Service evaluates datasets, keeps the resulting reports and dispatches alerts.
type Service struct {
	store     Store
	notifiers []Notifier
	defaults  Thresholds

	wg sync.WaitGroup
}

// NewService creates a new Service. defaults are used when a caller does not
// supply its own thresholds.
func NewService(store Store, defaults Thresholds, notifiers []Notifier) *Service {
	return &Service{
		store:     store,
		notifiers: notifiers,
		defaults:  defaults,
	}
}

// Defaults returns the deployment thresholds.
func (s *Service) Defaults() Thresholds {
	return s.defaults
}

// Evaluate runs the advisory evaluation over readings, stores the report and
// dispatches alerts when the report needs attention.
func (s *Service) Evaluate(ctx context.Context, source string, readings []Reading, th Thresholds) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	if err := th.Validate(); err != nil {
		return Report{}, err
	}

	severity, err := ClassifySeverity(readings, th.NominalVoltage)
	if err != nil {
		return Report{}, err
	}
	unstable := FindUnstableReadings(readings, th.Band)

	report := Report{
		ID:            uuid.NewString(),
		Source:        source,
		CreatedAt:     time.Now().UTC(),
		Thresholds:    th,
		RowCount:      len(readings),
		Preview:       preview(readings),
		Unstable:      unstable,
		UnstableCount: len(unstable),
		Stable:        len(unstable) == 0,
		Severity:      severity,
		Readings:      readings,
	}
	for _, r := range readings {
		if r.Current != nil {
			report.HasCurrent = true
		}
		if r.Frequency != nil {
			report.HasFrequency = true
		}
	}
	report.Message = stabilityMessage(report)

	log.Printf("DEBUG: evaluated %s: %d readings, %d unstable, severity %s (%.2f%%)",
		source, report.RowCount, report.UnstableCount, severity.Tier, severity.PercentDeviation)

	s.store.Save(report)

	if report.NeedsAttention() {
		s.dispatch(report)
	}

	return report, nil
}

// GetReport delegates to the underlying store.
func (s *Service) GetReport(id string) (Report, error) {
	return s.store.Get(id)
}

// PurgeExpired drops reports past their retention and returns how many were removed.
func (s *Service) PurgeExpired() int {
	return s.store.Purge()
}

// Close waits for in-flight alert dispatches.
func (s *Service) Close() {
	s.wg.Wait()
}

// dispatch sends the report to every notifier concurrently without blocking the caller.
func (s *Service) dispatch(report Report) {
	for _, n := range s.notifiers {
		n := n
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()

			if err := n.Notify(ctx, report); err != nil {
				log.Printf("ERROR: notifier %s failed for report %s: %v", n.Name(), report.ID, err)
				return
			}
			log.Printf("INFO: notifier %s delivered advisory for report %s", n.Name(), report.ID)
		}()
	}
}

func preview(readings []Reading) []Reading {
	n := len(readings)
	if n > PreviewSize {
		n = PreviewSize
	}
	out := make([]Reading, n)
	copy(out, readings[:n])
	return out
}

func stabilityMessage(r Report) string {
	if r.UnstableCount > 0 {
		return fmt.Sprintf("Fluctuation detected: %d unstable readings found. Please delay critical machine operations.", r.UnstableCount)
	}
	return fmt.Sprintf("All voltage values are within the stable range (%gV-%gV).", r.Thresholds.Band.Low, r.Thresholds.Band.High)
}
