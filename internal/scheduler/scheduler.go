package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

const defaultIntervalMinutes = 5

// Purger is implemented by anything that can drop expired reports.
type Purger interface {
	PurgeExpired() int
}

// Scheduler periodically purges reports that are past their retention.
type Scheduler struct {
	scheduler *gocron.Scheduler
	purger    Purger
	interval  time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, purger Purger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		purger:    purger,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.purger == nil {
		log.Println("scheduler: no purger configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		log.Printf("scheduler: purge interval %v is under a minute; using %d minutes", s.interval, defaultIntervalMinutes)
		minutes = defaultIntervalMinutes
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.runPurge()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) runPurge() int {
	removed := s.purger.PurgeExpired()
	if removed > 0 {
		log.Printf("scheduler: purged %d expired reports", removed)
	}
	return removed
}
