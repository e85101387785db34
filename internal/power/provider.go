package power

import (
	"context"
)

// Notifier delivers an advisory for a report to an external system (e.g. a webhook).
type Notifier interface {
	Name() string
	Notify(ctx context.Context, report Report) error
}

// Store is the contract the in-memory report store (and any future persistent store) must satisfy.
type Store interface {
	Save(report Report)
	Get(id string) (Report, error)
	Purge() int
}
