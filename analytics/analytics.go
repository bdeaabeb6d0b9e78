// Package analytics records console interaction events. Tracking is
// fire-and-forget: Track never reports failure to the caller.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	ContextWorkspace = "workspace"

	EventSortChanged = "sort_changed"
)

type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Context    string    `json:"context"`
	SortValue  string    `json:"sortValue,omitempty"`
	Caller     string    `json:"caller,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// SortChanged builds the event emitted when the workspace list sort changes.
func SortChanged(caller, sortValue string) Event {
	return Event{
		Name:      EventSortChanged,
		Context:   ContextWorkspace,
		SortValue: sortValue,
		Caller:    caller,
	}
}

// normalize fills the id and timestamp when the producer left them empty.
func (e Event) normalize() Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return e
}

type Tracker interface {
	Track(ctx context.Context, ev Event)
}

// LogTracker writes every event to the application log.
type LogTracker struct{}

func (LogTracker) Track(_ context.Context, ev Event) {
	ev = ev.normalize()
	logrus.WithFields(logrus.Fields{
		"event":      ev.Name,
		"context":    ev.Context,
		"sort_value": ev.SortValue,
		"caller":     ev.Caller,
	}).Info("[ANALYTICS] Event tracked")
}

// MultiTracker fans every event out to all trackers.
type MultiTracker []Tracker

func (m MultiTracker) Track(ctx context.Context, ev Event) {
	ev = ev.normalize()
	for _, t := range m {
		if t != nil {
			t.Track(ctx, ev)
		}
	}
}

// NopTracker drops events.
type NopTracker struct{}

func (NopTracker) Track(context.Context, Event) {}
