package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/AzielCF/az-console/pkg/eventworker"
	"gorm.io/gorm"
)

type eventModel struct {
	ID         string    `gorm:"primaryKey;column:id"`
	Name       string    `gorm:"column:name;not null;index"`
	Context    string    `gorm:"column:context;not null"`
	SortValue  string    `gorm:"column:sort_value"`
	Caller     string    `gorm:"column:caller;index"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null;index"`
}

func (eventModel) TableName() string { return "analytics_events" }

type dispatcher interface {
	TryDispatch(job eventworker.Job) bool
}

// GormTracker persists events off the request path through the worker pool.
type GormTracker struct {
	db   *gorm.DB
	pool dispatcher
}

func NewGormTracker(db *gorm.DB, pool dispatcher) *GormTracker {
	return &GormTracker{db: db, pool: pool}
}

func (t *GormTracker) Init(ctx context.Context) error {
	return t.db.WithContext(ctx).AutoMigrate(&eventModel{})
}

func (t *GormTracker) Track(_ context.Context, ev Event) {
	ev = ev.normalize()
	t.pool.TryDispatch(eventworker.Job{
		Partition: ev.Caller,
		Name:      "analytics." + ev.Name,
		Handler: func(ctx context.Context) error {
			return t.save(ctx, ev)
		},
	})
}

func (t *GormTracker) save(ctx context.Context, ev Event) error {
	m := eventModel{
		ID:         ev.ID,
		Name:       ev.Name,
		Context:    ev.Context,
		SortValue:  ev.SortValue,
		Caller:     ev.Caller,
		OccurredAt: ev.OccurredAt,
	}
	if err := t.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to store analytics event: %w", err)
	}
	return nil
}

// Recent returns the latest events of a context, newest first.
func (t *GormTracker) Recent(ctx context.Context, eventContext string, limit int) ([]Event, error) {
	var models []eventModel
	if err := t.db.WithContext(ctx).
		Where("context = ?", eventContext).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(models))
	for _, m := range models {
		out = append(out, Event{
			ID:         m.ID,
			Name:       m.Name,
			Context:    m.Context,
			SortValue:  m.SortValue,
			Caller:     m.Caller,
			OccurredAt: m.OccurredAt,
		})
	}
	return out, nil
}
