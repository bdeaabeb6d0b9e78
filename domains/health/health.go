package health

import (
	"context"
	"time"
)

type EntityType string

const (
	EntityDatabase  EntityType = "database"
	EntityValkey    EntityType = "valkey"
	EntityEventPool EntityType = "event_pool"
)

type Status string

const (
	StatusOk      Status = "OK"
	StatusError   Status = "ERROR"
	StatusUnknown Status = "UNKNOWN"
)

type HealthRecord struct {
	ID          string     `json:"id"`
	EntityType  EntityType `json:"entity_type"`
	Status      Status     `json:"status"`
	LastMessage string     `json:"last_message"`
	LastChecked time.Time  `json:"last_checked"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
}

// Probe checks one backing component. A nil error means healthy.
type Probe func(ctx context.Context) error

type IHealthUsecase interface {
	Check(ctx context.Context, entityType EntityType) (HealthRecord, error)
	CheckAll(ctx context.Context) ([]HealthRecord, error)
	GetStatus(ctx context.Context) ([]HealthRecord, error)
}
