package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AzielCF/az-console/domains/health"
	pkgError "github.com/AzielCF/az-console/pkg/error"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const probeTimeout = 3 * time.Second

type healthService struct {
	probes map[health.EntityType]health.Probe

	mu      sync.RWMutex
	records map[health.EntityType]health.HealthRecord
}

// NewHealthService checks the registered components on demand and remembers
// the last outcome of each.
func NewHealthService(probes map[health.EntityType]health.Probe) health.IHealthUsecase {
	s := &healthService{
		probes:  probes,
		records: make(map[health.EntityType]health.HealthRecord, len(probes)),
	}
	for entity := range probes {
		s.records[entity] = health.HealthRecord{
			ID:         uuid.NewString(),
			EntityType: entity,
			Status:     health.StatusUnknown,
		}
	}
	return s
}

func (s *healthService) GetStatus(_ context.Context) ([]health.HealthRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]health.HealthRecord, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].EntityType < records[j].EntityType })
	return records, nil
}

func (s *healthService) Check(ctx context.Context, entityType health.EntityType) (health.HealthRecord, error) {
	probe, ok := s.probes[entityType]
	if !ok {
		return health.HealthRecord{}, pkgError.NotFoundError(fmt.Sprintf("no health probe for %s", entityType))
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	err := probe(probeCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.records[entityType]
	r.LastChecked = time.Now().UTC()
	if err != nil {
		r.Status = health.StatusError
		r.LastMessage = err.Error()
		logrus.WithError(err).Warnf("[HEALTH] %s check failed", entityType)
	} else {
		r.Status = health.StatusOk
		r.LastMessage = "OK"
		success := r.LastChecked
		r.LastSuccess = &success
	}
	s.records[entityType] = r
	return r, nil
}

func (s *healthService) CheckAll(ctx context.Context) ([]health.HealthRecord, error) {
	for entity := range s.probes {
		if _, err := s.Check(ctx, entity); err != nil {
			return nil, err
		}
	}
	return s.GetStatus(ctx)
}
