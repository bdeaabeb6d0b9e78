package application

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/AzielCF/az-console/core/settings/domain"
	"github.com/AzielCF/az-console/core/settings/infrastructure"
	"gorm.io/gorm"
)

// SettingsService reads and writes typed dynamic settings.
type SettingsService struct {
	repo     domain.ISettingsRepository
	initOnce sync.Once
	initErr  error
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return NewSettingsServiceWithRepo(infrastructure.NewGlobalSettingsGormRepository(db))
}

func NewSettingsServiceWithRepo(repo domain.ISettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Init creates the settings table once per service.
func (s *SettingsService) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.repo.InitSchema(ctx)
	})
	return s.initErr
}

// GetString returns the stored value and whether it was set.
func (s *SettingsService) GetString(ctx context.Context, key string) (string, bool, error) {
	if err := s.Init(ctx); err != nil {
		return "", false, err
	}
	val, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	return val, val != "", nil
}

// GetBool returns nil when the key is unset.
func (s *SettingsService) GetBool(ctx context.Context, key string) (*bool, error) {
	val, ok, err := s.GetString(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	isOn := parseBool(val)
	return &isOn, nil
}

// GetInt returns nil when the key is unset or not a non-negative integer.
func (s *SettingsService) GetInt(ctx context.Context, key string) (*int, error) {
	val, ok, err := s.GetString(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	n, convErr := strconv.Atoi(val)
	if convErr != nil || n < 0 {
		return nil, nil
	}
	return &n, nil
}

func (s *SettingsService) SetString(ctx context.Context, key, v string) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	return s.repo.Set(ctx, key, strings.TrimSpace(v))
}

// SetValues stores several keys in one transaction.
func (s *SettingsService) SetValues(ctx context.Context, values map[string]string) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	trimmed := make(map[string]string, len(values))
	for k, v := range values {
		trimmed[k] = strings.TrimSpace(v)
	}
	return s.repo.SetMany(ctx, trimmed)
}

func (s *SettingsService) SetBool(ctx context.Context, key string, v bool) error {
	val := "0"
	if v {
		val = "1"
	}
	return s.SetString(ctx, key, val)
}

func (s *SettingsService) SetInt(ctx context.Context, key string, v int) error {
	if v < 0 {
		v = 0
	}
	return s.SetString(ctx, key, strconv.Itoa(v))
}

func (s *SettingsService) Delete(ctx context.Context, key string) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	return s.repo.Delete(ctx, key)
}

// ListBools returns every boolean setting under prefix, keyed without the prefix.
func (s *SettingsService) ListBools(ctx context.Context, prefix string) (map[string]bool, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[strings.TrimPrefix(it.Key, prefix)] = parseBool(it.Value)
	}
	return out, nil
}

func parseBool(v string) bool {
	vLower := strings.ToLower(v)
	return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
}
