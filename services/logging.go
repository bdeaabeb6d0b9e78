package services

import (
	"context"
	"fmt"
	"strconv"

	settingsDomain "github.com/AzielCF/az-console/core/settings/domain"
	domainService "github.com/AzielCF/az-console/domains/service"
	pkgError "github.com/AzielCF/az-console/pkg/error"
	"github.com/AzielCF/az-console/validations"
	"github.com/sirupsen/logrus"
)

// SettingsStore is the slice of the dynamic settings service the logging
// config is persisted through.
type SettingsStore interface {
	GetBool(ctx context.Context, key string) (*bool, error)
	SetBool(ctx context.Context, key string, v bool) error
	GetInt(ctx context.Context, key string) (*int, error)
	GetString(ctx context.Context, key string) (string, bool, error)
	SetValues(ctx context.Context, values map[string]string) error
}

type LoggingService struct {
	store SettingsStore
}

func NewLoggingService(store SettingsStore) domainService.ILoggingUsecase {
	return &LoggingService{store: store}
}

func logKey(serviceID, field string) string {
	return settingsDomain.KeyServicePrefix + serviceID + ".log." + field
}

func (s *LoggingService) Get(ctx context.Context, serviceID string) (domainService.ServiceForm, error) {
	if serviceID == "" {
		return domainService.ServiceForm{}, pkgError.ValidationError("service id is required")
	}

	// unset retention stays zero; the default applies where logs are pruned
	var cfg domainService.LogConfig
	storeBody, err := s.store.GetBool(ctx, logKey(serviceID, "store_body"))
	if err != nil {
		return domainService.ServiceForm{}, fmt.Errorf("failed to read log config: %w", err)
	}
	if storeBody != nil {
		cfg.StoreBody = *storeBody
	}
	retention, err := s.store.GetInt(ctx, logKey(serviceID, "retention_days"))
	if err != nil {
		return domainService.ServiceForm{}, fmt.Errorf("failed to read log config: %w", err)
	}
	if retention != nil {
		cfg.RetentionDays = *retention
	}
	key, _, err := s.store.GetString(ctx, logKey(serviceID, "pagerduty_key"))
	if err != nil {
		return domainService.ServiceForm{}, fmt.Errorf("failed to read log config: %w", err)
	}
	cfg.PagerdutyKey = key

	return domainService.ServiceForm{ID: serviceID, LogConfig: &cfg}, nil
}

// Update applies the non-nil fields. Retention and pagerduty changes are
// rejected while body capture is off, mirroring the disabled inputs.
func (s *LoggingService) Update(ctx context.Context, request domainService.UpdateLogConfigRequest) (domainService.ServiceForm, error) {
	form, err := s.Get(ctx, request.ServiceID)
	if err != nil {
		return form, err
	}
	cfg := *form.LogConfig

	if request.StoreBody != nil {
		cfg.StoreBody = *request.StoreBody
	}
	fieldChange := request.RetentionDays != nil || request.PagerdutyKey != nil
	if fieldChange && !FieldEnabled(true, cfg.StoreBody) {
		return form, pkgError.ValidationError("retention and pagerduty settings require body capture to be enabled")
	}
	if request.RetentionDays != nil {
		cfg.RetentionDays = *request.RetentionDays
	}
	if request.PagerdutyKey != nil {
		cfg.PagerdutyKey = *request.PagerdutyKey
	}

	if err := validations.ValidateLogConfig(ctx, cfg); err != nil {
		return form, err
	}
	if err := s.save(ctx, request.ServiceID, cfg); err != nil {
		return form, err
	}

	logrus.WithField("service_id", request.ServiceID).Infof("[SERVICES] Logging updated (store_body=%t, retention=%d)", cfg.StoreBody, cfg.EffectiveRetentionDays())
	return domainService.ServiceForm{ID: request.ServiceID, LogConfig: &cfg}, nil
}

func (s *LoggingService) Toggle(ctx context.Context, serviceID string) (domainService.ServiceForm, error) {
	form, err := s.Get(ctx, serviceID)
	if err != nil {
		return form, err
	}
	cfg := *form.LogConfig
	cfg.StoreBody = !cfg.StoreBody

	if err := s.store.SetBool(ctx, logKey(serviceID, "store_body"), cfg.StoreBody); err != nil {
		return form, fmt.Errorf("failed to toggle body capture: %w", err)
	}
	logrus.WithField("service_id", serviceID).Infof("[SERVICES] Body capture toggled to %t", cfg.StoreBody)
	return domainService.ServiceForm{ID: serviceID, LogConfig: &cfg}, nil
}

func (s *LoggingService) save(ctx context.Context, serviceID string, cfg domainService.LogConfig) error {
	storeBody := "0"
	if cfg.StoreBody {
		storeBody = "1"
	}
	err := s.store.SetValues(ctx, map[string]string{
		logKey(serviceID, "store_body"):     storeBody,
		logKey(serviceID, "retention_days"): strconv.Itoa(cfg.RetentionDays),
		logKey(serviceID, "pagerduty_key"):  cfg.PagerdutyKey,
	})
	if err != nil {
		return fmt.Errorf("failed to save log config: %w", err)
	}
	return nil
}
