package service

import "context"

const DefaultRetentionDays = 30

const (
	MaxRetentionDays   = 3650
	PagerdutyKeyLength = 32
)

// LogConfig controls what a service captures into its request log.
type LogConfig struct {
	StoreBody     bool   `json:"storeBody"`
	RetentionDays int    `json:"retentionDays,omitempty"`
	PagerdutyKey  string `json:"pagerdutyKey,omitempty"`
}

// EffectiveRetentionDays applies the default to an unset retention.
func (c LogConfig) EffectiveRetentionDays() int {
	if c.RetentionDays == 0 {
		return DefaultRetentionDays
	}
	return c.RetentionDays
}

// ServiceForm is the editable state of a service settings page.
type ServiceForm struct {
	ID        string     `json:"id"`
	LogConfig *LogConfig `json:"logConfig,omitempty"`
}

// UpdateLogConfigRequest changes the logging fields. Nil fields are left untouched.
type UpdateLogConfigRequest struct {
	ServiceID     string  `json:"-"`
	StoreBody     *bool   `json:"storeBody,omitempty"`
	RetentionDays *int    `json:"retentionDays,omitempty"`
	PagerdutyKey  *string `json:"pagerdutyKey,omitempty"`
}

type ILoggingUsecase interface {
	Get(ctx context.Context, serviceID string) (ServiceForm, error)
	Update(ctx context.Context, request UpdateLogConfigRequest) (ServiceForm, error)
	Toggle(ctx context.Context, serviceID string) (ServiceForm, error)
}
