// Package featureflag answers "is this part of this feature on" from the
// dynamic settings store, falling back to configured defaults.
package featureflag

import (
	"context"

	settingsDomain "github.com/AzielCF/az-console/core/settings/domain"
	"github.com/sirupsen/logrus"
)

const (
	FlagWRBAC         = "wrbac"
	PartWorkspaceList = "workspace-list"
)

// Evaluator is evaluated once per render; callers must not cache the answer.
type Evaluator interface {
	IsFeaturePartEnabled(ctx context.Context, flag, part string) bool
}

type store interface {
	GetBool(ctx context.Context, key string) (*bool, error)
	SetBool(ctx context.Context, key string, v bool) error
	ListBools(ctx context.Context, prefix string) (map[string]bool, error)
}

// Name joins a flag and one of its parts.
func Name(flag, part string) string {
	return flag + "." + part
}

// Key is the settings key of a flag part.
func Key(flag, part string) string {
	return settingsDomain.KeyFeaturePrefix + Name(flag, part)
}

type Service struct {
	store    store
	defaults map[string]bool
}

// NewService builds a settings-backed evaluator. defaults is keyed by Name(flag, part).
func NewService(s store, defaults map[string]bool) *Service {
	if defaults == nil {
		defaults = map[string]bool{}
	}
	return &Service{store: s, defaults: defaults}
}

func (s *Service) IsFeaturePartEnabled(ctx context.Context, flag, part string) bool {
	v, err := s.store.GetBool(ctx, Key(flag, part))
	if err != nil {
		logrus.WithError(err).Warnf("[FEATURE] Failed to read %s, using default", Name(flag, part))
	}
	if err == nil && v != nil {
		return *v
	}
	return s.defaults[Name(flag, part)]
}

func (s *Service) SetFeaturePart(ctx context.Context, flag, part string, enabled bool) error {
	return s.store.SetBool(ctx, Key(flag, part), enabled)
}

// All merges defaults with stored overrides.
func (s *Service) All(ctx context.Context) (map[string]bool, error) {
	stored, err := s.store.ListBools(ctx, settingsDomain.KeyFeaturePrefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(s.defaults)+len(stored))
	for k, v := range s.defaults {
		out[k] = v
	}
	for k, v := range stored {
		out[k] = v
	}
	return out, nil
}

// Static is a fixed set of flags keyed by Name(flag, part).
type Static map[string]bool

func (s Static) IsFeaturePartEnabled(_ context.Context, flag, part string) bool {
	return s[Name(flag, part)]
}
