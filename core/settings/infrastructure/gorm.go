package infrastructure

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/AzielCF/az-console/core/settings/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GlobalSettingModel struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"column:value"`
}

func (GlobalSettingModel) TableName() string {
	return "global_settings"
}

type GlobalSettingsGormRepository struct {
	db *gorm.DB
}

func NewGlobalSettingsGormRepository(db *gorm.DB) *GlobalSettingsGormRepository {
	return &GlobalSettingsGormRepository{db: db}
}

func (r *GlobalSettingsGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&GlobalSettingModel{})
}

func (r *GlobalSettingsGormRepository) Get(ctx context.Context, key string) (string, error) {
	var m GlobalSettingModel
	if err := r.db.WithContext(ctx).First(&m, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(m.Value), nil
}

func (r *GlobalSettingsGormRepository) Set(ctx context.Context, key string, value string) error {
	return upsert(r.db.WithContext(ctx), key, value)
}

func (r *GlobalSettingsGormRepository) SetMany(ctx context.Context, values map[string]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range slices.Sorted(maps.Keys(values)) {
			if err := upsert(tx, key, values[key]); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsert(db *gorm.DB, key, value string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": value}),
	}).Create(&GlobalSettingModel{
		Key:   key,
		Value: value,
	}).Error
}

func (r *GlobalSettingsGormRepository) ListByPrefix(ctx context.Context, prefix string) ([]domain.Setting, error) {
	var models []GlobalSettingModel
	if err := r.db.WithContext(ctx).
		Where("key LIKE ?", prefix+"%").
		Order("key").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Setting, 0, len(models))
	for _, m := range models {
		// LIKE treats "_" as a wildcard
		if !strings.HasPrefix(m.Key, prefix) {
			continue
		}
		out = append(out, domain.Setting{Key: m.Key, Value: strings.TrimSpace(m.Value)})
	}
	return out, nil
}

func (r *GlobalSettingsGormRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&GlobalSettingModel{}, "key = ?", key).Error
}
