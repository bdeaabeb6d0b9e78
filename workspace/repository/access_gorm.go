package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/AzielCF/az-console/workspace/domain/access"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type permissionModel struct {
	UserID    string    `gorm:"primaryKey;column:user_id"`
	Grant     string    `gorm:"primaryKey;column:grant_name"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (permissionModel) TableName() string { return "user_permissions" }

type roleModel struct {
	UserID    string    `gorm:"primaryKey;column:user_id"`
	Role      string    `gorm:"primaryKey;column:role"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (roleModel) TableName() string { return "user_roles" }

type AccessGormRepository struct {
	db *gorm.DB
}

func NewAccessGormRepository(db *gorm.DB) *AccessGormRepository {
	return &AccessGormRepository{db: db}
}

func (r *AccessGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&permissionModel{}, &roleModel{}, &memberModel{})
}

// Permissions returns nil when the caller has no permission record at all.
func (r *AccessGormRepository) Permissions(ctx context.Context, caller string) (access.Permissions, error) {
	var models []permissionModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", caller).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	out := make(access.Permissions, len(models))
	for _, m := range models {
		out[m.Grant] = true
	}
	return out, nil
}

// Roles returns the caller's global roles followed by one scoped role per
// workspace membership.
func (r *AccessGormRepository) Roles(ctx context.Context, caller string) ([]string, error) {
	var globals []roleModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", caller).Order("role ASC").Find(&globals).Error; err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	var members []memberModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", caller).Order("workspace_id ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	roles := make([]string, 0, len(globals)+len(members))
	for _, g := range globals {
		roles = append(roles, g.Role)
	}
	for _, m := range members {
		roles = append(roles, access.ScopedRole(m.WorkspaceID, m.Role))
	}
	return roles, nil
}

func (r *AccessGormRepository) Grant(ctx context.Context, caller string, grants ...string) error {
	if len(grants) == 0 {
		return nil
	}
	models := make([]permissionModel, 0, len(grants))
	for _, g := range grants {
		models = append(models, permissionModel{UserID: caller, Grant: g, CreatedAt: time.Now().UTC()})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&models).Error
}

func (r *AccessGormRepository) AssignRole(ctx context.Context, caller, role string) error {
	model := roleModel{UserID: caller, Role: role, CreatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
}
