package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AzielCF/az-console/workspace/domain/common"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
	"gorm.io/gorm"
)

// --- Persistence Models ---

type workspaceModel struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;not null;index"`
	IsDefault bool      `gorm:"column:is_default;default:false;index"`
	OwnerID   string    `gorm:"column:owner_id;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;index"`
}

func (workspaceModel) TableName() string { return "workspaces" }

type appModel struct {
	ID           string     `gorm:"primaryKey;column:id"`
	WorkspaceID  string     `gorm:"column:workspace_id;not null;index"`
	Title        string     `gorm:"column:title;not null"`
	LastEditedAt *time.Time `gorm:"column:last_edited_at;index"`
	LastEditedBy string     `gorm:"column:last_edited_by"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
}

func (appModel) TableName() string { return "apps" }

type memberModel struct {
	WorkspaceID string    `gorm:"primaryKey;column:workspace_id"`
	UserID      string    `gorm:"primaryKey;column:user_id;index"`
	Role        string    `gorm:"column:role;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (memberModel) TableName() string { return "workspace_members" }

// --- Repository Implementation ---

type WorkspaceGormRepository struct {
	db *gorm.DB
}

func NewWorkspaceGormRepository(db *gorm.DB) *WorkspaceGormRepository {
	return &WorkspaceGormRepository{db: db}
}

func (r *WorkspaceGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&workspaceModel{},
		&appModel{},
		&memberModel{},
	)
}

// Workspace CRUD

func (r *WorkspaceGormRepository) Create(ctx context.Context, ws workspace.Workspace) error {
	model := toWorkspaceModel(ws)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *WorkspaceGormRepository) GetByID(ctx context.Context, id string) (workspace.Workspace, error) {
	var m workspaceModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return workspace.Workspace{}, common.ErrWorkspaceNotFound
		}
		return workspace.Workspace{}, err
	}
	return fromWorkspaceModel(m), nil
}

var sortOrders = map[string]string{
	workspace.SortNameAsc:       "name ASC",
	workspace.SortNameDesc:      "name DESC",
	workspace.SortModifiedAsc:   "updated_at ASC",
	workspace.SortModifiedDesc:  "updated_at DESC",
	workspace.SortTotalAppsAsc:  "(SELECT COUNT(*) FROM apps WHERE apps.workspace_id = workspaces.id) ASC",
	workspace.SortTotalAppsDesc: "(SELECT COUNT(*) FROM apps WHERE apps.workspace_id = workspaces.id) DESC",
}

func (r *WorkspaceGormRepository) List(ctx context.Context, filter workspace.ListFilter) ([]workspace.Record, int64, error) {
	q := filter.Query.WithDefaults()
	order, ok := sortOrders[q.Sort]
	if !ok {
		return nil, 0, fmt.Errorf("unsupported sort %q", q.Sort)
	}

	db := r.db.WithContext(ctx)
	base := db.Model(&workspaceModel{})
	if !filter.AllWorkspaces {
		memberOf := db.Model(&memberModel{}).Select("workspace_id").Where("user_id = ?", filter.Caller)
		base = base.Where("is_default = ? OR id IN (?)", true, memberOf)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count workspaces: %w", err)
	}

	var models []workspaceModel
	if err := base.Session(&gorm.Session{}).
		Order(order).
		Order("id ASC").
		Offset(q.Offset()).
		Limit(q.PageSize).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list workspaces: %w", err)
	}
	if len(models) == 0 {
		return []workspace.Record{}, total, nil
	}

	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	appCounts, err := r.countBy(ctx, &appModel{}, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count apps: %w", err)
	}
	memberCounts, err := r.countBy(ctx, &memberModel{}, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count members: %w", err)
	}

	records := make([]workspace.Record, 0, len(models))
	for _, m := range models {
		apps, err := r.recentApps(ctx, m.ID, filter.RecentApps)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load apps of %s: %w", m.ID, err)
		}
		records = append(records, workspace.Record{
			ID:                       m.ID,
			Name:                     m.Name,
			IsDefault:                m.IsDefault,
			Modified:                 m.UpdatedAt,
			Owner:                    m.OwnerID,
			TotalApps:                appCounts[m.ID],
			MostRecentlyModifiedApps: apps,
			WorkspaceUsersCount:      memberCounts[m.ID],
		})
	}
	return records, total, nil
}

type workspaceCount struct {
	WorkspaceID string
	N           int
}

func (r *WorkspaceGormRepository) countBy(ctx context.Context, model interface{}, ids []string) (map[string]int, error) {
	var rows []workspaceCount
	if err := r.db.WithContext(ctx).Model(model).
		Select("workspace_id, COUNT(*) AS n").
		Where("workspace_id IN ?", ids).
		Group("workspace_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.WorkspaceID] = row.N
	}
	return out, nil
}

// recentApps returns apps ordered by last edit, newest first. Apps never
// edited come last.
func (r *WorkspaceGormRepository) recentApps(ctx context.Context, workspaceID string, limit int) ([]workspace.AppRecord, error) {
	if limit <= 0 {
		return []workspace.AppRecord{}, nil
	}
	var models []appModel
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("last_edited_at IS NULL").
		Order("last_edited_at DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]workspace.AppRecord, 0, len(models))
	for _, m := range models {
		rec := workspace.AppRecord{ID: m.ID, Title: m.Title}
		if m.LastEditedAt != nil {
			rec.LastEditedElement = &workspace.LastEditedElement{
				Modified: *m.LastEditedAt,
				User:     m.LastEditedBy,
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// Apps

func (r *WorkspaceGormRepository) CreateApp(ctx context.Context, app workspace.App) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := touchWorkspace(tx, app.WorkspaceID, app.CreatedAt); err != nil {
			return err
		}
		model := toAppModel(app)
		return tx.Create(&model).Error
	})
}

func (r *WorkspaceGormRepository) TouchApp(ctx context.Context, workspaceID, appID, user string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&appModel{}).
			Where("id = ? AND workspace_id = ?", appID, workspaceID).
			Updates(map[string]interface{}{
				"last_edited_at": at,
				"last_edited_by": user,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.ErrAppNotFound
		}
		return touchWorkspace(tx, workspaceID, at)
	})
}

func touchWorkspace(tx *gorm.DB, workspaceID string, at time.Time) error {
	res := tx.Model(&workspaceModel{}).Where("id = ?", workspaceID).Update("updated_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrWorkspaceNotFound
	}
	return nil
}

// Members

func (r *WorkspaceGormRepository) AddMember(ctx context.Context, member workspace.Member) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ws workspaceModel
		if err := tx.Select("id").First(&ws, "id = ?", member.WorkspaceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrWorkspaceNotFound
			}
			return err
		}

		var existing int64
		if err := tx.Model(&memberModel{}).
			Where("workspace_id = ? AND user_id = ?", member.WorkspaceID, member.UserID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return common.ErrDuplicateMember
		}

		model := memberModel{
			WorkspaceID: member.WorkspaceID,
			UserID:      member.UserID,
			Role:        member.Role,
			CreatedAt:   member.CreatedAt,
		}
		return tx.Create(&model).Error
	})
}

func (r *WorkspaceGormRepository) ListMembers(ctx context.Context, workspaceID string) ([]workspace.Member, error) {
	var models []memberModel
	if err := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]workspace.Member, len(models))
	for i, m := range models {
		res[i] = workspace.Member{
			WorkspaceID: m.WorkspaceID,
			UserID:      m.UserID,
			Role:        m.Role,
			CreatedAt:   m.CreatedAt,
		}
	}
	return res, nil
}

// --- Mappers ---

func toWorkspaceModel(ws workspace.Workspace) workspaceModel {
	return workspaceModel{
		ID:        ws.ID,
		Name:      ws.Name,
		IsDefault: ws.IsDefault,
		OwnerID:   ws.OwnerID,
		CreatedAt: ws.CreatedAt,
		UpdatedAt: ws.UpdatedAt,
	}
}

func fromWorkspaceModel(m workspaceModel) workspace.Workspace {
	return workspace.Workspace{
		ID:        m.ID,
		Name:      m.Name,
		IsDefault: m.IsDefault,
		OwnerID:   m.OwnerID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toAppModel(app workspace.App) appModel {
	return appModel{
		ID:           app.ID,
		WorkspaceID:  app.WorkspaceID,
		Title:        app.Title,
		LastEditedAt: app.LastEditedAt,
		LastEditedBy: app.LastEditedBy,
		CreatedAt:    app.CreatedAt,
	}
}
