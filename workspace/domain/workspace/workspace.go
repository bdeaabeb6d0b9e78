package workspace

import (
	"time"

	"github.com/AzielCF/az-console/workspace/domain/access"
)

// MaxAppsCount caps the apps shown on a workspace card.
const MaxAppsCount = 3

// ResourceURL is where the paginated workspace collection is served.
const ResourceURL = "/fbu/uapi/workspaces"

// Cache keys used to invalidate pages of the workspace collection.
const (
	CacheKeyWorkspaces     = "workspaces"
	CacheKeyWorkspaceUsers = "workspace-users"
	CacheKeyWorkspaceApps  = "workspace-apps"
)

// CacheKeys is the full key set a workspace page depends on.
var CacheKeys = []string{CacheKeyWorkspaces, CacheKeyWorkspaceUsers, CacheKeyWorkspaceApps}

// Workspace is the persisted entity.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type App struct {
	ID           string     `json:"id"`
	WorkspaceID  string     `json:"workspace_id"`
	Title        string     `json:"title"`
	LastEditedAt *time.Time `json:"last_edited_at,omitempty"`
	LastEditedBy string     `json:"last_edited_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Member struct {
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// LastEditedElement describes the latest edit made inside an app.
type LastEditedElement struct {
	Modified time.Time `json:"modified"`
	User     string    `json:"user"`
}

type AppRecord struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	LastEditedElement *LastEditedElement `json:"lastEditedElement,omitempty"`
}

// Record is one raw item of the paginated workspace collection.
type Record struct {
	ID                       string      `json:"id"`
	Name                     string      `json:"name"`
	IsDefault                bool        `json:"isDefault"`
	Modified                 time.Time   `json:"modified"`
	Owner                    string      `json:"owner"`
	TotalApps                int         `json:"totalApps"`
	MostRecentlyModifiedApps []AppRecord `json:"mostRecentlyModifiedApps"`
	WorkspaceUsersCount      int         `json:"workspaceUsersCount"`
}

// AppCard is an app as displayed on a workspace card.
type AppCard struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ViewModel is one workspace card.
type ViewModel struct {
	ID                      string             `json:"id"`
	IsDefault               bool               `json:"isDefault"`
	ModifiedDate            time.Time          `json:"modifiedDate"`
	ModifiedUser            string             `json:"modifiedUser"`
	Name                    string             `json:"name"`
	TotalApps               int                `json:"totalApps"`
	WorkspaceUsersCount     int                `json:"workspaceUsersCount"`
	LastModifiedDescription string             `json:"lastModifiedDescription"`
	Apps                    []AppCard          `json:"apps"`
	WorkspacePermissions    access.Permissions `json:"workspacePermissions,omitempty"`
}
