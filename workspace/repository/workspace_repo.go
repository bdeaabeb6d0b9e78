package repository

import (
	"context"
	"time"

	"github.com/AzielCF/az-console/workspace/domain/access"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
)

type IWorkspaceRepository interface {
	Init(ctx context.Context) error

	// Workspace CRUD
	Create(ctx context.Context, ws workspace.Workspace) error
	GetByID(ctx context.Context, id string) (workspace.Workspace, error)

	// List returns one page of the workspaces visible under filter plus the
	// total number of visible workspaces.
	List(ctx context.Context, filter workspace.ListFilter) ([]workspace.Record, int64, error)

	// Apps
	CreateApp(ctx context.Context, app workspace.App) error
	TouchApp(ctx context.Context, workspaceID, appID, user string, at time.Time) error

	// Members
	AddMember(ctx context.Context, member workspace.Member) error
	ListMembers(ctx context.Context, workspaceID string) ([]workspace.Member, error)
}

// IAccessRepository stores caller-wide grants and roles. Workspace-scoped
// roles come from memberships.
type IAccessRepository interface {
	access.PermissionProvider
	access.RoleProvider

	Init(ctx context.Context) error
	Grant(ctx context.Context, caller string, grants ...string) error
	AssignRole(ctx context.Context, caller, role string) error
}

// PageCache keeps resolved pages of the workspace collection. Entries are
// tagged with cache keys so a write can drop every page depending on it.
type PageCache interface {
	Get(ctx context.Context, key string) (workspace.ListPage, bool, error)
	Set(ctx context.Context, key string, page workspace.ListPage, tags []string) error
	Invalidate(ctx context.Context, tags ...string) error
}
