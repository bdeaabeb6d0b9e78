// Package projector turns a fetched page of workspace records into the render
// decision and card view models of the workspace list screen.
//
// Everything here is pure: the same inputs always give the same view.
package projector

import (
	"time"

	"github.com/AzielCF/az-console/workspace/domain/access"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
)

// FetchResult is what a pagination source resolved to. A nil Results means
// "absent", which differs from an empty slice.
type FetchResult struct {
	Results []workspace.Record
	Err     error
}

// Describer renders a "modified X by Y" description.
type Describer func(modified time.Time, user string) string

// Context carries every input the projection reads besides the fetch result.
type Context struct {
	Permissions  access.Permissions
	Roles        []string
	WRBACEnabled bool

	// Now anchors relative descriptions when Describe is nil.
	Now time.Time
	// MaxApps defaults to workspace.MaxAppsCount.
	MaxApps int
	// MapPermissions defaults to access.MapUserRolesToWorkspacePermission.
	MapPermissions access.Mapper
	Describe       Describer
}

func (c Context) maxApps() int {
	if c.MaxApps <= 0 {
		return workspace.MaxAppsCount
	}
	return c.MaxApps
}

func (c Context) describe(modified time.Time, user string) string {
	if c.Describe != nil {
		return c.Describe(modified, user)
	}
	return LastModifiedDescription(modified, user, c.Now)
}

// permissionSource picks between the raw caller-wide set and a per-workspace mapping.
type permissionSource interface {
	forWorkspace(workspaceID string) access.Permissions
}

type rawPermission struct {
	permissions access.Permissions
}

func (r rawPermission) forWorkspace(string) access.Permissions {
	return r.permissions
}

type scopedPermission struct {
	permissions access.Permissions
	roles       []string
	mapper      access.Mapper
}

func (s scopedPermission) forWorkspace(workspaceID string) access.Permissions {
	return s.mapper(s.permissions, s.roles, workspaceID)
}

func (c Context) permissionSource() permissionSource {
	if !c.WRBACEnabled || c.Permissions == nil {
		return rawPermission{permissions: c.Permissions}
	}
	mapper := c.MapPermissions
	if mapper == nil {
		mapper = access.MapUserRolesToWorkspacePermission
	}
	return scopedPermission{permissions: c.Permissions, roles: c.Roles, mapper: mapper}
}

// Project resolves the render state for a fetch result. First match wins:
// forbidden, other error, empty, populated. With neither results nor error the
// view stays in the loading state.
func Project(result FetchResult, c Context) workspace.ListView {
	if result.Err != nil {
		if workspace.ClassifyFetchError(result.Err) == workspace.FetchErrorForbidden {
			return workspace.ListView{
				State:      workspace.StateForbidden,
				Message:    workspace.NoAccessMessage,
				Workspaces: []workspace.ViewModel{},
			}
		}
		return workspace.ListView{
			State:      workspace.StateErrorBanner,
			Banner:     result.Err.Error(),
			Workspaces: []workspace.ViewModel{},
		}
	}

	if result.Results == nil {
		return workspace.ListView{State: workspace.StateLoading, Workspaces: []workspace.ViewModel{}}
	}

	if len(result.Results) == 0 {
		return workspace.ListView{
			State:      workspace.StateEmpty,
			Message:    workspace.NoAccessMessage,
			Workspaces: []workspace.ViewModel{},
		}
	}

	src := c.permissionSource()
	cards := make([]workspace.ViewModel, 0, len(result.Results))
	for _, rec := range result.Results {
		cards = append(cards, reshape(rec, c, src))
	}
	return workspace.ListView{State: workspace.StatePopulated, Workspaces: cards}
}

// Reshape converts one record into its card view model.
func Reshape(rec workspace.Record, c Context) workspace.ViewModel {
	return reshape(rec, c, c.permissionSource())
}

func reshape(rec workspace.Record, c Context, src permissionSource) workspace.ViewModel {
	kept := rec.MostRecentlyModifiedApps
	if n := c.maxApps(); len(kept) > n {
		kept = kept[:n]
	}

	apps := make([]workspace.AppCard, 0, len(kept))
	for _, app := range kept {
		var (
			modified time.Time
			user     string
		)
		if app.LastEditedElement != nil {
			modified = app.LastEditedElement.Modified
			user = app.LastEditedElement.User
		}
		apps = append(apps, workspace.AppCard{
			ID:          app.ID,
			Name:        app.Title,
			Description: c.describe(modified, user),
		})
	}

	return workspace.ViewModel{
		ID:                      rec.ID,
		IsDefault:               rec.IsDefault,
		ModifiedDate:            rec.Modified,
		ModifiedUser:            rec.Owner,
		Name:                    rec.Name,
		TotalApps:               rec.TotalApps,
		WorkspaceUsersCount:     rec.WorkspaceUsersCount,
		LastModifiedDescription: c.describe(rec.Modified, rec.Owner),
		Apps:                    apps,
		WorkspacePermissions:    src.forWorkspace(rec.ID),
	}
}
