package access

import (
	"context"
	"strings"
)

// Permissions is a set of named grants. A nil set means the caller has no
// permission record at all, which is different from an empty one.
type Permissions map[string]bool

const (
	GrantRead   = "read"
	GrantWrite  = "write"
	GrantManage = "manage"
	GrantDelete = "delete"

	// GrantWorkspaceAdmin is a caller-wide grant that unlocks every workspace.
	GrantWorkspaceAdmin = "workspace.admin"
)

// WorkspaceGrants lists every grant a workspace-scoped permission carries.
var WorkspaceGrants = []string{GrantRead, GrantWrite, GrantManage, GrantDelete}

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

var roleGrants = map[string][]string{
	RoleAdmin:  {GrantRead, GrantWrite, GrantManage, GrantDelete},
	RoleEditor: {GrantRead, GrantWrite},
	RoleViewer: {GrantRead},
}

// PermissionProvider yields the caller's permission set, nil when absent.
type PermissionProvider interface {
	Permissions(ctx context.Context, caller string) (Permissions, error)
}

// RoleProvider yields the caller's role identifiers.
type RoleProvider interface {
	Roles(ctx context.Context, caller string) ([]string, error)
}

// Mapper turns caller-wide permissions and roles into a workspace-scoped permission.
type Mapper func(permissions Permissions, roles []string, workspaceID string) Permissions

// IsKnownRole reports whether role can be assigned inside a workspace.
func IsKnownRole(role string) bool {
	_, ok := roleGrants[role]
	return ok
}

// ScopedRole builds the identifier of a role held inside one workspace.
func ScopedRole(workspaceID, role string) string {
	return workspaceID + "/" + role
}

// ParseRole splits a role identifier. Global roles return an empty workspace id.
func ParseRole(identifier string) (workspaceID, role string) {
	idx := strings.LastIndex(identifier, "/")
	if idx < 0 {
		return "", identifier
	}
	return identifier[:idx], identifier[idx+1:]
}

// Has reports whether the grant is present and true.
func (p Permissions) Has(grant string) bool {
	return p != nil && p[grant]
}

// Clone returns an independent copy. Cloning nil yields nil.
func (p Permissions) Clone() Permissions {
	if p == nil {
		return nil
	}
	out := make(Permissions, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// MapUserRolesToWorkspacePermission projects the caller's permissions and roles
// onto a single workspace. The result always carries every workspace grant key.
func MapUserRolesToWorkspacePermission(permissions Permissions, roles []string, workspaceID string) Permissions {
	out := make(Permissions, len(WorkspaceGrants))
	for _, g := range WorkspaceGrants {
		out[g] = false
	}

	if permissions.Has(GrantWorkspaceAdmin) {
		for _, g := range WorkspaceGrants {
			out[g] = true
		}
		return out
	}

	for _, r := range roles {
		wsID, role := ParseRole(r)
		if wsID == "" && role == RoleAdmin {
			for _, g := range WorkspaceGrants {
				out[g] = true
			}
			return out
		}
		if wsID != workspaceID {
			continue
		}
		for _, g := range roleGrants[role] {
			out[g] = true
		}
	}
	return out
}
