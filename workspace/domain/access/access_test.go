package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapUserRolesToWorkspacePermission_ScopedRoles(t *testing.T) {
	perms := Permissions{GrantRead: true}
	roles := []string{ScopedRole("w1", RoleEditor), ScopedRole("w2", RoleViewer)}

	w1 := MapUserRolesToWorkspacePermission(perms, roles, "w1")
	w2 := MapUserRolesToWorkspacePermission(perms, roles, "w2")
	w3 := MapUserRolesToWorkspacePermission(perms, roles, "w3")

	assert.Equal(t, Permissions{GrantRead: true, GrantWrite: true, GrantManage: false, GrantDelete: false}, w1)
	assert.Equal(t, Permissions{GrantRead: true, GrantWrite: false, GrantManage: false, GrantDelete: false}, w2)
	assert.Equal(t, Permissions{GrantRead: false, GrantWrite: false, GrantManage: false, GrantDelete: false}, w3)
}

func TestMapUserRolesToWorkspacePermission_GlobalAdmin(t *testing.T) {
	all := Permissions{GrantRead: true, GrantWrite: true, GrantManage: true, GrantDelete: true}

	assert.Equal(t, all, MapUserRolesToWorkspacePermission(Permissions{}, []string{RoleAdmin}, "any"))
	assert.Equal(t, all, MapUserRolesToWorkspacePermission(Permissions{GrantWorkspaceAdmin: true}, nil, "any"))
}

func TestMapUserRolesToWorkspacePermission_DoesNotMutateInput(t *testing.T) {
	perms := Permissions{GrantRead: true}
	_ = MapUserRolesToWorkspacePermission(perms, []string{ScopedRole("w1", RoleAdmin)}, "w1")
	assert.Equal(t, Permissions{GrantRead: true}, perms)
}

func TestParseRole(t *testing.T) {
	ws, role := ParseRole("abc/editor")
	assert.Equal(t, "abc", ws)
	assert.Equal(t, "editor", role)

	ws, role = ParseRole("admin")
	assert.Empty(t, ws)
	assert.Equal(t, "admin", role)
}

func TestPermissionsClone(t *testing.T) {
	var nilPerms Permissions
	assert.Nil(t, nilPerms.Clone())

	p := Permissions{GrantRead: true}
	c := p.Clone()
	c[GrantWrite] = true
	assert.False(t, p.Has(GrantWrite))
}
