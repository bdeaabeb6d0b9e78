package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AzielCF/az-console/workspace/domain/access"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
	"github.com/stretchr/testify/assert"
)

func TestPrintView_Populated(t *testing.T) {
	var buf bytes.Buffer
	printView(&buf, workspace.ListView{
		State: workspace.StatePopulated,
		Workspaces: []workspace.ViewModel{{
			Name:                    "Payments",
			IsDefault:               true,
			TotalApps:               4,
			WorkspaceUsersCount:     2,
			LastModifiedDescription: "Modified 1 hour ago by root",
			Apps:                    []workspace.AppCard{{Name: "Checkout"}, {Name: "Refunds"}},
			WorkspacePermissions:    access.Permissions{access.GrantWrite: true, access.GrantRead: true, access.GrantDelete: false},
		}},
		Page:  1,
		Total: 1200,
		Sort:  workspace.SortNameAsc,
	})

	out := buf.String()
	assert.Contains(t, out, "Payments (default)")
	assert.Contains(t, out, "Checkout, Refunds")
	assert.Contains(t, out, "read,write")
	assert.Contains(t, out, "Modified 1 hour ago by root")
	assert.Contains(t, out, "Page 1, 1,200 workspaces, sorted by name")
}

func TestPrintView_NoAccess(t *testing.T) {
	for _, state := range []workspace.RenderState{workspace.StateForbidden, workspace.StateEmpty} {
		var buf bytes.Buffer
		printView(&buf, workspace.ListView{State: state, Message: workspace.NoAccessMessage})
		assert.Equal(t, workspace.NoAccessMessage, strings.TrimSpace(buf.String()))
	}
}

func TestGrants_Empty(t *testing.T) {
	assert.Equal(t, "-", grants(nil))
	assert.Equal(t, "-", grants(access.Permissions{access.GrantRead: false}))
}
