package common

import "errors"

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrAppNotFound       = errors.New("app not found")
	ErrDuplicateMember   = errors.New("user is already a member of this workspace")
	ErrForbidden         = errors.New("caller has no access to workspaces")
)
