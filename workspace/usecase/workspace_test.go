package usecase_test

import (
	"context"
	"testing"
	"time"

	pkgError "github.com/AzielCF/az-console/pkg/error"
	"github.com/AzielCF/az-console/validations"
	"github.com/AzielCF/az-console/workspace/domain/access"
	"github.com/AzielCF/az-console/workspace/domain/common"
	wsDomain "github.com/AzielCF/az-console/workspace/domain/workspace"
	"github.com/AzielCF/az-console/workspace/repository"
	"github.com/AzielCF/az-console/workspace/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	uc     *usecase.WorkspaceUsecase
	access *repository.AccessGormRepository
	cache  *repository.MemoryPageCache
}

func setup(t *testing.T) fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := repository.NewWorkspaceGormRepository(db)
	acc := repository.NewAccessGormRepository(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	if err := acc.Init(context.Background()); err != nil {
		t.Fatalf("failed to init access: %v", err)
	}
	cache := repository.NewMemoryPageCache(time.Minute)
	return fixture{uc: usecase.NewWorkspaceUsecase(repo, acc, cache, 5), access: acc, cache: cache}
}

func TestCreateWorkspace(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ws, err := f.uc.CreateWorkspace(ctx, "owner123", validations.CreateWorkspaceRequest{Name: "  Test Workspace "})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ws.Name != "Test Workspace" {
		t.Errorf("expected name 'Test Workspace', got %s", ws.Name)
	}

	stored, err := f.uc.GetWorkspace(ctx, ws.ID)
	if err != nil {
		t.Fatalf("failed to get workspace: %v", err)
	}
	if stored.OwnerID != "owner123" {
		t.Errorf("expected owner 'owner123', got %s", stored.OwnerID)
	}

	members, err := f.uc.ListMembers(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, access.RoleAdmin, members[0].Role)

	_, err = f.uc.CreateWorkspace(ctx, "owner123", validations.CreateWorkspaceRequest{})
	assert.Error(t, err)
}

func TestListWorkspaces_ForbiddenWithoutAccess(t *testing.T) {
	f := setup(t)
	_, err := f.uc.ListWorkspaces(context.Background(), "nobody", wsDomain.ListQuery{})
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.uc.Source("nobody").Fetch(context.Background(), wsDomain.ListQuery{})
	assert.Equal(t, wsDomain.FetchErrorForbidden, wsDomain.ClassifyFetchError(err))
}

func TestListWorkspaces_MemberSeesOwnAndDefault(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.uc.CreateWorkspace(ctx, "root", validations.CreateWorkspaceRequest{Name: "Shared", IsDefault: true})
	require.NoError(t, err)
	team, err := f.uc.CreateWorkspace(ctx, "root", validations.CreateWorkspaceRequest{Name: "Team"})
	require.NoError(t, err)
	_, err = f.uc.CreateWorkspace(ctx, "root", validations.CreateWorkspaceRequest{Name: "Private"})
	require.NoError(t, err)

	_, err = f.uc.AddMember(ctx, "root", team.ID, validations.AddMemberRequest{UserID: "alice", Role: access.RoleViewer})
	require.NoError(t, err)
	require.NoError(t, f.access.Grant(ctx, "alice", access.GrantRead))

	page, err := f.uc.ListWorkspaces(ctx, "alice", wsDomain.ListQuery{Sort: wsDomain.SortNameAsc})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "Shared", page.Results[0].Name)
	assert.Equal(t, "Team", page.Results[1].Name)
	assert.Equal(t, 2, page.Results[1].WorkspaceUsersCount)

	require.NoError(t, f.access.AssignRole(ctx, "root", access.RoleAdmin))
	page, err = f.uc.ListWorkspaces(ctx, "root", wsDomain.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	_, err = f.uc.ListWorkspaces(ctx, "alice", wsDomain.ListQuery{Page: 1, PageSize: 500})
	assert.Error(t, err)
}

func TestListWorkspaces_CacheInvalidatedOnWrite(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.access.AssignRole(ctx, "root", access.RoleAdmin))

	var invalidated [][]string
	f.uc.AddInvalidationHook(func(keys []string) { invalidated = append(invalidated, keys) })

	ws, err := f.uc.CreateWorkspace(ctx, "root", validations.CreateWorkspaceRequest{Name: "One"})
	require.NoError(t, err)
	require.Len(t, invalidated, 1)
	assert.Contains(t, invalidated[0], wsDomain.CacheKeyWorkspaces)

	page, err := f.uc.ListWorkspaces(ctx, "root", wsDomain.ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 0, page.Results[0].TotalApps)

	_, err = f.uc.AddApp(ctx, "root", ws.ID, validations.CreateAppRequest{Title: "Orders"})
	require.NoError(t, err)
	require.Len(t, invalidated, 2)
	assert.Contains(t, invalidated[1], wsDomain.CacheKeyWorkspaceApps)

	page, err = f.uc.ListWorkspaces(ctx, "root", wsDomain.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Results[0].TotalApps, "stale page must not be served after a write")
	require.Len(t, page.Results[0].MostRecentlyModifiedApps, 1)
	assert.Equal(t, "root", page.Results[0].MostRecentlyModifiedApps[0].LastEditedElement.User)
}

func TestAddApp_UnknownWorkspace(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.access.AssignRole(context.Background(), "root", access.RoleAdmin))
	_, err := f.uc.AddApp(context.Background(), "root", "missing", validations.CreateAppRequest{Title: "X"})
	assert.ErrorIs(t, err, common.ErrWorkspaceNotFound)

	err = f.uc.TouchApp(context.Background(), "root", "missing", "app")
	assert.ErrorIs(t, err, common.ErrAppNotFound)
}

func TestWrites_RequireWorkspaceGrant(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ws, err := f.uc.CreateWorkspace(ctx, "root", validations.CreateWorkspaceRequest{Name: "Payroll"})
	require.NoError(t, err)

	var forbidden pkgError.ForbiddenError
	_, err = f.uc.AddMember(ctx, "alice", ws.ID, validations.AddMemberRequest{UserID: "alice", Role: access.RoleAdmin})
	require.ErrorAs(t, err, &forbidden)
	_, err = f.uc.AddApp(ctx, "alice", ws.ID, validations.CreateAppRequest{Title: "Sneaky"})
	require.ErrorAs(t, err, &forbidden)

	_, err = f.uc.ListWorkspaces(ctx, "alice", wsDomain.ListQuery{})
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.uc.AddMember(ctx, "root", ws.ID, validations.AddMemberRequest{UserID: "alice", Role: access.RoleViewer})
	require.NoError(t, err)
	_, err = f.uc.AddMember(ctx, "root", ws.ID, validations.AddMemberRequest{UserID: "bob", Role: access.RoleEditor})
	require.NoError(t, err)

	_, err = f.uc.AddApp(ctx, "alice", ws.ID, validations.CreateAppRequest{Title: "Reports"})
	assert.ErrorAs(t, err, &forbidden)
	app, err := f.uc.AddApp(ctx, "bob", ws.ID, validations.CreateAppRequest{Title: "Reports"})
	require.NoError(t, err)
	assert.ErrorAs(t, f.uc.TouchApp(ctx, "alice", ws.ID, app.ID), &forbidden)
	assert.NoError(t, f.uc.TouchApp(ctx, "bob", ws.ID, app.ID))

	_, err = f.uc.AddMember(ctx, "bob", ws.ID, validations.AddMemberRequest{UserID: "carol", Role: access.RoleViewer})
	assert.ErrorAs(t, err, &forbidden)

	members, err := f.uc.ListMembers(ctx, ws.ID)
	require.NoError(t, err)
	assert.Len(t, members, 3)
}

func TestAssignRole_DropsCachedPages(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.uc.CreateWorkspace(ctx, "root", validations.CreateWorkspaceRequest{Name: "Private"})
	require.NoError(t, err)
	require.NoError(t, f.uc.Grant(ctx, "alice", access.GrantRead))

	page, err := f.uc.ListWorkspaces(ctx, "alice", wsDomain.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)

	var invalidated []string
	f.uc.AddInvalidationHook(func(keys []string) { invalidated = append(invalidated, keys...) })
	require.NoError(t, f.uc.AssignRole(ctx, "alice", access.RoleAdmin))
	assert.Contains(t, invalidated, wsDomain.CacheKeyWorkspaceUsers)

	page, err = f.uc.ListWorkspaces(ctx, "alice", wsDomain.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	admin, err := f.uc.IsAdmin(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, admin)
}
