package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AzielCF/az-console/analytics"
	"github.com/AzielCF/az-console/featureflag"
	pkgError "github.com/AzielCF/az-console/pkg/error"
	"github.com/AzielCF/az-console/validations"
	"github.com/AzielCF/az-console/workspace/domain/access"
	"github.com/AzielCF/az-console/workspace/domain/common"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
	"github.com/AzielCF/az-console/workspace/repository"
	"github.com/AzielCF/az-console/workspace/screen"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AccessProvider yields the caller-wide permissions and roles.
type AccessProvider interface {
	access.PermissionProvider
	access.RoleProvider
}

// AccessStore adds the writes that change what a caller can see.
type AccessStore interface {
	AccessProvider
	Grant(ctx context.Context, caller string, grants ...string) error
	AssignRole(ctx context.Context, caller, role string) error
}

// InvalidationHook is called after a write with the cache keys it touched.
type InvalidationHook func(keys []string)

type WorkspaceUsecase struct {
	repo       repository.IWorkspaceRepository
	access     AccessStore
	cache      repository.PageCache
	recentApps int

	hookMu sync.RWMutex
	hooks  []InvalidationHook
	now    func() time.Time
}

// NewWorkspaceUsecase wires the workspace collection. cache may be nil.
func NewWorkspaceUsecase(repo repository.IWorkspaceRepository, provider AccessStore, cache repository.PageCache, recentApps int) *WorkspaceUsecase {
	if recentApps <= 0 {
		recentApps = workspace.MaxAppsCount
	}
	return &WorkspaceUsecase{
		repo:       repo,
		access:     provider,
		cache:      cache,
		recentApps: recentApps,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AddInvalidationHook registers fn to run after every write.
func (u *WorkspaceUsecase) AddInvalidationHook(fn InvalidationHook) {
	u.hookMu.Lock()
	defer u.hookMu.Unlock()
	u.hooks = append(u.hooks, fn)
}

func (u *WorkspaceUsecase) CreateWorkspace(ctx context.Context, caller string, request validations.CreateWorkspaceRequest) (workspace.Workspace, error) {
	if err := validations.ValidateCreateWorkspace(ctx, request); err != nil {
		return workspace.Workspace{}, err
	}

	now := u.now()
	ws := workspace.Workspace{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(request.Name),
		IsDefault: request.IsDefault,
		OwnerID:   caller,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.repo.Create(ctx, ws); err != nil {
		return workspace.Workspace{}, fmt.Errorf("failed to create workspace: %w", err)
	}

	// the creator administers what they create
	if caller != "" {
		if err := u.repo.AddMember(ctx, workspace.Member{WorkspaceID: ws.ID, UserID: caller, Role: access.RoleAdmin, CreatedAt: now}); err != nil {
			return workspace.Workspace{}, fmt.Errorf("failed to add owner to workspace: %w", err)
		}
	}

	logrus.WithField("workspace_id", ws.ID).Infof("[WORKSPACE] Created %q for %s", ws.Name, caller)
	u.invalidate(ctx, workspace.CacheKeyWorkspaces, workspace.CacheKeyWorkspaceUsers)
	return ws, nil
}

func (u *WorkspaceUsecase) GetWorkspace(ctx context.Context, id string) (workspace.Workspace, error) {
	return u.repo.GetByID(ctx, id)
}

func (u *WorkspaceUsecase) AddApp(ctx context.Context, caller, workspaceID string, request validations.CreateAppRequest) (workspace.App, error) {
	if err := validations.ValidateCreateApp(ctx, request); err != nil {
		return workspace.App{}, err
	}
	if err := u.authorize(ctx, caller, workspaceID, access.GrantWrite); err != nil {
		return workspace.App{}, err
	}
	if _, err := u.repo.GetByID(ctx, workspaceID); err != nil {
		return workspace.App{}, err
	}

	now := u.now()
	app := workspace.App{
		ID:           uuid.NewString(),
		WorkspaceID:  workspaceID,
		Title:        strings.TrimSpace(request.Title),
		LastEditedAt: &now,
		LastEditedBy: caller,
		CreatedAt:    now,
	}
	if err := u.repo.CreateApp(ctx, app); err != nil {
		return workspace.App{}, fmt.Errorf("failed to create app: %w", err)
	}

	u.invalidate(ctx, workspace.CacheKeyWorkspaceApps, workspace.CacheKeyWorkspaces)
	return app, nil
}

// TouchApp records an edit of appID by caller.
func (u *WorkspaceUsecase) TouchApp(ctx context.Context, caller, workspaceID, appID string) error {
	if err := u.authorize(ctx, caller, workspaceID, access.GrantWrite); err != nil {
		return err
	}
	if err := u.repo.TouchApp(ctx, workspaceID, appID, caller, u.now()); err != nil {
		return err
	}
	u.invalidate(ctx, workspace.CacheKeyWorkspaceApps, workspace.CacheKeyWorkspaces)
	return nil
}

// AddMember requires the manage grant on the workspace.
func (u *WorkspaceUsecase) AddMember(ctx context.Context, caller, workspaceID string, request validations.AddMemberRequest) (workspace.Member, error) {
	if err := validations.ValidateAddMember(ctx, request); err != nil {
		return workspace.Member{}, err
	}
	if err := u.authorize(ctx, caller, workspaceID, access.GrantManage); err != nil {
		return workspace.Member{}, err
	}
	member := workspace.Member{
		WorkspaceID: workspaceID,
		UserID:      request.UserID,
		Role:        request.Role,
		CreatedAt:   u.now(),
	}
	if err := u.repo.AddMember(ctx, member); err != nil {
		return workspace.Member{}, err
	}

	logrus.WithField("workspace_id", workspaceID).Infof("[WORKSPACE] Added %s as %s", member.UserID, member.Role)
	u.invalidate(ctx, workspace.CacheKeyWorkspaceUsers, workspace.CacheKeyWorkspaces)
	return member, nil
}

func (u *WorkspaceUsecase) ListMembers(ctx context.Context, workspaceID string) ([]workspace.Member, error) {
	if _, err := u.repo.GetByID(ctx, workspaceID); err != nil {
		return nil, err
	}
	return u.repo.ListMembers(ctx, workspaceID)
}

// Access returns the caller's permission set (nil when absent) and roles.
func (u *WorkspaceUsecase) Access(ctx context.Context, caller string) (access.Permissions, []string, error) {
	perms, err := u.access.Permissions(ctx, caller)
	if err != nil {
		return nil, nil, err
	}
	roles, err := u.access.Roles(ctx, caller)
	if err != nil {
		return nil, nil, err
	}
	return perms, roles, nil
}

// IsAdmin reports whether caller holds the global admin role or the
// workspace.admin grant.
func (u *WorkspaceUsecase) IsAdmin(ctx context.Context, caller string) (bool, error) {
	perms, roles, err := u.Access(ctx, caller)
	if err != nil {
		return false, err
	}
	return seesEverything(perms, roles), nil
}

// AssignRole gives user a global role and drops the pages cached for it.
func (u *WorkspaceUsecase) AssignRole(ctx context.Context, user, role string) error {
	if err := u.access.AssignRole(ctx, user, role); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	u.invalidate(ctx, workspace.CacheKeyWorkspaceUsers)
	return nil
}

// Grant adds caller-wide grants to user and drops the pages cached for it.
func (u *WorkspaceUsecase) Grant(ctx context.Context, user string, grants ...string) error {
	if err := u.access.Grant(ctx, user, grants...); err != nil {
		return fmt.Errorf("failed to grant permissions: %w", err)
	}
	u.invalidate(ctx, workspace.CacheKeyWorkspaceUsers)
	return nil
}

func (u *WorkspaceUsecase) authorize(ctx context.Context, caller, workspaceID, grant string) error {
	perms, roles, err := u.Access(ctx, caller)
	if err != nil {
		return fmt.Errorf("failed to resolve access: %w", err)
	}
	if !access.MapUserRolesToWorkspacePermission(perms, roles, workspaceID).Has(grant) {
		return pkgError.ForbiddenError(fmt.Sprintf("%s lacks %s on workspace %s", caller, grant, workspaceID))
	}
	return nil
}

// AccessProvider exposes the provider the collection authorizes against.
func (u *WorkspaceUsecase) AccessProvider() AccessProvider {
	return u.access
}

// ListWorkspaces serves one page of the workspaces visible to caller. Callers
// with neither permissions nor roles get common.ErrForbidden.
func (u *WorkspaceUsecase) ListWorkspaces(ctx context.Context, caller string, query workspace.ListQuery) (workspace.ListPage, error) {
	query = query.WithDefaults()
	if err := validations.ValidateListQuery(ctx, query); err != nil {
		return workspace.ListPage{}, err
	}

	perms, roles, err := u.Access(ctx, caller)
	if err != nil {
		return workspace.ListPage{}, fmt.Errorf("failed to resolve access: %w", err)
	}
	if perms == nil && len(roles) == 0 {
		return workspace.ListPage{}, common.ErrForbidden
	}

	key := pageKey(caller, query)
	if u.cache != nil {
		page, ok, err := u.cache.Get(ctx, key)
		if err != nil {
			logrus.WithError(err).Warn("[WORKSPACE] Page cache read failed")
		} else if ok {
			return page, nil
		}
	}

	records, total, err := u.repo.List(ctx, workspace.ListFilter{
		Caller:        caller,
		AllWorkspaces: seesEverything(perms, roles),
		Query:         query,
		RecentApps:    u.recentApps,
	})
	if err != nil {
		return workspace.ListPage{}, err
	}
	page := workspace.ListPage{
		Results:  records,
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
		Sort:     query.Sort,
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, key, page, workspace.CacheKeys); err != nil {
			logrus.WithError(err).Warn("[WORKSPACE] Page cache write failed")
		}
	}
	return page, nil
}

// Screens wires a screen factory reading this collection.
func (u *WorkspaceUsecase) Screens(flags featureflag.Evaluator, tracker analytics.Tracker, pageSize int) screen.Factory {
	return screen.Factory{
		Sources:  func(caller string) screen.Source { return u.Source(caller) },
		Access:   u.access,
		Flags:    flags,
		Tracker:  tracker,
		PageSize: pageSize,
	}
}

// Source adapts ListWorkspaces to a pagination source bound to caller.
// Failures surface as classified fetch errors.
func (u *WorkspaceUsecase) Source(caller string) *CallerSource {
	return &CallerSource{uc: u, caller: caller}
}

type CallerSource struct {
	uc     *WorkspaceUsecase
	caller string
}

func (s *CallerSource) Fetch(ctx context.Context, query workspace.ListQuery) (workspace.ListPage, error) {
	page, err := s.uc.ListWorkspaces(ctx, s.caller, query)
	if err == nil {
		return page, nil
	}
	if errors.Is(err, common.ErrForbidden) {
		return workspace.ListPage{}, &workspace.FetchError{Kind: workspace.FetchErrorForbidden, Status: 403, Message: "Request failed: 403 Forbidden"}
	}
	return workspace.ListPage{}, &workspace.FetchError{Kind: workspace.FetchErrorOther, Message: "Request failed: " + err.Error()}
}

func seesEverything(perms access.Permissions, roles []string) bool {
	if perms.Has(access.GrantWorkspaceAdmin) {
		return true
	}
	for _, r := range roles {
		if r == access.RoleAdmin {
			return true
		}
	}
	return false
}

func pageKey(caller string, q workspace.ListQuery) string {
	return strings.Join([]string{caller, strconv.Itoa(q.Page), strconv.Itoa(q.PageSize), q.Sort}, "|")
}

func (u *WorkspaceUsecase) invalidate(ctx context.Context, keys ...string) {
	if u.cache != nil {
		if err := u.cache.Invalidate(ctx, keys...); err != nil {
			logrus.WithError(err).Warn("[WORKSPACE] Page cache invalidation failed")
		}
	}
	u.hookMu.RLock()
	hooks := append([]InvalidationHook(nil), u.hooks...)
	u.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(keys)
	}
}
