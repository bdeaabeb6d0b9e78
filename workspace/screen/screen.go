// Package screen drives the workspace list: it issues page requests against a
// pagination source, tracks sort changes and projects every response.
package screen

import (
	"context"
	"sync"
	"time"

	"github.com/AzielCF/az-console/analytics"
	"github.com/AzielCF/az-console/featureflag"
	"github.com/AzielCF/az-console/workspace/domain/access"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
	"github.com/AzielCF/az-console/workspace/projector"
	"github.com/sirupsen/logrus"
)

// Source resolves one page of the workspace collection.
type Source interface {
	Fetch(ctx context.Context, query workspace.ListQuery) (workspace.ListPage, error)
}

type Config struct {
	Caller      string
	Source      Source
	Permissions access.PermissionProvider
	Roles       access.RoleProvider
	Flags       featureflag.Evaluator
	Tracker     analytics.Tracker
	PageSize    int
	Clock       func() time.Time
}

// Screen is safe for concurrent use. Responses to superseded requests are
// dropped.
type Screen struct {
	cfg Config

	mu    sync.Mutex
	seq   uint64
	query workspace.ListQuery
	page  workspace.ListPage
	view  workspace.ListView
}

func New(cfg Config) *Screen {
	if cfg.Tracker == nil {
		cfg.Tracker = analytics.NopTracker{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Screen{
		cfg:   cfg,
		query: workspace.ListQuery{PageSize: cfg.PageSize}.WithDefaults(),
		view:  workspace.ListView{State: workspace.StateLoading, Workspaces: []workspace.ViewModel{}},
	}
}

// Open requests the first page with the default sort.
func (s *Screen) Open(ctx context.Context) workspace.ListView {
	return s.request(ctx, func(q workspace.ListQuery) workspace.ListQuery {
		q.Page = 1
		return q
	})
}

func (s *Screen) OnPageChange(ctx context.Context, page int) workspace.ListView {
	return s.request(ctx, func(q workspace.ListQuery) workspace.ListQuery {
		q.Page = page
		return q
	})
}

// OnSort tracks the sort change, then requests the first page with it.
func (s *Screen) OnSort(ctx context.Context, sortValue string) workspace.ListView {
	s.cfg.Tracker.Track(ctx, analytics.SortChanged(s.cfg.Caller, sortValue))
	return s.request(ctx, func(q workspace.ListQuery) workspace.ListQuery {
		q.Page = 1
		q.Sort = sortValue
		return q
	})
}

// Load requests an explicit query, filling unset fields with defaults.
func (s *Screen) Load(ctx context.Context, query workspace.ListQuery) workspace.ListView {
	return s.request(ctx, func(workspace.ListQuery) workspace.ListQuery {
		if query.PageSize == 0 {
			query.PageSize = s.cfg.PageSize
		}
		return query.WithDefaults()
	})
}

// Refresh requests the current page again.
func (s *Screen) Refresh(ctx context.Context) workspace.ListView {
	return s.request(ctx, func(q workspace.ListQuery) workspace.ListQuery { return q })
}

// Begin moves the screen to loading for next and returns the request ticket.
// Pair it with Resolve when the source answers asynchronously.
func (s *Screen) Begin(next workspace.ListQuery) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.query = next
	s.view = workspace.ListView{State: workspace.StateLoading, Workspaces: []workspace.ViewModel{}}
	return s.seq
}

// Resolve projects a response. It reports false when ticket was superseded.
func (s *Screen) Resolve(ctx context.Context, ticket uint64, page workspace.ListPage, err error) bool {
	// nil results without an error is a malformed response and stays loading
	result := projector.FetchResult{Err: err}
	if err == nil {
		result.Results = page.Results
	}
	view := projector.Project(result, s.projectionContext(ctx))

	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket != s.seq {
		logrus.Debugf("[SCREEN] Dropping stale response %d (current %d)", ticket, s.seq)
		return false
	}
	if err == nil {
		s.page = page
		view.Page = page.Page
		view.PageSize = page.PageSize
		view.Total = page.Total
		view.Sort = page.Sort
	}
	s.view = view
	return true
}

func (s *Screen) View() workspace.ListView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Screen) State() workspace.RenderState {
	return s.View().State
}

func (s *Screen) Query() workspace.ListQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *Screen) request(ctx context.Context, next func(workspace.ListQuery) workspace.ListQuery) workspace.ListView {
	query := next(s.Query())
	ticket := s.Begin(query)
	page, err := s.cfg.Source.Fetch(ctx, query)
	s.Resolve(ctx, ticket, page, err)
	return s.View()
}

// projectionContext reads permissions, roles and the flag once per render.
// Provider failures degrade to "absent".
func (s *Screen) projectionContext(ctx context.Context) projector.Context {
	pc := projector.Context{Now: s.cfg.Clock()}
	if s.cfg.Permissions != nil {
		perms, err := s.cfg.Permissions.Permissions(ctx, s.cfg.Caller)
		if err != nil {
			logrus.WithError(err).Warn("[SCREEN] Permission provider failed")
		}
		pc.Permissions = perms
	}
	if s.cfg.Roles != nil {
		roles, err := s.cfg.Roles.Roles(ctx, s.cfg.Caller)
		if err != nil {
			logrus.WithError(err).Warn("[SCREEN] Role provider failed")
		}
		pc.Roles = roles
	}
	if s.cfg.Flags != nil {
		pc.WRBACEnabled = s.cfg.Flags.IsFeaturePartEnabled(ctx, featureflag.FlagWRBAC, featureflag.PartWorkspaceList)
	}
	return pc
}

// Access yields the caller-wide permissions and roles.
type Access interface {
	access.PermissionProvider
	access.RoleProvider
}

// Factory builds one screen per caller over shared providers.
type Factory struct {
	Sources  func(caller string) Source
	Access   Access
	Flags    featureflag.Evaluator
	Tracker  analytics.Tracker
	PageSize int
}

func (f Factory) For(caller string) *Screen {
	return New(Config{
		Caller:      caller,
		Source:      f.Sources(caller),
		Permissions: f.Access,
		Roles:       f.Access,
		Flags:       f.Flags,
		Tracker:     f.Tracker,
		PageSize:    f.PageSize,
	})
}
