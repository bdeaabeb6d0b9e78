package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/AzielCF/az-console/analytics"
	settingsApp "github.com/AzielCF/az-console/core/settings/application"
	"github.com/AzielCF/az-console/domains/health"
	"github.com/AzielCF/az-console/featureflag"
	"github.com/AzielCF/az-console/pkg/eventworker"
	"github.com/AzielCF/az-console/services"
	"github.com/AzielCF/az-console/ui/rest/middleware"
	"github.com/AzielCF/az-console/usecase"
	"github.com/AzielCF/az-console/workspace/domain/access"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
	"github.com/AzielCF/az-console/workspace/repository"
	wsUsecase "github.com/AzielCF/az-console/workspace/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingTracker struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (r *recordingTracker) Track(_ context.Context, ev analytics.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingTracker) Events() []analytics.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]analytics.Event(nil), r.events...)
}

type testEnv struct {
	app     *fiber.App
	access  *repository.AccessGormRepository
	tracker *recordingTracker
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := repository.NewWorkspaceGormRepository(db)
	acc := repository.NewAccessGormRepository(db)
	require.NoError(t, repo.Init(ctx))
	require.NoError(t, acc.Init(ctx))
	settings := settingsApp.NewSettingsService(db)
	require.NoError(t, settings.Init(ctx))

	uc := wsUsecase.NewWorkspaceUsecase(repo, acc, repository.NewMemoryPageCache(time.Minute), 3)
	flags := featureflag.NewService(settings, map[string]bool{featureflag.Name(featureflag.FlagWRBAC, featureflag.PartWorkspaceList): false})
	tracker := &recordingTracker{}

	app := fiber.New()
	app.Use(basicauth.New(basicauth.Config{Users: map[string]string{"admin": "secret", "alice": "pw"}}))
	app.Use(middleware.Caller())
	InitRestWorkspace(app, uc, uc.Screens(flags, tracker, 10))
	InitRestAccess(app, uc, flags)
	InitRestServices(app, services.NewLoggingService(settings))
	InitRestAnalytics(app, tracker, nil)

	return testEnv{app: app, access: acc, tracker: tracker}
}

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Results json.RawMessage `json:"results"`
}

func (e testEnv) call(t *testing.T, user, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	pass := map[string]string{"admin": "secret", "alice": "pw"}[user]
	req.SetBasicAuth(user, pass)

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusUnauthorized {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func TestWorkspaceList_ForbiddenWithoutAccess(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.call(t, "alice", http.MethodGet, workspace.ResourceURL, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body.Code)

	status, body = env.call(t, "alice", http.MethodGet, "/api/workspaces/view", nil)
	require.Equal(t, http.StatusOK, status)
	var view workspace.ListView
	require.NoError(t, json.Unmarshal(body.Results, &view))
	assert.Equal(t, workspace.StateForbidden, view.State)
	assert.Equal(t, workspace.NoAccessMessage, view.Message)
}

func TestWorkspaceList_CreatorSeesWorkspace(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.call(t, "admin", http.MethodPost, "/api/workspaces", map[string]any{"name": "Payments"})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var ws workspace.Workspace
	require.NoError(t, json.Unmarshal(body.Results, &ws))

	status, _ = env.call(t, "admin", http.MethodPost, "/api/workspaces/"+ws.ID+"/apps", map[string]any{"title": "Checkout"})
	require.Equal(t, http.StatusCreated, status)

	status, body = env.call(t, "admin", http.MethodGet, workspace.ResourceURL+"?page=1&page_size=5", nil)
	require.Equal(t, http.StatusOK, status)
	var page workspace.ListPage
	require.NoError(t, json.Unmarshal(body.Results, &page))
	require.Len(t, page.Results, 1)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 5, page.PageSize)

	status, body = env.call(t, "admin", http.MethodGet, "/api/workspaces/view", nil)
	require.Equal(t, http.StatusOK, status)
	var view workspace.ListView
	require.NoError(t, json.Unmarshal(body.Results, &view))
	assert.Equal(t, workspace.StatePopulated, view.State)
	require.Len(t, view.Workspaces, 1)
	assert.Equal(t, "Payments", view.Workspaces[0].Name)
}

func TestWorkspace_NotFoundAndValidation(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.call(t, "admin", http.MethodGet, "/api/workspaces/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND_ERROR", body.Code)

	status, body = env.call(t, "admin", http.MethodPost, "/api/workspaces", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)

	status, _ = env.call(t, "admin", http.MethodGet, workspace.ResourceURL+"?sort=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWorkspaceMembers_RequireManageGrant(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.call(t, "admin", http.MethodPost, "/api/workspaces", map[string]any{"name": "Payroll"})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var ws workspace.Workspace
	require.NoError(t, json.Unmarshal(body.Results, &ws))

	status, body = env.call(t, "alice", http.MethodPost, "/api/workspaces/"+ws.ID+"/members", map[string]any{"user_id": "alice", "role": "admin"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body.Code)

	status, _ = env.call(t, "alice", http.MethodPost, "/api/workspaces/"+ws.ID+"/apps", map[string]any{"title": "Sneaky"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.call(t, "alice", http.MethodGet, "/api/workspaces/view", nil)
	require.Equal(t, http.StatusOK, status)
	var view workspace.ListView
	require.NoError(t, json.Unmarshal(body.Results, &view))
	assert.Equal(t, workspace.StateForbidden, view.State)
	assert.Empty(t, view.Workspaces)

	status, _ = env.call(t, "admin", http.MethodPost, "/api/workspaces/"+ws.ID+"/members", map[string]any{"user_id": "alice", "role": "viewer"})
	assert.Equal(t, http.StatusCreated, status)
}

func TestAccessAndFeatures(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.access.Grant(context.Background(), "alice", access.GrantRead))

	status, body := env.call(t, "alice", http.MethodGet, "/api/me/access", nil)
	require.Equal(t, http.StatusOK, status)
	var me struct {
		Caller      string             `json:"caller"`
		Permissions access.Permissions `json:"permissions"`
		Roles       []string           `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(body.Results, &me))
	assert.Equal(t, "alice", me.Caller)
	assert.True(t, me.Permissions.Has(access.GrantRead))
	assert.Empty(t, me.Roles)

	path := "/api/features/" + featureflag.FlagWRBAC + "/" + featureflag.PartWorkspaceList
	status, body = env.call(t, "alice", http.MethodPut, path, map[string]any{"enabled": true})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body.Code)

	require.NoError(t, env.access.AssignRole(context.Background(), "admin", access.RoleAdmin))
	status, body = env.call(t, "admin", http.MethodPut, path, map[string]any{"enabled": true})
	require.Equal(t, http.StatusOK, status)

	status, body = env.call(t, "admin", http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, status)
	var flag struct {
		Enabled bool `json:"enabled"`
	}
	require.NoError(t, json.Unmarshal(body.Results, &flag))
	assert.True(t, flag.Enabled)

	status, _ = env.call(t, "admin", http.MethodPut, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestServiceLogging(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.call(t, "admin", http.MethodGet, "/api/services/svc-1/logging?editing=true", nil)
	require.Equal(t, http.StatusOK, status)
	var resp LoggingResponse
	require.NoError(t, json.Unmarshal(body.Results, &resp))
	assert.Equal(t, services.SidebarID, resp.Panel.SidebarID)
	assert.False(t, resp.Panel.StoreBody.Disabled)
	assert.True(t, resp.Panel.RetentionDays.Disabled)
	assert.Equal(t, "", resp.Panel.RetentionDays.Value)

	status, _ = env.call(t, "admin", http.MethodPut, "/api/services/svc-1/logging", map[string]any{"retentionDays": 7})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.call(t, "admin", http.MethodPost, "/api/services/svc-1/logging/toggle", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body.Results, &resp))
	assert.True(t, resp.Panel.StoreBody.Checked)
	assert.False(t, resp.Panel.RetentionDays.Disabled)

	status, body = env.call(t, "admin", http.MethodPut, "/api/services/svc-1/logging", map[string]any{"retentionDays": 7})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body.Results, &resp))
	assert.Equal(t, "7", resp.Panel.RetentionDays.Value)
}

func TestAnalyticsTrack(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.call(t, "alice", http.MethodPost, "/api/analytics/track", map[string]any{"context": "workspace", "sortValue": "-name"})
	require.Equal(t, http.StatusAccepted, status)

	events := env.tracker.Events()
	require.Len(t, events, 1)
	assert.Equal(t, analytics.EventSortChanged, events[0].Name)
	assert.Equal(t, "alice", events[0].Caller)
	assert.Equal(t, "-name", events[0].SortValue)

	status, _ = env.call(t, "alice", http.MethodPost, "/api/analytics/track", map[string]any{"sortValue": "name"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHealthEndpoints(t *testing.T) {
	svc := usecase.NewHealthService(map[health.EntityType]health.Probe{
		health.EntityDatabase: func(context.Context) error { return nil },
		health.EntityValkey:   func(context.Context) error { return errors.New("connection refused") },
	})
	app := fiber.New()
	InitRestHealth(app, svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/health/check-all", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []health.HealthRecord `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Results, 2)
	assert.Equal(t, health.EntityDatabase, body.Results[0].EntityType)
	assert.Equal(t, health.StatusOk, body.Results[0].Status)
	assert.Equal(t, health.StatusError, body.Results[1].Status)
	assert.Equal(t, "connection refused", body.Results[1].LastMessage)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/health/event_pool/check", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventPoolStats(t *testing.T) {
	app := fiber.New()
	InitRestWorkerPool(app.Group("/uninitialized"), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/uninitialized/api/workers/events/stats", nil))
	require.NoError(t, err)
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	pool := eventworker.NewPool(2, 10)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)
	InitRestWorkerPool(app, pool)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/workers/events/stats", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var stats eventworker.PoolStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 2, stats.NumWorkers)
}
