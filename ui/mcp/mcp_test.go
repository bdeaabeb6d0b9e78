package mcp

import (
	"context"
	"testing"

	domainService "github.com/AzielCF/az-console/domains/service"
	"github.com/AzielCF/az-console/services"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
	"github.com/AzielCF/az-console/workspace/screen"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forbiddenSource struct{}

func (forbiddenSource) Fetch(context.Context, workspace.ListQuery) (workspace.ListPage, error) {
	return workspace.ListPage{}, workspace.NewFetchErrorFromMessage("Request failed: 403 Forbidden")
}

type memoryLogging struct {
	cfg domainService.LogConfig
}

func (m *memoryLogging) Get(_ context.Context, id string) (domainService.ServiceForm, error) {
	cfg := m.cfg
	return domainService.ServiceForm{ID: id, LogConfig: &cfg}, nil
}

func (m *memoryLogging) Update(ctx context.Context, req domainService.UpdateLogConfigRequest) (domainService.ServiceForm, error) {
	if req.StoreBody != nil {
		m.cfg.StoreBody = *req.StoreBody
	}
	if req.RetentionDays != nil {
		m.cfg.RetentionDays = *req.RetentionDays
	}
	if req.PagerdutyKey != nil {
		m.cfg.PagerdutyKey = *req.PagerdutyKey
	}
	return m.Get(ctx, req.ServiceID)
}

func (m *memoryLogging) Toggle(ctx context.Context, id string) (domainService.ServiceForm, error) {
	m.cfg.StoreBody = !m.cfg.StoreBody
	return m.Get(ctx, id)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestListWorkspaces_Forbidden(t *testing.T) {
	h := InitMcpQuery(screen.Factory{
		Sources: func(string) screen.Source { return forbiddenSource{} },
	})

	res, err := h.handleListWorkspaces(context.Background(), callRequest("workspace_list_view", map[string]any{
		"caller": "bob",
		"sort":   workspace.SortNameAsc,
	}))
	require.NoError(t, err)
	view, ok := res.StructuredContent.(workspace.ListView)
	require.True(t, ok)
	assert.Equal(t, workspace.StateForbidden, view.State)
}

func TestListWorkspaces_RequiresCaller(t *testing.T) {
	h := InitMcpQuery(screen.Factory{})
	_, err := h.handleListWorkspaces(context.Background(), callRequest("workspace_list_view", map[string]any{}))
	assert.Error(t, err)
}

func TestServiceLoggingTools(t *testing.T) {
	store := &memoryLogging{}
	h := InitMcpServices(store)
	ctx := context.Background()

	res, err := h.handleGetLogging(ctx, callRequest("service_logging_get", map[string]any{"service_id": "svc", "editing": "true"}))
	require.NoError(t, err)
	panel := res.StructuredContent.(services.LoggingPanel)
	assert.False(t, panel.StoreBody.Disabled)
	assert.True(t, panel.RetentionDays.Disabled)

	res, err = h.handleToggleLogging(ctx, callRequest("service_logging_toggle", map[string]any{"service_id": "svc"}))
	require.NoError(t, err)
	panel = res.StructuredContent.(services.LoggingPanel)
	assert.True(t, panel.StoreBody.Checked)
	assert.False(t, panel.RetentionDays.Disabled)

	res, err = h.handleUpdateLogging(ctx, callRequest("service_logging_update", map[string]any{
		"service_id":     "svc",
		"retention_days": float64(14),
	}))
	require.NoError(t, err)
	panel = res.StructuredContent.(services.LoggingPanel)
	assert.Equal(t, "14", panel.RetentionDays.Value)
}

func TestToBoolAndToInt(t *testing.T) {
	b, err := toBool("1")
	require.NoError(t, err)
	assert.True(t, b)
	_, err = toBool([]int{})
	assert.Error(t, err)

	n, err := toInt("7")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	_, err = toInt("seven")
	assert.Error(t, err)
}
