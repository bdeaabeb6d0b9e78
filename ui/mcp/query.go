package mcp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/AzielCF/az-console/workspace/domain/workspace"
	"github.com/AzielCF/az-console/workspace/screen"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type QueryHandler struct {
	screens screen.Factory
}

func InitMcpQuery(screens screen.Factory) *QueryHandler {
	return &QueryHandler{screens: screens}
}

func (h *QueryHandler) AddQueryTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolListWorkspaces(), h.handleListWorkspaces)
}

func (h *QueryHandler) toolListWorkspaces() mcp.Tool {
	return mcp.NewTool(
		"workspace_list_view",
		mcp.WithDescription("Render one page of the workspace list as the console shows it, including per-workspace permissions."),
		mcp.WithTitleAnnotation("List Workspaces"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("caller",
			mcp.Description("The user the list is rendered for."),
			mcp.Required(),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page number."),
			mcp.DefaultNumber(1),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Workspaces per page."),
		),
		mcp.WithString("sort",
			mcp.Description("Sort value. A leading '-' sorts descending."),
			mcp.Enum(workspace.SortValues...),
		),
	)
}

func (h *QueryHandler) handleListWorkspaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	caller, err := request.RequireString("caller")
	if err != nil {
		return nil, err
	}

	query := workspace.ListQuery{
		Page:     request.GetInt("page", 1),
		PageSize: request.GetInt("page_size", 0),
		Sort:     request.GetString("sort", ""),
	}
	view := h.screens.For(caller).Load(ctx, query)

	var fallback string
	switch view.State {
	case workspace.StatePopulated:
		fallback = fmt.Sprintf("Showing %d of %d workspaces", len(view.Workspaces), view.Total)
	case workspace.StateErrorBanner:
		fallback = view.Banner
	default:
		fallback = view.Message
	}
	return mcp.NewToolResultStructured(view, fallback), nil
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("unable to parse boolean value %q", v)
		}
		return parsed, nil
	case float64:
		return v != 0, nil
	case int:
		return v != 0, nil
	default:
		return false, fmt.Errorf("unsupported boolean value type %T", value)
	}
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("unable to parse integer value %q", v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported integer value type %T", value)
	}
}
