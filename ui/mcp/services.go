package mcp

import (
	"context"
	"fmt"

	domainService "github.com/AzielCF/az-console/domains/service"
	"github.com/AzielCF/az-console/services"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type ServicesHandler struct {
	logging domainService.ILoggingUsecase
}

func InitMcpServices(logging domainService.ILoggingUsecase) *ServicesHandler {
	return &ServicesHandler{logging: logging}
}

func (h *ServicesHandler) AddServicesTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolGetLogging(), h.handleGetLogging)
	mcpServer.AddTool(h.toolUpdateLogging(), h.handleUpdateLogging)
	mcpServer.AddTool(h.toolToggleLogging(), h.handleToggleLogging)
}

func serviceIDArg() mcp.ToolOption {
	return mcp.WithString("service_id",
		mcp.Description("The service whose logging settings are addressed."),
		mcp.Required(),
	)
}

func (h *ServicesHandler) toolGetLogging() mcp.Tool {
	return mcp.NewTool(
		"service_logging_get",
		mcp.WithDescription("Show the logging section of a service, with the enabled state of every input."),
		mcp.WithTitleAnnotation("Get Service Logging"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		serviceIDArg(),
		mcp.WithBoolean("editing",
			mcp.Description("Render the section in edit mode."),
		),
	)
}

func (h *ServicesHandler) handleGetLogging(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	serviceID, err := request.RequireString("service_id")
	if err != nil {
		return nil, err
	}
	editing := false
	if raw, ok := request.GetArguments()["editing"]; ok {
		if editing, err = toBool(raw); err != nil {
			return nil, err
		}
	}

	form, err := h.logging.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return loggingResult(form, editing), nil
}

func (h *ServicesHandler) toolUpdateLogging() mcp.Tool {
	return mcp.NewTool(
		"service_logging_update",
		mcp.WithDescription("Change the logging settings of a service. Retention and Pagerduty key require body capture."),
		mcp.WithTitleAnnotation("Update Service Logging"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		serviceIDArg(),
		mcp.WithBoolean("store_body",
			mcp.Description("Capture request and response bodies."),
		),
		mcp.WithNumber("retention_days",
			mcp.Description("Days to keep captured logs. 0 uses the default."),
		),
		mcp.WithString("pagerduty_key",
			mcp.Description("Pagerduty service key used for alerting."),
		),
	)
}

func (h *ServicesHandler) handleUpdateLogging(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	serviceID, err := request.RequireString("service_id")
	if err != nil {
		return nil, err
	}

	args := request.GetArguments()
	update := domainService.UpdateLogConfigRequest{ServiceID: serviceID}
	if raw, ok := args["store_body"]; ok {
		v, err := toBool(raw)
		if err != nil {
			return nil, err
		}
		update.StoreBody = &v
	}
	if raw, ok := args["retention_days"]; ok {
		v, err := toInt(raw)
		if err != nil {
			return nil, err
		}
		update.RetentionDays = &v
	}
	if raw, ok := args["pagerduty_key"].(string); ok {
		update.PagerdutyKey = &raw
	}

	form, err := h.logging.Update(ctx, update)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return loggingResult(form, true), nil
}

func (h *ServicesHandler) toolToggleLogging() mcp.Tool {
	return mcp.NewTool(
		"service_logging_toggle",
		mcp.WithDescription("Flip request and response body capture for a service."),
		mcp.WithTitleAnnotation("Toggle Body Capture"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		serviceIDArg(),
	)
}

func (h *ServicesHandler) handleToggleLogging(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	serviceID, err := request.RequireString("service_id")
	if err != nil {
		return nil, err
	}
	form, err := h.logging.Toggle(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return loggingResult(form, true), nil
}

func loggingResult(form domainService.ServiceForm, editing bool) *mcp.CallToolResult {
	panel := services.LoggingSection(form, editing, services.SidebarID)
	fallback := fmt.Sprintf("Body capture %s for %s", onOff(panel.StoreBody.Checked), form.ID)
	return mcp.NewToolResultStructured(panel, fallback)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
