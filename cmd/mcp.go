package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	coreconfig "github.com/AzielCF/az-console/core/config"
	"github.com/AzielCF/az-console/ui/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:    "mcp",
	Short:  "Start the console MCP server using SSE",
	Long:   `Start a console MCP (Model Context Protocol) server using Server-Sent Events (SSE) transport. Agents can render the workspace list and manage service logging settings.`,
	PreRun: initApp,
	Run:    mcpServer,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("host", "", "Host for the SSE MCP server")
	mcpCmd.Flags().String("mcp-port", "", "Port for the SSE MCP server")
}

func mcpServer(cmd *cobra.Command, _ []string) {
	cfg := coreconfig.Global
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.MCP.Host = v
	}
	if v, _ := cmd.Flags().GetString("mcp-port"); v != "" {
		cfg.MCP.Port = v
	}

	mcpServer := server.NewMCPServer(
		"Az-Console MCP Server",
		cfg.App.Version,
		server.WithToolCapabilities(true),
	)

	queryHandler := mcp.InitMcpQuery(wkUsecase.Screens(featureSvc, tracker, cfg.Listing.DefaultPageSize))
	queryHandler.AddQueryTools(mcpServer)

	servicesHandler := mcp.InitMcpServices(loggingUsecase)
	servicesHandler.AddServicesTools(mcpServer)

	sseServer := server.NewSSEServer(
		mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://%s:%s", cfg.MCP.Host, cfg.MCP.Port)),
		server.WithKeepAlive(true),
	)

	addr := fmt.Sprintf("%s:%s", cfg.MCP.Host, cfg.MCP.Port)
	logrus.Printf("Starting console MCP SSE server on %s", addr)
	logrus.Printf("SSE endpoint: http://%s/sse", addr)
	logrus.Printf("Message endpoint: http://%s/message", addr)

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[MCP] Reception of termination signal, shutting down gracefully...")
		StopApp()
		os.Exit(0)
	}()

	if err := sseServer.Start(addr); err != nil {
		logrus.Fatalf("Failed to start SSE server: %v", err)
	}
}
