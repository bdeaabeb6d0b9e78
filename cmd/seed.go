package cmd

import (
	"context"
	"fmt"
	"strings"

	coreconfig "github.com/AzielCF/az-console/core/config"
	"github.com/AzielCF/az-console/validations"
	"github.com/AzielCF/az-console/workspace/domain/access"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:    "seed",
	Short:  "Create the default workspace and the first administrator",
	Long:   `Creates a default workspace when none exists and grants the global admin role to the first basic auth user (or --admin).`,
	PreRun: initApp,
	RunE: func(cmd *cobra.Command, _ []string) error {
		admin, _ := cmd.Flags().GetString("admin")
		name, _ := cmd.Flags().GetString("workspace")
		err := Seed(cmd.Context(), admin, name)
		StopApp()
		return err
	},
}

func init() {
	seedCmd.Flags().String("admin", "", "user that receives the global admin role")
	seedCmd.Flags().String("workspace", "Default Workspace", "name of the default workspace")
	rootCmd.AddCommand(seedCmd)
}

// Seed makes sure an administrator and a default workspace exist. It is safe
// to run repeatedly.
func Seed(ctx context.Context, admin, workspaceName string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if admin == "" && len(coreconfig.Global.App.BasicAuth) > 0 {
		admin = strings.SplitN(coreconfig.Global.App.BasicAuth[0], ":", 2)[0]
	}
	if admin == "" {
		return fmt.Errorf("no admin user: pass --admin or set APP_BASIC_AUTH")
	}

	logrus.Infof("[SEED] Granting %s the admin role...", admin)
	if err := wkUsecase.AssignRole(ctx, admin, access.RoleAdmin); err != nil {
		return fmt.Errorf("failed to assign admin role: %w", err)
	}

	page, err := wkUsecase.ListWorkspaces(ctx, admin, workspace.ListQuery{Page: 1, PageSize: 1})
	if err != nil {
		return fmt.Errorf("failed to list workspaces: %w", err)
	}
	if page.Total > 0 {
		logrus.Infof("[SEED] %d workspaces found, nothing to create", page.Total)
		return nil
	}

	logrus.Infof("[SEED] No workspaces found. Creating %q...", workspaceName)
	ws, err := wkUsecase.CreateWorkspace(ctx, admin, validations.CreateWorkspaceRequest{Name: workspaceName, IsDefault: true})
	if err != nil {
		return fmt.Errorf("failed to create default workspace: %w", err)
	}
	logrus.Infof("[SEED] Created workspace %s", ws.ID)
	return nil
}
