package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	coreconfig "github.com/AzielCF/az-console/core/config"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
	"github.com/AzielCF/az-console/workspace/paginator"
	"github.com/AzielCF/az-console/workspace/screen"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "Show the workspace list of a running console",
	Long:  `Fetches one page of workspaces from a running console server and prints it the way the console renders it.`,
	RunE:  runWorkspaces,
}

func init() {
	workspacesCmd.Flags().Int("page", 1, "page to show")
	workspacesCmd.Flags().Int("page-size", 0, "workspaces per page (server default when 0)")
	workspacesCmd.Flags().String("sort", workspace.DefaultSort, "sort value: "+strings.Join(workspace.SortValues, ", "))
	workspacesCmd.Flags().String("server", "", "console base url (defaults to CLIENT_BASE_URL)")
	workspacesCmd.Flags().StringP("user", "u", "", "basic auth user:secret (defaults to CLIENT_USER/CLIENT_PASSWORD)")
	rootCmd.AddCommand(workspacesCmd)
}

func runWorkspaces(cmd *cobra.Command, _ []string) error {
	clientCfg := coreconfig.Global.Client
	if v, _ := cmd.Flags().GetString("server"); v != "" {
		clientCfg.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("user"); v != "" {
		parts := strings.SplitN(v, ":", 2)
		clientCfg.Username = parts[0]
		clientCfg.Password = ""
		if len(parts) == 2 {
			clientCfg.Password = parts[1]
		}
	}

	client := paginator.NewClient(paginator.Config{
		BaseURL:  clientCfg.BaseURL,
		Username: clientCfg.Username,
		Password: clientCfg.Password,
		Timeout:  clientCfg.Timeout,
	})

	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	sortValue, _ := cmd.Flags().GetString("sort")

	scr := screen.New(screen.Config{
		Caller:      clientCfg.Username,
		Source:      client,
		Permissions: client,
		Roles:       client,
		Flags:       client,
		Tracker:     client,
		PageSize:    pageSize,
	})

	ctx := cmd.Context()
	var view workspace.ListView
	if cmd.Flags().Changed("sort") {
		view = scr.OnSort(ctx, sortValue)
		if page > 1 {
			view = scr.OnPageChange(ctx, page)
		}
	} else {
		view = scr.OnPageChange(ctx, page)
	}

	printView(os.Stdout, view)
	if view.State == workspace.StateErrorBanner {
		return fmt.Errorf("%s", view.Banner)
	}
	return nil
}

func printView(out io.Writer, view workspace.ListView) {
	switch view.State {
	case workspace.StateForbidden, workspace.StateEmpty:
		fmt.Fprintln(out, view.Message)
		return
	case workspace.StateErrorBanner:
		fmt.Fprintln(out, "Error:", view.Banner)
		return
	case workspace.StateLoading:
		fmt.Fprintln(out, "Loading...")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAPPS\tUSERS\tRECENT APPS\tACCESS\tLAST MODIFIED")
	for _, card := range view.Workspaces {
		name := card.Name
		if card.IsDefault {
			name += " (default)"
		}
		apps := make([]string, 0, len(card.Apps))
		for _, app := range card.Apps {
			apps = append(apps, app.Name)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			name, card.TotalApps, card.WorkspaceUsersCount,
			strings.Join(apps, ", "), grants(card.WorkspacePermissions), card.LastModifiedDescription)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nPage %d, %s workspaces, sorted by %s\n", view.Page, humanize.Comma(view.Total), view.Sort)
}

func grants(perms map[string]bool) string {
	var out []string
	for g, ok := range perms {
		if ok {
			out = append(out, g)
		}
	}
	if len(out) == 0 {
		return "-"
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
