package cmd

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/AzielCF/az-console/analytics"
	coreconfig "github.com/AzielCF/az-console/core/config"
	coreDB "github.com/AzielCF/az-console/core/database"
	settingsApp "github.com/AzielCF/az-console/core/settings/application"
	domainHealth "github.com/AzielCF/az-console/domains/health"
	domainService "github.com/AzielCF/az-console/domains/service"
	"github.com/AzielCF/az-console/featureflag"
	"github.com/AzielCF/az-console/infrastructure/valkey"
	"github.com/AzielCF/az-console/pkg/eventworker"
	"github.com/AzielCF/az-console/pkg/utils"
	"github.com/AzielCF/az-console/services"
	"github.com/AzielCF/az-console/usecase"
	"github.com/AzielCF/az-console/workspace/repository"
	workspaceUsecase "github.com/AzielCF/az-console/workspace/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

var (
	db       *gorm.DB
	vkClient *valkey.Client
	serverID string

	settingsSvc    *settingsApp.SettingsService
	featureSvc     *featureflag.Service
	accessRepo     repository.IAccessRepository
	wkRepo         repository.IWorkspaceRepository
	wkUsecase      *workspaceUsecase.WorkspaceUsecase
	loggingUsecase domainService.ILoggingUsecase
	healthUsecase  domainHealth.IHealthUsecase

	eventStore *analytics.GormTracker
	tracker    analytics.Tracker
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "az-console",
	Short: "Workspace console server",
	Long:  `Serves the workspace list and service settings of the console over REST, websocket and MCP.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig)
}

func initFlags() {
	rootCmd.PersistentFlags().StringP("port", "p", "", "change port number with --port <number> | example: --port=8080")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "hide or displaying log with --debug <true/false> | example: --debug=true")
	rootCmd.PersistentFlags().String("base-path", "", `base path for subpath deployment --base-path <string> | example: --base-path="/console"`)
	rootCmd.PersistentFlags().Bool("wrbac-list", false, "default for the wrbac/workspace-list flag when the settings store has no value")

	_ = viper.BindPFlag("app_port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("app_debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("app_base_path", rootCmd.PersistentFlags().Lookup("base-path"))
	_ = viper.BindPFlag("feature_wrbac_list", rootCmd.PersistentFlags().Lookup("wrbac-list"))
}

// initEnvConfig loads configuration from environment variables, then lets
// explicit flags win.
func initEnvConfig() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("[CONFIG] Failed to load configuration: %v", err)
	}

	if v := viper.GetString("app_port"); v != "" {
		cfg.App.Port = v
	}
	if viper.GetBool("app_debug") {
		cfg.App.Debug = true
	}
	if v := viper.GetString("app_base_path"); v != "" {
		cfg.App.BasePath = v
	}
	if viper.IsSet("feature_wrbac_list") {
		cfg.Features.WRBACWorkspaceList = viper.GetBool("feature_wrbac_list")
	}

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

// initApp opens storage and wires every usecase. Only server commands call it.
func initApp(_ *cobra.Command, _ []string) {
	cfg := coreconfig.Global
	ctx := context.Background()

	if err := utils.CreateFolder(cfg.Paths.Storages); err != nil {
		logrus.Errorln(err)
	}
	serverID = utils.GetPersistentServerID(cfg.App.ServerID, cfg.Paths.Storages)

	var err error
	db, err = coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[APP] %v", err)
	}

	if cfg.Database.ValkeyEnabled {
		vkClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.WithError(err).Warn("[APP] Valkey unavailable, falling back to in-memory cache")
			vkClient = nil
		}
	}

	// 1. Settings and feature flags
	settingsSvc = settingsApp.NewSettingsService(db)
	if err := settingsSvc.Init(ctx); err != nil {
		logrus.Fatalf("[APP] Failed to init settings: %v", err)
	}
	featureSvc = featureflag.NewService(settingsSvc, map[string]bool{
		featureflag.Name(featureflag.FlagWRBAC, featureflag.PartWorkspaceList): cfg.Features.WRBACWorkspaceList,
	})

	// 2. Workspace collection
	wkGorm := repository.NewWorkspaceGormRepository(db)
	if err := wkGorm.Init(ctx); err != nil {
		logrus.Fatalf("[APP] Failed to init workspace repo: %v", err)
	}
	accGorm := repository.NewAccessGormRepository(db)
	if err := accGorm.Init(ctx); err != nil {
		logrus.Fatalf("[APP] Failed to init access repo: %v", err)
	}
	wkRepo, accessRepo = wkGorm, accGorm

	var pageCache repository.PageCache = repository.NewMemoryPageCache(cfg.Listing.CacheTTL)
	if vkClient != nil {
		pageCache = repository.NewValkeyPageCache(vkClient, cfg.Listing.CacheTTL)
	}
	wkUsecase = workspaceUsecase.NewWorkspaceUsecase(wkRepo, accessRepo, pageCache, cfg.Listing.RecentApps)

	// 3. Analytics
	eventStore = analytics.NewGormTracker(db, eventworker.GetGlobalPool())
	if err := eventStore.Init(ctx); err != nil {
		logrus.WithError(err).Error("[APP] Failed to init analytics storage, events are only logged")
		eventStore = nil
		tracker = analytics.LogTracker{}
	} else {
		tracker = analytics.MultiTracker{analytics.LogTracker{}, eventStore}
	}

	// 4. Service settings
	loggingUsecase = services.NewLoggingService(settingsSvc)

	// 5. Health
	healthUsecase = usecase.NewHealthService(healthProbes())
}

func healthProbes() map[domainHealth.EntityType]domainHealth.Probe {
	probes := map[domainHealth.EntityType]domainHealth.Probe{
		domainHealth.EntityDatabase: coreDB.Probe(db),
		domainHealth.EntityEventPool: func(context.Context) error {
			if len(eventworker.GetGlobalPool().GetStats().WorkerStats) == 0 {
				return errors.New("event pool has no running workers")
			}
			return nil
		},
	}
	if vkClient != nil {
		probes[domainHealth.EntityValkey] = vkClient.Ping
	}
	return probes
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of all database connections and services.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	// 1. Drain pending analytics writes before the database goes away
	eventworker.StopGlobalPool()

	// 2. Close Valkey
	if vkClient != nil {
		vkClient.Close()
	}

	// 3. Close the database
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
