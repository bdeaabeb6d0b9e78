package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	MCP        MCPConfig
	Paths      PathsConfig
	Database   DatabaseConfig
	WorkerPool WorkerPoolConfig
	Listing    ListingConfig
	Features   FeaturesConfig
	Client     ClientConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	BaseUrl            string
	CorsAllowedOrigins []string
	ServerID           string
}

type MCPConfig struct {
	Port string
	Host string
}

type PathsConfig struct {
	BaseDir  string
	Storages string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB Name for Postgres
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

// ListingConfig tunes the workspace collection served to the console.
type ListingConfig struct {
	DefaultPageSize int
	RecentApps      int
	CacheTTL        time.Duration
}

// FeaturesConfig holds flag defaults used when the settings store has no value.
type FeaturesConfig struct {
	WRBACWorkspaceList bool
}

// ClientConfig is used by CLI commands that talk to a running server.
type ClientConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Global provides access to the loaded configuration globally
var Global *Config

// LoadConfig loads configuration from Environment Variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	debug := false
	if v := os.Getenv("APP_DEBUG"); v == "true" || v == "1" || v == "on" {
		debug = true
	} else if v := os.Getenv("DEBUG"); v == "true" || v == "1" {
		debug = true
	}

	var basicAuth []string
	if v := os.Getenv("APP_BASIC_AUTH"); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("APP_CORS_ALLOWED_ORIGINS"); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v0.4.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:3000"),
		CorsAllowedOrigins: corsOrigins,
		ServerID:           getEnv("SERVER_ID", ""),
	}
	if v := os.Getenv("APP_TRUSTED_PROXIES"); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	pathsCfg := PathsConfig{
		BaseDir:  baseDir,
		Storages: baseDir,
	}

	dbDriver := getEnv("DB_DRIVER", "sqlite")
	dbName := filepath.Join(pathsCfg.Storages, "console.db")
	if dbDriver == "postgres" {
		dbName = getEnv("DB_NAME", "console")
	}
	dbCfg := DatabaseConfig{
		Driver:          dbDriver,
		Name:            dbName,
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "azc:"),
	}

	clientUser, clientPass := "", ""
	if len(basicAuth) > 0 {
		if parts := strings.SplitN(basicAuth[0], ":", 2); len(parts) == 2 {
			clientUser, clientPass = parts[0], parts[1]
		}
	}

	cfg := &Config{
		App:        appCfg,
		MCP:        MCPConfig{Port: getEnv("MCP_PORT", "8080"), Host: getEnv("MCP_HOST", "localhost")},
		Paths:      pathsCfg,
		Database:   dbCfg,
		WorkerPool: WorkerPoolConfig{Size: getEnvInt("EVENT_WORKER_POOL_SIZE", 4), QueueSize: getEnvInt("EVENT_WORKER_QUEUE_SIZE", 500)},
		Listing: ListingConfig{
			DefaultPageSize: getEnvInt("LISTING_PAGE_SIZE", 12),
			RecentApps:      getEnvInt("LISTING_RECENT_APPS", 5),
			CacheTTL:        time.Duration(getEnvInt("LISTING_CACHE_TTL_SECONDS", 30)) * time.Second,
		},
		Features: FeaturesConfig{
			WRBACWorkspaceList: getEnvBool("FEATURE_WRBAC_LIST", false),
		},
		Client: ClientConfig{
			BaseURL:  getEnv("CLIENT_BASE_URL", fmt.Sprintf("http://localhost:%s%s", appCfg.Port, appCfg.BasePath)),
			Username: getEnv("CLIENT_USER", clientUser),
			Password: getEnv("CLIENT_PASSWORD", clientPass),
			Timeout:  time.Duration(getEnvInt("CLIENT_TIMEOUT_SECONDS", 10)) * time.Second,
		},
	}

	Global = cfg
	return cfg, nil
}
