// Package config holds runtime configuration: compiled-in defaults overridden
// by MB_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Warehouse WarehouseConfig
	Dataset   DatasetConfig
	Storage   StorageConfig
	Insights  InsightsConfig
	API       APIConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

// BackendConfig locates the remote advice/verification service.
type BackendConfig struct {
	BaseURL string
}

// WarehouseConfig holds the SQL warehouse connection used for the reference
// dataset. All three values empty means the warehouse source is disabled and
// the resolver serves the CSV fallback only.
type WarehouseConfig struct {
	WorkspaceURL string
	WarehouseID  string
	Token        string
	TablePath    string
}

type DatasetConfig struct {
	CSVPath string
}

type StorageConfig struct {
	DataDir string
}

type InsightsConfig struct {
	KGRulesPath string
}

// APIConfig configures the management API. An empty Token disables bearer
// auth.
type APIConfig struct {
	Token string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		Dataset: DatasetConfig{
			CSVPath: filepath.Join(dataDir, "students.csv"),
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Insights: InsightsConfig{
			KGRulesPath: filepath.Join(dataDir, "kg_rules.json"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "mentorbridge")
	}
	return "."
}

// Load builds the configuration from defaults and MB_* environment
// variables. The advice backend URL is the only required value.
func Load() (Config, error) {
	cfg := defaults()
	applyEnvOverrides(&cfg)

	if cfg.Backend.BaseURL == "" {
		return Config{}, fmt.Errorf("missing required config: advice backend URL. Set it via environment variable MB_BACKEND_BASE_URL")
	}
	return cfg, nil
}

// WarehouseEnabled reports whether the warehouse dataset source is
// configured.
func (c Config) WarehouseEnabled() bool {
	return c.Warehouse.WorkspaceURL != "" && c.Warehouse.WarehouseID != "" && c.Warehouse.Token != ""
}
