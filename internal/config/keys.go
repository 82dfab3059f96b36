package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key    string
	typ    keyType
	env    string
	secret bool
	apply  func(cfg *Config, v any)
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "MB_SERVER_PORT",
		apply: func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
	},
	{
		key: "backend.base_url", typ: kString, env: "MB_BACKEND_BASE_URL",
		apply: func(cfg *Config, v any) { cfg.Backend.BaseURL = v.(string) },
	},
	{
		key: "warehouse.workspace_url", typ: kString, env: "MB_WAREHOUSE_WORKSPACE_URL",
		apply: func(cfg *Config, v any) { cfg.Warehouse.WorkspaceURL = v.(string) },
	},
	{
		key: "warehouse.warehouse_id", typ: kString, env: "MB_WAREHOUSE_ID",
		apply: func(cfg *Config, v any) { cfg.Warehouse.WarehouseID = v.(string) },
	},
	{
		key: "warehouse.token", typ: kString, env: "MB_WAREHOUSE_TOKEN",
		secret: true,
		apply:  func(cfg *Config, v any) { cfg.Warehouse.Token = v.(string) },
	},
	{
		key: "warehouse.table_path", typ: kString, env: "MB_WAREHOUSE_TABLE_PATH",
		apply: func(cfg *Config, v any) { cfg.Warehouse.TablePath = v.(string) },
	},
	{
		key: "dataset.csv_path", typ: kString, env: "MB_DATASET_CSV_PATH",
		apply: func(cfg *Config, v any) { cfg.Dataset.CSVPath = v.(string) },
	},
	{
		key: "storage.data_dir", typ: kString, env: "MB_STORAGE_DATA_DIR",
		apply: func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
	},
	{
		key: "insights.kg_rules_path", typ: kString, env: "MB_INSIGHTS_KG_RULES_PATH",
		apply: func(cfg *Config, v any) { cfg.Insights.KGRulesPath = v.(string) },
	},
	{
		key: "api.token", typ: kString, env: "MB_API_TOKEN",
		secret: true,
		apply:  func(cfg *Config, v any) { cfg.API.Token = v.(string) },
	},
	{
		key: "log.level", typ: kString, env: "MB_LOG_LEVEL",
		apply: func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
	},
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
