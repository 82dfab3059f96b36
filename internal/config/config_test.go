package config

import "testing"

func TestLoad_RequiresBackendURL(t *testing.T) {
	t.Setenv("MB_BACKEND_BASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without backend URL")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MB_BACKEND_BASE_URL", "https://advice.example.com")
	t.Setenv("MB_SERVER_PORT", "5123")
	t.Setenv("MB_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.BaseURL != "https://advice.example.com" {
		t.Errorf("backend URL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Server.Port != 5123 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoad_BadIntFallsBackToDefault(t *testing.T) {
	t.Setenv("MB_BACKEND_BASE_URL", "https://advice.example.com")
	t.Setenv("MB_SERVER_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestWarehouseEnabled(t *testing.T) {
	var cfg Config
	if cfg.WarehouseEnabled() {
		t.Error("empty warehouse config reported enabled")
	}
	cfg.Warehouse = WarehouseConfig{
		WorkspaceURL: "https://dbc.example.com",
		WarehouseID:  "wh1",
		Token:        "tok",
	}
	if !cfg.WarehouseEnabled() {
		t.Error("full warehouse config reported disabled")
	}
}
