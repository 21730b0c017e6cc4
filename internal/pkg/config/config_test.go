package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestLoadContext_Defaults(t *testing.T) {
	t.Setenv("DELHIVERY_API_TOKEN", "")
	for _, key := range []string{"ENV", "CARRIER_DEMO"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	cfg, err := LoadContext(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Delhivery.WaybillBatchSize != 10000 {
		t.Errorf("WaybillBatchSize = %d", cfg.Delhivery.WaybillBatchSize)
	}
	if cfg.Delhivery.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s", cfg.Delhivery.Timeout)
	}
	if cfg.Pickup.Time != "11:00:00" {
		t.Errorf("Pickup.Time = %q", cfg.Pickup.Time)
	}
	if cfg.Warehouse.Name != "Main Warehouse" {
		t.Errorf("Warehouse.Name = %q", cfg.Warehouse.Name)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q", cfg.Env)
	}
	if cfg.DemoCarrier() {
		t.Error("demo carrier replies must be off by default")
	}
}

func TestDemoCarrier(t *testing.T) {
	cases := []struct {
		env  string
		demo string
		want bool
	}{
		{"development", "true", true},
		{"development", "", false},
		{"", "true", false},
		{"production", "true", false},
	}
	for _, tc := range cases {
		t.Run(tc.env+"/"+tc.demo, func(t *testing.T) {
			t.Setenv("ENV", tc.env)
			t.Setenv("CARRIER_DEMO", tc.demo)
			if tc.env == "" {
				os.Unsetenv("ENV")
			}
			if tc.demo == "" {
				os.Unsetenv("CARRIER_DEMO")
			}
			cfg, err := LoadContext(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := cfg.DemoCarrier(); got != tc.want {
				t.Errorf("DemoCarrier() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLoadContext_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("WAYBILL_MIN_STOCK", "250")
	t.Setenv("DELHIVERY_WAYBILL_BATCH_DELAY", "500ms")

	cfg, err := LoadContext(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IsDevelopment() {
		t.Error("production must not be development")
	}
	if cfg.Waybill.MinStock != 250 {
		t.Errorf("MinStock = %d", cfg.Waybill.MinStock)
	}
	if cfg.Delhivery.WaybillBatchDelay != 500*time.Millisecond {
		t.Errorf("WaybillBatchDelay = %s", cfg.Delhivery.WaybillBatchDelay)
	}
}

func TestIsDevelopment(t *testing.T) {
	for env, want := range map[string]bool{"development": true, "DEV": true, "local": true, "staging": false, "": false} {
		c := &Config{Env: env}
		if got := c.IsDevelopment(); got != want {
			t.Errorf("IsDevelopment(%q) = %v", env, got)
		}
	}
}
