package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/fadepin/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("fadepin-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %s", cfg.Storage.Driver)
	}
	if cfg.Storage.SlotKey != "geo_markers_v1" {
		t.Errorf("expected geo_markers_v1, got %s", cfg.Storage.SlotKey)
	}
	if cfg.Lifecycle.TTL != 30*time.Minute {
		t.Errorf("expected 30m ttl, got %s", cfg.Lifecycle.TTL)
	}
	if cfg.Lifecycle.FadeDuration != 800*time.Millisecond {
		t.Errorf("expected 800ms fade, got %s", cfg.Lifecycle.FadeDuration)
	}
	if cfg.Visibility.RadiusKm != 5 {
		t.Errorf("expected 5 km radius, got %g", cfg.Visibility.RadiusKm)
	}
	if cfg.Telemetry.ServiceName != "fadepin-test" {
		t.Errorf("expected service name fadepin-test, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FADEPIN_STORAGE_DRIVER", "memory")
	t.Setenv("FADEPIN_LIFECYCLE_TTL", "10m")
	t.Setenv("FADEPIN_VISIBILITY_RADIUS_KM", "2.5")

	cfg, err := config.Load("fadepin-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("expected memory, got %s", cfg.Storage.Driver)
	}
	if cfg.Lifecycle.TTL != 10*time.Minute {
		t.Errorf("expected 10m, got %s", cfg.Lifecycle.TTL)
	}
	if cfg.Visibility.RadiusKm != 2.5 {
		t.Errorf("expected 2.5, got %g", cfg.Visibility.RadiusKm)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("FADEPIN_STORAGE_CODEC", "xml")

	_, err := config.Load("fadepin-test")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "storage.codec") {
		t.Errorf("expected storage.codec in error, got %v", err)
	}
}

func validConfig() config.Config {
	return config.Config{
		Server:     config.ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Storage:    config.StorageConfig{Driver: "memory", Codec: "json", SlotKey: "geo_markers_v1", Notifier: "none"},
		Lifecycle:  config.LifecycleConfig{TTL: 30 * time.Minute, FadeLead: 5 * time.Second, FadeDuration: 800 * time.Millisecond, TickInterval: time.Second, GracePeriod: 2 * time.Second},
		Visibility: config.VisibilityConfig{RadiusKm: 5},
		Location:   config.LocationConfig{UseDefaultOrigin: true, DefaultLat: 50.4501, DefaultLng: 30.5234},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"valid", func(c *config.Config) {}, ""},
		{"bad port", func(c *config.Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown driver", func(c *config.Config) { c.Storage.Driver = "mongo" }, "storage.driver"},
		{"ttl below fade lead", func(c *config.Config) { c.Lifecycle.TTL = time.Second }, "lifecycle.ttl"},
		{"zero fade lead", func(c *config.Config) { c.Lifecycle.FadeLead = 0 }, "lifecycle.fade_lead"},
		{"zero radius", func(c *config.Config) { c.Visibility.RadiusKm = 0 }, "visibility.radius_km"},
		{"postgres without host", func(c *config.Config) { c.Storage.Driver = "postgres" }, "database.host"},
		{"nats without url", func(c *config.Config) { c.Storage.Notifier = "nats" }, "nats.url"},
		{"temporal without queue", func(c *config.Config) {
			c.Temporal = config.TemporalConfig{Enabled: true, HostPort: "localhost:7233"}
		}, "temporal.task_queue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "fadepin", SSLMode: "disable"}
	want := "postgres://u:p@db:5432/fadepin?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
