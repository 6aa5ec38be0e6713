package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Lifecycle  LifecycleConfig  `mapstructure:"lifecycle"`
	Visibility VisibilityConfig `mapstructure:"visibility"`
	Location   LocationConfig   `mapstructure:"location"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// StorageConfig selects the durable slot backend and its encoding.
type StorageConfig struct {
	Driver     string `mapstructure:"driver"` // sqlite, valkey, postgres, memory
	Codec      string `mapstructure:"codec"`  // json, cbor
	SlotKey    string `mapstructure:"slot_key"`
	SQLitePath string `mapstructure:"sqlite_path"`
	Notifier   string `mapstructure:"notifier"` // nats, memory, none
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

// LifecycleConfig holds marker timing.
type LifecycleConfig struct {
	TTL          time.Duration `mapstructure:"ttl"`
	FadeLead     time.Duration `mapstructure:"fade_lead"`
	FadeDuration time.Duration `mapstructure:"fade_duration"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	GracePeriod  time.Duration `mapstructure:"grace_period"`
}

type VisibilityConfig struct {
	RadiusKm float64 `mapstructure:"radius_km"`
}

// LocationConfig sets the origin used before the first position fix.
type LocationConfig struct {
	UseDefaultOrigin bool    `mapstructure:"use_default_origin"`
	DefaultLat       float64 `mapstructure:"default_lat"`
	DefaultLng       float64 `mapstructure:"default_lng"`
}

type TemporalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	storageDrivers = []string{"sqlite", "valkey", "postgres", "memory"}
	slotCodecs     = []string{"json", "cbor"}
	notifiers      = []string{"nats", "memory", "none"}
)

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: FADEPIN_STORAGE_DRIVER → storage.driver
	v.SetEnvPrefix("FADEPIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.codec", "json")
	v.SetDefault("storage.slot_key", "geo_markers_v1")
	v.SetDefault("storage.sqlite_path", "fadepin.db")
	v.SetDefault("storage.notifier", "none")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "fadepin")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "fadepin")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")

	v.SetDefault("lifecycle.ttl", 30*time.Minute)
	v.SetDefault("lifecycle.fade_lead", 5*time.Second)
	v.SetDefault("lifecycle.fade_duration", 800*time.Millisecond)
	v.SetDefault("lifecycle.tick_interval", time.Second)
	v.SetDefault("lifecycle.grace_period", 2*time.Second)

	v.SetDefault("visibility.radius_km", 5.0)

	v.SetDefault("location.use_default_origin", true)
	v.SetDefault("location.default_lat", 50.4501)
	v.SetDefault("location.default_lng", 30.5234)

	v.SetDefault("temporal.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "fadepin-expiry")

	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	if !oneOf(c.Storage.Driver, storageDrivers) {
		errs = append(errs, fmt.Sprintf("storage.driver must be one of %s, got %q", strings.Join(storageDrivers, ", "), c.Storage.Driver))
	}
	if !oneOf(c.Storage.Codec, slotCodecs) {
		errs = append(errs, fmt.Sprintf("storage.codec must be one of %s, got %q", strings.Join(slotCodecs, ", "), c.Storage.Codec))
	}
	if !oneOf(c.Storage.Notifier, notifiers) {
		errs = append(errs, fmt.Sprintf("storage.notifier must be one of %s, got %q", strings.Join(notifiers, ", "), c.Storage.Notifier))
	}
	if c.Storage.SlotKey == "" {
		errs = append(errs, "storage.slot_key is required")
	}

	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			errs = append(errs, "storage.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	case "valkey":
		if c.Valkey.Addr == "" {
			errs = append(errs, "valkey.addr is required")
		}
	}
	if c.Storage.Notifier == "nats" && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}

	l := c.Lifecycle
	if l.FadeLead <= 0 {
		errs = append(errs, "lifecycle.fade_lead must be positive")
	}
	if l.TTL <= l.FadeLead {
		errs = append(errs, fmt.Sprintf("lifecycle.ttl (%s) must exceed lifecycle.fade_lead (%s)", l.TTL, l.FadeLead))
	}
	if l.FadeDuration < 0 {
		errs = append(errs, "lifecycle.fade_duration must not be negative")
	}
	if l.TickInterval <= 0 {
		errs = append(errs, "lifecycle.tick_interval must be positive")
	}
	if l.GracePeriod < 0 {
		errs = append(errs, "lifecycle.grace_period must not be negative")
	}

	if c.Visibility.RadiusKm <= 0 {
		errs = append(errs, fmt.Sprintf("visibility.radius_km must be positive, got %g", c.Visibility.RadiusKm))
	}
	if c.Location.DefaultLat < -90 || c.Location.DefaultLat > 90 {
		errs = append(errs, "location.default_lat must be within [-90, 90]")
	}
	if c.Location.DefaultLng < -180 || c.Location.DefaultLng > 180 {
		errs = append(errs, "location.default_lng must be within [-180, 180]")
	}

	if c.Temporal.Enabled {
		if c.Temporal.HostPort == "" {
			errs = append(errs, "temporal.host_port is required when temporal is enabled")
		}
		if c.Temporal.TaskQueue == "" {
			errs = append(errs, "temporal.task_queue is required when temporal is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
