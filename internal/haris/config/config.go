package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// HTTPAddr is the host:port the JSON API listens on.
	HTTPAddr string `koanf:"http_addr" validate:"required,listen_addr"`

	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gte=1m"`
	RefreshCeiling  time.Duration `koanf:"refresh_ceiling" validate:"gte=1s"`

	// StartupTimeout bounds the first refresh before the API starts serving.
	StartupTimeout time.Duration `koanf:"startup_timeout" validate:"gte=0"`

	FetchTimeout     time.Duration     `koanf:"fetch_timeout" validate:"gte=1s"`
	FetchMaxSize     datasize.ByteSize `koanf:"fetch_max_size" validate:"gte=1024"`
	FetchConcurrency int               `koanf:"fetch_concurrency" validate:"gte=1,lte=64"`
	UserAgent        string            `koanf:"user_agent" validate:"required"`

	// CacheSize is the match cache capacity; zero disables caching.
	CacheSize   int     `koanf:"cache_size" validate:"gte=0"`
	BloomFPRate float64 `koanf:"bloom_fp_rate" validate:"gt=0,lt=1"`

	// SnapshotDB is the bbolt file holding the last good snapshot; empty
	// disables persistence.
	SnapshotDB string `koanf:"snapshot_db"`

	// DatabasePath is the sqlite file holding account preferences.
	DatabasePath string `koanf:"database_path" validate:"required"`

	// RegistryFile optionally replaces the built-in category catalog.
	RegistryFile string `koanf:"registry_file"`
}

// DEFAULT_APP_CONFIG defines the defaults applied before environment overrides.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:              "prod",
	LogLevel:         "info",
	HTTPAddr:         ":8080",
	RefreshInterval:  6 * time.Hour,
	RefreshCeiling:   10 * time.Minute,
	StartupTimeout:   2 * time.Minute,
	FetchTimeout:     60 * time.Second,
	FetchMaxSize:     64 * datasize.MB,
	FetchConcurrency: 8,
	UserAgent:        "haris-blocklist/1.0",
	CacheSize:        10000,
	BloomFPRate:      0.01,
	SnapshotDB:       "/var/lib/haris/snapshot.db",
	DatabasePath:     "/var/lib/haris/haris.db",
}

// validListenAddr accepts "host:port" or ":port" with a port in 1..65535.
func validListenAddr(fl validator.FieldLevel) bool {
	_, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil || port == "" {
		return false
	}
	n, err := strconv.ParseUint(port, 10, 16)
	return err == nil && n > 0
}

// envLoader loads variables prefixed "HARIS_", lowercasing the remainder.
// It can be replaced in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "HARIS_",
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, "HARIS_")), strings.TrimSpace(value)
		},
	}), nil)
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("listen_addr", validListenAddr)
}

// Load applies defaults, then environment overrides, and validates the result.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
