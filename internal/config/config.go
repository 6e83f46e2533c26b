package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Store         StoreConfig         `yaml:"store"`
	Firestore     FirestoreConfig     `yaml:"firestore"`
	Redis         RedisConfig         `yaml:"redis"`
	Search        SearchConfig        `yaml:"search"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxConcurrent   int           `yaml:"max_concurrent"`
}

const (
	DriverFirestore = "firestore"
	DriverMemory    = "memory"
)

// StoreConfig selects the document store backend. The memory driver serves a
// YAML fixture and exists for local runs and demos.
type StoreConfig struct {
	Driver      string `yaml:"driver"`
	FixturePath string `yaml:"fixture_path"`
}

type FirestoreConfig struct {
	ProjectID       string        `yaml:"project_id"`
	CredentialsFile string        `yaml:"credentials_file"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

type RedisConfig struct {
	Enabled      bool           `yaml:"enabled"`
	Addresses    []string       `yaml:"addresses"`
	Password     string         `yaml:"password"`
	DB           int            `yaml:"db"`
	PoolSize     int            `yaml:"pool_size"`
	MinIdleConns int            `yaml:"min_idle_conns"`
	DialTimeout  time.Duration  `yaml:"dial_timeout"`
	ReadTimeout  time.Duration  `yaml:"read_timeout"`
	WriteTimeout time.Duration  `yaml:"write_timeout"`
	TTL          CacheTTLConfig `yaml:"ttl"`
}

type CacheTTLConfig struct {
	ShopOwner     time.Duration `yaml:"shop_owner"`
	ShopOwnerMiss time.Duration `yaml:"shop_owner_miss"`
}

type SearchConfig struct {
	MaxResults     int                  `yaml:"max_results"`
	MaxQueryLength int                  `yaml:"max_query_length"`
	QueryTimeout   time.Duration        `yaml:"query_timeout"`
	CatalogPath    string               `yaml:"catalog_path"`
	WatchCatalog   bool                 `yaml:"watch_catalog"`
	Suggestions    []string             `yaml:"suggestions"`
	Sources        SourcesConfig        `yaml:"sources"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Retry          RetryConfig          `yaml:"retry"`
	SlowQuery      SlowQueryConfig      `yaml:"slow_query"`
}

type SourcesConfig struct {
	SpareParts      SourceConfig    `yaml:"spare_parts"`
	Services        SourceConfig    `yaml:"services"`
	Shops           SourceConfig    `yaml:"shops"`
	Brands          SourceConfig    `yaml:"brands"`
	BrandCategories SourceConfig    `yaml:"brand_categories"`
	Articles        SourceConfig    `yaml:"articles"`
	Inventory       InventoryConfig `yaml:"inventory"`
}

// SourceConfig describes one collection read. FetchLimit bounds how many
// documents come back from the store, so it also bounds recall. A zero
// ResultLimit keeps every match.
type SourceConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Collection  string            `yaml:"collection"`
	Filter      map[string]string `yaml:"filter"`
	FetchLimit  int               `yaml:"fetch_limit"`
	ResultLimit int               `yaml:"result_limit"`
}

// InventoryConfig reads <owner_collection>/<shopID>/<collection> once the
// signed-in user has been resolved to a shop they own.
type InventoryConfig struct {
	SourceConfig    `yaml:",inline"`
	OwnerCollection string   `yaml:"owner_collection"`
	OwnerField      string   `yaml:"owner_field"`
	StatusField     string   `yaml:"status_field"`
	OwnerStatuses   []string `yaml:"owner_statuses"`
}

type CircuitBreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

type SlowQueryConfig struct {
	WarningThreshold  time.Duration `yaml:"warning_threshold"`
	CriticalThreshold time.Duration `yaml:"critical_threshold"`
}

type ObservabilityConfig struct {
	LogLevel    string  `yaml:"log_level"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxConcurrent:   500,
		},
		Store: StoreConfig{
			Driver: DriverFirestore,
		},
		Firestore: FirestoreConfig{
			RequestTimeout: 2 * time.Second,
		},
		Redis: RedisConfig{
			Addresses:    []string{"localhost:6379"},
			PoolSize:     50,
			MinIdleConns: 5,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			TTL: CacheTTLConfig{
				ShopOwner:     10 * time.Minute,
				ShopOwnerMiss: 1 * time.Minute,
			},
		},
		Search: SearchConfig{
			MaxResults:     20,
			MaxQueryLength: 100,
			QueryTimeout:   3 * time.Second,
			Suggestions: []string{
				"iPhone screen repair",
				"Samsung battery",
				"Laptop keyboard",
				"Charging port",
				"Water damage",
			},
			Sources: SourcesConfig{
				SpareParts: SourceConfig{
					Enabled:     true,
					Collection:  "spareParts",
					FetchLimit:  50,
					ResultLimit: 10,
				},
				Services: SourceConfig{
					Enabled:     true,
					Collection:  "services",
					Filter:      map[string]string{"status": "active"},
					FetchLimit:  30,
					ResultLimit: 8,
				},
				Shops: SourceConfig{
					Enabled:    true,
					Collection: "shops",
					Filter:     map[string]string{"status": "approved"},
					FetchLimit: 10,
				},
				Brands: SourceConfig{
					Enabled:     true,
					Collection:  "brandPages",
					FetchLimit:  30,
					ResultLimit: 15,
				},
				BrandCategories: SourceConfig{
					Enabled:     true,
					Collection:  "brandPages",
					FetchLimit:  30,
					ResultLimit: 10,
				},
				Articles: SourceConfig{
					Enabled:     true,
					Collection:  "modelPages",
					FetchLimit:  50,
					ResultLimit: 15,
				},
				Inventory: InventoryConfig{
					SourceConfig: SourceConfig{
						Enabled:    true,
						Collection: "inventory",
						FetchLimit: 50,
					},
					OwnerCollection: "shops",
					OwnerField:      "ownerId",
					StatusField:     "status",
					OwnerStatuses:   []string{"approved", "pending"},
				},
			},
			CircuitBreaker: CircuitBreakerConfig{
				MaxRequests:      5,
				Interval:         30 * time.Second,
				Timeout:          15 * time.Second,
				FailureThreshold: 5,
			},
			Retry: RetryConfig{
				MaxAttempts: 2,
				InitialWait: 50 * time.Millisecond,
				MaxWait:     300 * time.Millisecond,
				Multiplier:  2.0,
			},
			SlowQuery: SlowQueryConfig{
				WarningThreshold:  400 * time.Millisecond,
				CriticalThreshold: 1500 * time.Millisecond,
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			ServiceName: "repair-search",
			SampleRatio: 0.1,
		},
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Store.Driver {
	case DriverFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("firestore project_id required for the firestore driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Redis.Enabled && len(c.Redis.Addresses) == 0 {
		return fmt.Errorf("at least one redis address required when redis is enabled")
	}
	if c.Search.MaxResults <= 0 || c.Search.MaxResults > 100 {
		return fmt.Errorf("max results must be between 1 and 100")
	}
	if c.Search.MaxQueryLength <= 0 {
		return fmt.Errorf("max query length must be positive")
	}
	if c.Search.QueryTimeout <= 0 {
		return fmt.Errorf("query timeout must be positive")
	}
	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return fmt.Errorf("sample ratio must be between 0 and 1")
	}
	for name, src := range c.Search.Sources.All() {
		if err := src.validate(); err != nil {
			return fmt.Errorf("source %s: %w", name, err)
		}
	}
	inv := c.Search.Sources.Inventory
	if inv.Enabled && (inv.OwnerCollection == "" || inv.OwnerField == "") {
		return fmt.Errorf("source inventory: owner_collection and owner_field required")
	}
	return nil
}

// All returns every source keyed by its config name.
func (s SourcesConfig) All() map[string]SourceConfig {
	return map[string]SourceConfig{
		"spare_parts":      s.SpareParts,
		"services":         s.Services,
		"shops":            s.Shops,
		"brands":           s.Brands,
		"brand_categories": s.BrandCategories,
		"articles":         s.Articles,
		"inventory":        s.Inventory.SourceConfig,
	}
}

func (s SourceConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if s.Collection == "" {
		return fmt.Errorf("collection required")
	}
	if s.FetchLimit <= 0 {
		return fmt.Errorf("fetch limit must be positive")
	}
	if s.ResultLimit < 0 {
		return fmt.Errorf("result limit must not be negative")
	}
	return nil
}
