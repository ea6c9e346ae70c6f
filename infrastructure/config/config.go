package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	StoreBackendFile   = "file"
	StoreBackendSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// Storage configuration
	DataDir      string `yaml:"data_dir"`
	KnowledgeDir string `yaml:"knowledge_dir"` // defaults to <data_dir>/knowledge
	StoreBackend string `yaml:"store_backend"` // file | sqlite
	SQLitePath   string `yaml:"sqlite_path"`   // defaults to <data_dir>/famorg.db

	// Limits
	MaxImportBytes int64 `yaml:"max_import_bytes"`
	WriteRateLimit int   `yaml:"write_rate_limit"` // mutating requests per client per minute, 0 disables

	// Logging
	LogLevel string `yaml:"log_level"`

	// Tracing
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Feature flags
	EnableMetrics   bool `yaml:"enable_metrics"`
	EnableTracing   bool `yaml:"enable_tracing"`
	EnableCORS      bool `yaml:"enable_cors"`
	EnableTreeCache bool `yaml:"enable_tree_cache"`

	// ConfigFile is where the YAML layer was read from, if anywhere
	ConfigFile string `yaml:"-"`
}

// defaultConfig returns the in-code defaults
func defaultConfig() *Config {
	return &Config{
		ServerAddress:   ":8080",
		Environment:     "development",
		DataDir:         "data",
		StoreBackend:    StoreBackendFile,
		MaxImportBytes:  10 << 20,
		WriteRateLimit:  120,
		LogLevel:        "info",
		EnableMetrics:   true,
		EnableCORS:      true,
		EnableTreeCache: true,
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file named
// by CONFIG_FILE, then environment variables (highest priority).
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyDerivedDefaults()

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.KnowledgeDir = getEnv("KNOWLEDGE_DIR", c.KnowledgeDir)
	c.StoreBackend = getEnv("STORE_BACKEND", c.StoreBackend)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	c.MaxImportBytes = int64(getEnvInt("MAX_IMPORT_BYTES", int(c.MaxImportBytes)))
	c.WriteRateLimit = getEnvInt("WRITE_RATE_LIMIT", c.WriteRateLimit)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.OTLPEndpoint = getEnv("OTLP_ENDPOINT", c.OTLPEndpoint)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.EnableTreeCache = getEnvBool("ENABLE_TREE_CACHE", c.EnableTreeCache)
}

func (c *Config) applyDerivedDefaults() {
	if c.KnowledgeDir == "" {
		c.KnowledgeDir = filepath.Join(c.DataDir, "knowledge")
	}
	if c.SQLitePath == "" {
		c.SQLitePath = filepath.Join(c.DataDir, "famorg.db")
	}
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	switch c.StoreBackend {
	case StoreBackendFile:
	case StoreBackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want %q or %q)", c.StoreBackend, StoreBackendFile, StoreBackendSQLite)
	}
	if c.MaxImportBytes <= 0 {
		return fmt.Errorf("MAX_IMPORT_BYTES must be positive")
	}
	if c.WriteRateLimit < 0 {
		return fmt.Errorf("WRITE_RATE_LIMIT must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown LOG_LEVEL %q", c.LogLevel)
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
