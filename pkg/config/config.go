package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config holds all operational configuration
type Config struct {
	// Server configuration
	Port string
	Host string

	// Logging configuration
	LogLevel slog.Level

	// CORS configuration
	AllowedOrigins []string

	// Timeout configuration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	// Resource limits
	MaxHeaderBytes int
	MaxBodyBytes   int64

	// Database configuration
	DBPath         string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBCacheSize    int // In KB (will be converted to negative pages for SQLite)
	DBWalMode      bool
}

// fileConfig mirrors the YAML configuration file. Zero values leave defaults in place.
type fileConfig struct {
	Server struct {
		Port              string `yaml:"port"`
		Host              string `yaml:"host"`
		ReadTimeout       string `yaml:"read_timeout"`
		WriteTimeout      string `yaml:"write_timeout"`
		IdleTimeout       string `yaml:"idle_timeout"`
		ReadHeaderTimeout string `yaml:"read_header_timeout"`
		ShutdownTimeout   string `yaml:"shutdown_timeout"`
		MaxHeaderBytes    int    `yaml:"max_header_bytes"`
		MaxBodyBytes      int64  `yaml:"max_body_bytes"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	CORS struct {
		AllowedOrigins   []string `yaml:"allowed_origins"`
		AllowWildcardDev bool     `yaml:"allow_wildcard_dev"`
	} `yaml:"cors"`

	Database struct {
		Path         string `yaml:"path"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
		CacheSizeKB  int    `yaml:"cache_size_kb"`
		WalMode      *bool  `yaml:"wal_mode"`
	} `yaml:"database"`
}

// Default returns the built-in configuration. AllowedOrigins is empty on purpose:
// CORS must be configured explicitly before Validate passes.
func Default() *Config {
	return &Config{
		Port:              "8080",
		Host:              "",
		LogLevel:          slog.LevelInfo,
		AllowedOrigins:    []string{},
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxHeaderBytes:    1 << 20,
		MaxBodyBytes:      1 << 20,
		DBPath:            "data/todos.db",
		DBMaxOpenConns:    25,
		DBMaxIdleConns:    5,
		DBCacheSize:       64000,
		DBWalMode:         true,
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// (CONFIG_FILE when path is empty), and environment variables, in that order,
// then validates it.
func Load(path string) (*Config, error) {
	return load(path, true)
}

// LoadForStdio layers the same sources as Load but does not require CORS
// origins, since stdio mode serves no HTTP. The database settings match what
// Load would produce, so both modes open the same store.
func LoadForStdio(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, requireCORS bool) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open config file %s", path)
		}
		defer f.Close()

		if err := cfg.applyYAML(f); err != nil {
			return nil, errors.Wrapf(err, "invalid config file %s", path)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(requireCORS); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

// applyYAML overlays the non-zero settings found in r. Unknown keys are rejected.
func (c *Config) applyYAML(r io.Reader) error {
	var fc fileConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "failed to parse YAML")
	}

	if fc.Server.Port != "" {
		c.Port = fc.Server.Port
	}
	if fc.Server.Host != "" {
		c.Host = fc.Server.Host
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"server.read_timeout", fc.Server.ReadTimeout, &c.ReadTimeout},
		{"server.write_timeout", fc.Server.WriteTimeout, &c.WriteTimeout},
		{"server.idle_timeout", fc.Server.IdleTimeout, &c.IdleTimeout},
		{"server.read_header_timeout", fc.Server.ReadHeaderTimeout, &c.ReadHeaderTimeout},
		{"server.shutdown_timeout", fc.Server.ShutdownTimeout, &c.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", d.name)
		}
		*d.dst = parsed
	}

	if fc.Server.MaxHeaderBytes != 0 {
		c.MaxHeaderBytes = fc.Server.MaxHeaderBytes
	}
	if fc.Server.MaxBodyBytes != 0 {
		c.MaxBodyBytes = fc.Server.MaxBodyBytes
	}
	if fc.Log.Level != "" {
		c.LogLevel = parseLogLevel(fc.Log.Level)
	}
	if len(fc.CORS.AllowedOrigins) > 0 {
		c.AllowedOrigins = fc.CORS.AllowedOrigins
	} else if fc.CORS.AllowWildcardDev {
		c.AllowedOrigins = []string{"*"}
	}
	if fc.Database.Path != "" {
		c.DBPath = fc.Database.Path
	}
	if fc.Database.MaxOpenConns != 0 {
		c.DBMaxOpenConns = fc.Database.MaxOpenConns
	}
	if fc.Database.MaxIdleConns != 0 {
		c.DBMaxIdleConns = fc.Database.MaxIdleConns
	}
	if fc.Database.CacheSizeKB != 0 {
		c.DBCacheSize = fc.Database.CacheSizeKB
	}
	if fc.Database.WalMode != nil {
		c.DBWalMode = *fc.Database.WalMode
	}

	return nil
}

// applyEnv overlays environment variables. Unparseable values keep the current setting.
func (c *Config) applyEnv() {
	// Dev-only escape hatch: wildcard CORS only when explicitly enabled
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = parseAllowedOrigins(origins)
	} else if getEnv("ALLOW_CORS_WILDCARD_DEV", "") == "true" && len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}

	c.Port = getEnv("PORT", c.Port)
	c.Host = getEnv("HOST", c.Host)
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = parseLogLevel(level)
	}

	c.ReadTimeout = parseDuration(os.Getenv("READ_TIMEOUT"), c.ReadTimeout)
	c.WriteTimeout = parseDuration(os.Getenv("WRITE_TIMEOUT"), c.WriteTimeout)
	c.IdleTimeout = parseDuration(os.Getenv("IDLE_TIMEOUT"), c.IdleTimeout)
	c.ReadHeaderTimeout = parseDuration(os.Getenv("READ_HEADER_TIMEOUT"), c.ReadHeaderTimeout)
	c.ShutdownTimeout = parseDuration(os.Getenv("SHUTDOWN_TIMEOUT"), c.ShutdownTimeout)

	c.MaxHeaderBytes = parseInt(os.Getenv("MAX_HEADER_BYTES"), c.MaxHeaderBytes)
	c.MaxBodyBytes = int64(parseInt(os.Getenv("MAX_BODY_BYTES"), int(c.MaxBodyBytes)))

	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.DBMaxOpenConns = parseInt(os.Getenv("DB_MAX_OPEN_CONNS"), c.DBMaxOpenConns)
	c.DBMaxIdleConns = parseInt(os.Getenv("DB_MAX_IDLE_CONNS"), c.DBMaxIdleConns)
	c.DBCacheSize = parseInt(os.Getenv("DB_CACHE_SIZE_KB"), c.DBCacheSize)
	c.DBWalMode = parseBool(os.Getenv("DB_WAL_MODE"), c.DBWalMode)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	return c.validate(true)
}

func (c *Config) validate(requireCORS bool) error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return errors.Newf("invalid PORT '%s': must be a number", c.Port)
	}
	if port < 1 || port > 65535 {
		return errors.Newf("invalid PORT %d: must be between 1 and 65535", port)
	}

	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{"READ_TIMEOUT", c.ReadTimeout},
		{"WRITE_TIMEOUT", c.WriteTimeout},
		{"IDLE_TIMEOUT", c.IdleTimeout},
		{"READ_HEADER_TIMEOUT", c.ReadHeaderTimeout},
		{"SHUTDOWN_TIMEOUT", c.ShutdownTimeout},
	}
	for _, to := range timeouts {
		if to.value <= 0 {
			return errors.Newf("%s must be positive, got %v", to.name, to.value)
		}
	}

	if c.MaxHeaderBytes <= 0 {
		return errors.Newf("MAX_HEADER_BYTES must be positive, got %d", c.MaxHeaderBytes)
	}
	if c.MaxHeaderBytes > 10<<20 {
		return errors.Newf("MAX_HEADER_BYTES too large: %d (max 10MB)", c.MaxHeaderBytes)
	}
	if c.MaxBodyBytes <= 0 {
		return errors.Newf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if c.MaxBodyBytes > 10<<20 {
		return errors.Newf("MAX_BODY_BYTES too large: %d (max 10MB)", c.MaxBodyBytes)
	}

	if requireCORS && len(c.AllowedOrigins) == 0 {
		return errors.New("ALLOWED_ORIGINS is required. Set explicit origins (e.g., ALLOWED_ORIGINS=\"https://example.com\") or use ALLOW_CORS_WILDCARD_DEV=true for development ONLY")
	}

	if c.DBPath == "" {
		return errors.New("DB_PATH cannot be empty")
	}
	if c.DBMaxOpenConns <= 0 {
		return errors.Newf("DB_MAX_OPEN_CONNS must be positive, got %d", c.DBMaxOpenConns)
	}
	if c.DBMaxIdleConns <= 0 {
		return errors.Newf("DB_MAX_IDLE_CONNS must be positive, got %d", c.DBMaxIdleConns)
	}
	if c.DBMaxIdleConns > c.DBMaxOpenConns {
		return errors.Newf("DB_MAX_IDLE_CONNS (%d) cannot exceed DB_MAX_OPEN_CONNS (%d)", c.DBMaxIdleConns, c.DBMaxOpenConns)
	}
	if c.DBCacheSize <= 0 {
		return errors.Newf("DB_CACHE_SIZE_KB must be positive, got %d", c.DBCacheSize)
	}

	return nil
}

// HasWildcardOrigin reports whether any origin is allowed
func (c *Config) HasWildcardOrigin() bool {
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// String returns a string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port:%s, Host:%s, LogLevel:%s, AllowedOrigins:%v, "+
		"ReadTimeout:%v, WriteTimeout:%v, IdleTimeout:%v, ReadHeaderTimeout:%v, "+
		"ShutdownTimeout:%v, MaxHeaderBytes:%d, MaxBodyBytes:%d, DBPath:%s, DBMaxOpenConns:%d, "+
		"DBMaxIdleConns:%d, DBCacheSize:%dKB, DBWalMode:%v}",
		c.Port, c.Host, c.LogLevel, c.AllowedOrigins,
		c.ReadTimeout, c.WriteTimeout, c.IdleTimeout, c.ReadHeaderTimeout,
		c.ShutdownTimeout, c.MaxHeaderBytes, c.MaxBodyBytes, c.DBPath, c.DBMaxOpenConns,
		c.DBMaxIdleConns, c.DBCacheSize, c.DBWalMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// Invalid level defaults to info
		return slog.LevelInfo
	}
}

func parseAllowedOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return duration
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func parseBool(value string, fallback bool) bool {
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}
