package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "TRENDLENS"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	ViewTimeout     time.Duration `yaml:"view_timeout" envconfig:"VIEW_TIMEOUT" default:"20s"`
}

// SecurityConfig contains CORS and rate limiting configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/trendlens.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// AnalysisConfig holds the knobs of the view pipeline.
// Seed fixes k-means initialisation so repeated runs agree.
type AnalysisConfig struct {
	DefaultK       int   `yaml:"default_k" envconfig:"DEFAULT_K" default:"4"`
	MinK           int   `yaml:"min_k" envconfig:"MIN_K" default:"2"`
	MaxK           int   `yaml:"max_k" envconfig:"MAX_K" default:"10"`
	Seed           int64 `yaml:"seed" envconfig:"SEED" default:"42"`
	MaxIterations  int   `yaml:"max_iterations" envconfig:"MAX_ITERATIONS" default:"300"`
	Restarts       int   `yaml:"restarts" envconfig:"RESTARTS" default:"10"`
	PreviewRows    int   `yaml:"preview_rows" envconfig:"PREVIEW_ROWS" default:"5"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
}

// StoreConfig bounds the in-memory dataset store
type StoreConfig struct {
	TTL         time.Duration `yaml:"ttl" envconfig:"TTL" default:"1h"`
	MaxDatasets int           `yaml:"max_datasets" envconfig:"MAX_DATASETS" default:"64"`
}

// TelemetryConfig selects OpenTelemetry exporters
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1"`
}

// Load loads configuration from environment variables and config file.
// Precedence: explicitly set environment variables, then the YAML file,
// then the struct defaults.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, switches, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, *switches, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// fileSwitches holds the boolean settings of a config file. A nil field
// means the key is absent, so an explicit false can override a true default.
type fileSwitches struct {
	Security struct {
		EnableCORS *bool `yaml:"enable_cors"`
		RateLimit  struct {
			Enabled *bool `yaml:"enabled"`
		} `yaml:"rate_limit"`
	} `yaml:"security"`
	Logging struct {
		Development *bool `yaml:"development"`
	} `yaml:"logging"`
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, *fileSwitches, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, err
	}
	var switches fileSwitches
	if err := yaml.Unmarshal(data, &switches); err != nil {
		return nil, nil, err
	}

	return &cfg, &switches, nil
}

// pick returns the file value unless the variable is set in the
// environment or the file left the field empty.
func pick[T comparable](key string, envVal, fileVal T) T {
	var zero T
	if _, ok := os.LookupEnv(EnvPrefix + "_" + key); ok || fileVal == zero {
		return envVal
	}
	return fileVal
}

// pickBool returns the file value when the file sets the key and the
// environment does not.
func pickBool(key string, envVal bool, fileVal *bool) bool {
	if _, ok := os.LookupEnv(EnvPrefix + "_" + key); ok || fileVal == nil {
		return envVal
	}
	return *fileVal
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(file Config, switches fileSwitches, env Config) Config {
	out := env

	out.Server.Port = pick("SERVER_PORT", env.Server.Port, file.Server.Port)
	out.Server.ReadTimeout = pick("SERVER_READ_TIMEOUT", env.Server.ReadTimeout, file.Server.ReadTimeout)
	out.Server.WriteTimeout = pick("SERVER_WRITE_TIMEOUT", env.Server.WriteTimeout, file.Server.WriteTimeout)
	out.Server.IdleTimeout = pick("SERVER_IDLE_TIMEOUT", env.Server.IdleTimeout, file.Server.IdleTimeout)
	out.Server.MaxHeaderBytes = pick("SERVER_MAX_HEADER_BYTES", env.Server.MaxHeaderBytes, file.Server.MaxHeaderBytes)
	out.Server.ShutdownTimeout = pick("SERVER_SHUTDOWN_TIMEOUT", env.Server.ShutdownTimeout, file.Server.ShutdownTimeout)
	out.Server.ViewTimeout = pick("SERVER_VIEW_TIMEOUT", env.Server.ViewTimeout, file.Server.ViewTimeout)

	if _, ok := os.LookupEnv(EnvPrefix + "_SECURITY_ALLOWED_ORIGINS"); !ok && len(file.Security.AllowedOrigins) > 0 {
		out.Security.AllowedOrigins = file.Security.AllowedOrigins
	}
	out.Security.EnableCORS = pickBool("SECURITY_ENABLE_CORS", env.Security.EnableCORS, switches.Security.EnableCORS)
	out.Security.RateLimit.Enabled = pickBool("SECURITY_RATE_LIMIT_ENABLED", env.Security.RateLimit.Enabled, switches.Security.RateLimit.Enabled)
	out.Security.RateLimit.RPS = pick("SECURITY_RATE_LIMIT_RPS", env.Security.RateLimit.RPS, file.Security.RateLimit.RPS)
	out.Security.RateLimit.Burst = pick("SECURITY_RATE_LIMIT_BURST", env.Security.RateLimit.Burst, file.Security.RateLimit.Burst)

	out.Logging.Level = pick("LOGGING_LEVEL", env.Logging.Level, file.Logging.Level)
	out.Logging.Format = pick("LOGGING_FORMAT", env.Logging.Format, file.Logging.Format)
	out.Logging.Output = pick("LOGGING_OUTPUT", env.Logging.Output, file.Logging.Output)
	out.Logging.FilePath = pick("LOGGING_FILE_PATH", env.Logging.FilePath, file.Logging.FilePath)
	out.Logging.Development = pickBool("LOGGING_DEVELOPMENT", env.Logging.Development, switches.Logging.Development)

	out.Analysis.DefaultK = pick("ANALYSIS_DEFAULT_K", env.Analysis.DefaultK, file.Analysis.DefaultK)
	out.Analysis.MinK = pick("ANALYSIS_MIN_K", env.Analysis.MinK, file.Analysis.MinK)
	out.Analysis.MaxK = pick("ANALYSIS_MAX_K", env.Analysis.MaxK, file.Analysis.MaxK)
	out.Analysis.Seed = pick("ANALYSIS_SEED", env.Analysis.Seed, file.Analysis.Seed)
	out.Analysis.MaxIterations = pick("ANALYSIS_MAX_ITERATIONS", env.Analysis.MaxIterations, file.Analysis.MaxIterations)
	out.Analysis.Restarts = pick("ANALYSIS_RESTARTS", env.Analysis.Restarts, file.Analysis.Restarts)
	out.Analysis.PreviewRows = pick("ANALYSIS_PREVIEW_ROWS", env.Analysis.PreviewRows, file.Analysis.PreviewRows)
	out.Analysis.MaxUploadBytes = pick("ANALYSIS_MAX_UPLOAD_BYTES", env.Analysis.MaxUploadBytes, file.Analysis.MaxUploadBytes)

	out.Store.TTL = pick("STORE_TTL", env.Store.TTL, file.Store.TTL)
	out.Store.MaxDatasets = pick("STORE_MAX_DATASETS", env.Store.MaxDatasets, file.Store.MaxDatasets)

	out.Telemetry.Environment = pick("TELEMETRY_ENVIRONMENT", env.Telemetry.Environment, file.Telemetry.Environment)
	out.Telemetry.TraceExporter = pick("TELEMETRY_TRACE_EXPORTER", env.Telemetry.TraceExporter, file.Telemetry.TraceExporter)
	out.Telemetry.MetricExporter = pick("TELEMETRY_METRIC_EXPORTER", env.Telemetry.MetricExporter, file.Telemetry.MetricExporter)
	out.Telemetry.SampleRatio = pick("TELEMETRY_SAMPLE_RATIO", env.Telemetry.SampleRatio, file.Telemetry.SampleRatio)

	return out
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Analysis.MinK < 1 {
		return fmt.Errorf("analysis min_k must be at least 1, got %d", c.Analysis.MinK)
	}
	if c.Analysis.MaxK < c.Analysis.MinK {
		return fmt.Errorf("analysis max_k %d is below min_k %d", c.Analysis.MaxK, c.Analysis.MinK)
	}
	if c.Analysis.DefaultK < c.Analysis.MinK || c.Analysis.DefaultK > c.Analysis.MaxK {
		return fmt.Errorf("analysis default_k %d outside [%d, %d]", c.Analysis.DefaultK, c.Analysis.MinK, c.Analysis.MaxK)
	}
	if c.Analysis.Restarts < 1 || c.Analysis.MaxIterations < 1 {
		return fmt.Errorf("analysis restarts and max_iterations must be positive")
	}
	if c.Analysis.MaxUploadBytes <= 0 {
		return fmt.Errorf("analysis max_upload_bytes must be positive")
	}

	if c.Store.MaxDatasets < 1 {
		return fmt.Errorf("store max_datasets must be positive")
	}

	// Always JSON, the log pipeline parses it
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		c.Logging.Output = "stdout"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/trendlens.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			ViewTimeout:     20 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   25,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/trendlens.log",
		},
		Analysis: AnalysisConfig{
			DefaultK:       4,
			MinK:           2,
			MaxK:           10,
			Seed:           42,
			MaxIterations:  300,
			Restarts:       10,
			PreviewRows:    5,
			MaxUploadBytes: 10 << 20,
		},
		Store: StoreConfig{
			TTL:         time.Hour,
			MaxDatasets: 64,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1,
		},
	}
}
