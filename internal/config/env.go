package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Pretty     bool   `yaml:"pretty"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool          `yaml:"send"`
	APIKey        string        `yaml:"api_key"`
	OrgID         string        `yaml:"org_id"`
	Dataset       string        `yaml:"dataset"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// CutConfig controls where documents are written and how they are checked.
type CutConfig struct {
	OutputDir  string        `yaml:"output_dir"` // empty: next to the source
	Verify     bool          `yaml:"verify"`
	TempDir    string        `yaml:"temp_dir"`
	TempMaxAge time.Duration `yaml:"temp_max_age"`
}

// ServerConfig defines the HTTP API.
type ServerConfig struct {
	Port             string `yaml:"port"`
	MaxFileSize      int64  `yaml:"max_file_size"`
	UploadDir        string `yaml:"upload_dir"`
	AllowHTTPSources bool   `yaml:"allow_http_sources"`
}

// StoreConfig defines job status storage. An empty RedisURL keeps statuses in memory.
type StoreConfig struct {
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// S3Config holds credentials for s3:// sources and outputs.
type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Axiom   AxiomConfig   `yaml:"axiom"`
	Cut     CutConfig     `yaml:"cut"`
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	S3      S3Config      `yaml:"s3"`
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	// Logging defaults
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/pdfcutter.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	// Axiom defaults
	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdfcutter",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Cut = CutConfig{
		OutputDir:  getEnv("OUTPUT_DIR", ""),
		Verify:     parseBool(getEnv("VERIFY_OUTPUT", "0")),
		TempDir:    getEnv("TEMP_DIR", os.TempDir()),
		TempMaxAge: parseDuration(getEnv("TEMP_MAX_AGE", "1h"), time.Hour),
	}

	cfg.Server = ServerConfig{
		Port:             getEnv("PORT", "8080"),
		MaxFileSize:      parseInt64(getEnv("MAX_FILE_SIZE", "104857600"), 100<<20),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		AllowHTTPSources: parseBool(getEnv("ALLOW_HTTP_SOURCES", "0")),
	}

	cfg.Store = StoreConfig{
		RedisURL: getEnv("REDIS_URL", ""),
		TTL:      parseDuration(getEnv("STATUS_TTL", "24h"), 24*time.Hour),
	}

	cfg.S3 = S3Config{
		Region:          getEnv("AWS_REGION", "us-east-1"),
		Endpoint:        getEnv("AWS_S3_ENDPOINT", ""),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		PathStyle:       parseBool(getEnv("AWS_S3_PATH_STYLE", "0")),
	}

	return cfg
}

// Load reads the environment and then applies the YAML file at path, if any.
// Keys present in the file override the environment.
func Load(path string) (Config, error) {
	cfg := FromEnv()
	if path == "" {
		path = os.Getenv("PDFCUTTER_CONFIG")
	}
	if path == "" {
		return cfg, nil
	}
	if err := LoadFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile decodes a YAML document at path on top of cfg.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
