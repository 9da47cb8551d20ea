package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Search     SearchConfig     `yaml:"search"`
	Auth       AuthConfig       `yaml:"auth"`
	Submission SubmissionConfig `yaml:"submission"`
	Explore    ExploreConfig    `yaml:"explore"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Port         string   `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"` // mysql, postgres or memory
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// StorageConfig selects and configures the image object store
type StorageConfig struct {
	Type   string       `yaml:"type"` // file, s3, gridfs or gcs
	Prefix string       `yaml:"prefix"`
	File   FileConfig   `yaml:"file"`
	S3     S3Config     `yaml:"s3"`
	GridFS GridFSConfig `yaml:"gridfs"`
	GCS    GCSConfig    `yaml:"gcs"`
}

type FileConfig struct {
	Dir string `yaml:"dir"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // MinIO / LocalStack
}

type GridFSConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	Bucket   string `yaml:"bucket"`
}

type GCSConfig struct {
	Bucket string `yaml:"bucket"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	APIKey  string `yaml:"api_key"`
	Index   string `yaml:"index"`
}

// AuthConfig contains session token settings
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// SubmissionConfig bounds listing submissions
type SubmissionConfig struct {
	MaxConcurrency int   `yaml:"max_concurrency"`
	MaxImages      int   `yaml:"max_images"`
	MaxImageBytes  int64 `yaml:"max_image_bytes"`
}

// ExploreConfig contains explore query settings
type ExploreConfig struct {
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// RateLimitConfig contains per-user submission limits
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
	RequestsPerDay    int  `yaml:"requests_per_day"`
}

// SchedulerConfig contains background job settings
type SchedulerConfig struct {
	ReindexEnabled bool   `yaml:"reindex_enabled"`
	ReindexTime    string `yaml:"reindex_time"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"` // text or json
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8084",
			AllowOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Type: "postgres",
		},
		Storage: StorageConfig{
			Type:   "file",
			Prefix: "images/listings/",
			File:   FileConfig{Dir: "./data/images"},
			GridFS: GridFSConfig{Database: "dorm_listings", Bucket: "images"},
		},
		Search: SearchConfig{
			Meilisearch: MeilisearchConfig{
				Enabled: false,
				Index:   "listings",
			},
		},
		Submission: SubmissionConfig{
			MaxConcurrency: 4,
			MaxImages:      3,
			MaxImageBytes:  5 << 20,
		},
		Explore: ExploreConfig{
			CacheTTLSeconds: 30,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 5,
			RequestsPerHour:   30,
			RequestsPerDay:    100,
		},
		Scheduler: SchedulerConfig{
			ReindexEnabled: false,
			ReindexTime:    "03:00",
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "text",
			LogRequests: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// GetCacheTTL returns the explore cache TTL as a duration
func (c *ExploreConfig) GetCacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
