package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Trendflow  TrendflowConfig  `yaml:"trendflow"`
	Server     ServerConfig     `yaml:"server"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Engagement EngagementConfig `yaml:"engagement"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
	Report     ReportConfig     `yaml:"report"`
}

type TrendflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

type ProvidersConfig struct {
	ShopSearch ProviderConfig `yaml:"shop_search"`
	Social     ProviderConfig `yaml:"social"`
	Orders     ProviderConfig `yaml:"orders"`
	Vision     ProviderConfig `yaml:"vision"`
}

type ProviderConfig struct {
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	VerifyOnStart bool          `yaml:"verify_on_start"`
}

type FetchConfig struct {
	PageSize   int           `yaml:"page_size"`
	MaxPages   int           `yaml:"max_pages"`
	MaxRecords int           `yaml:"max_records"`
	PageDelay  time.Duration `yaml:"page_delay"`
}

type EngagementConfig struct {
	TopPosts int `yaml:"top_posts"`
}

type ScoringConfig struct {
	MarginJitter bool `yaml:"margin_jitter"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool          `yaml:"enabled"`
	Bucket          string        `yaml:"bucket"`
	Region          string        `yaml:"region"`
	Endpoint        string        `yaml:"endpoint"`
	PathStyle       bool          `yaml:"path_style"`
	Prefix          string        `yaml:"prefix"`
	FlushInterval   time.Duration `yaml:"flush_interval"`
	BufferSize      int           `yaml:"buffer_size"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level         string                 `yaml:"level"`
	Format        string                 `yaml:"format"`
	Output        string                 `yaml:"output"`
	MaxAge        int                    `yaml:"max_age"`
	Fields        map[string]interface{} `yaml:"fields"`
	DashboardName string                 `yaml:"dashboard_name"`
}

type ReportConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Fetch: FetchConfig{
			PageSize:   30,
			MaxPages:   50,
			MaxRecords: 2000,
			PageDelay:  time.Second,
		},
		Engagement: EngagementConfig{
			TopPosts: 5,
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override provider credentials from environment variables if available
	if v := os.Getenv("SERP_API_KEY"); v != "" {
		config.Providers.ShopSearch.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("TIKAPI_KEY"); v != "" {
		config.Providers.Social.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("APIFY_API_TOKEN"); v != "" {
		config.Providers.Orders.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("VISION_API_KEY"); v != "" {
		config.Providers.Vision.APIKey = strings.TrimSpace(v)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Trendflow.Name == "" {
		return fmt.Errorf("trendflow.name is required")
	}

	if cfg.Trendflow.Version == "" {
		return fmt.Errorf("trendflow.version is required")
	}

	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if cfg.Fetch.PageSize <= 0 {
		return fmt.Errorf("fetch.page_size must be greater than 0")
	}
	if cfg.Fetch.MaxPages <= 0 {
		return fmt.Errorf("fetch.max_pages must be greater than 0")
	}
	if cfg.Fetch.MaxRecords <= 0 {
		return fmt.Errorf("fetch.max_records must be greater than 0")
	}
	if cfg.Fetch.PageDelay < 0 {
		return fmt.Errorf("fetch.page_delay must not be negative")
	}

	if cfg.Providers.ShopSearch.APIKey == "" {
		return fmt.Errorf("providers.shop_search.api_key is required (or set SERP_API_KEY)")
	}
	if cfg.Providers.Social.APIKey == "" {
		return fmt.Errorf("providers.social.api_key is required (or set TIKAPI_KEY)")
	}
	if cfg.Providers.Vision.APIKey == "" {
		return fmt.Errorf("providers.vision.api_key is required (or set VISION_API_KEY)")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if cfg.Storage.S3.FlushInterval <= 0 {
			return fmt.Errorf("storage.s3.flush_interval must be greater than 0 when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
