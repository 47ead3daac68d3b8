package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string

	TextAPIKey  string
	TextBaseURL string
	TextModel   string
	TextTimeout time.Duration

	ImageEnabled     bool
	ImageAPIKey      string
	ImageBaseURL     string
	ImageModel       string
	ImageSize        string
	ImageProviderCap int
	ImageTimeout     time.Duration

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	StoragePath         string
	StorageBaseURL      string

	ShopifyAPIVersion string
	ShopifyRatePerSec float64

	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        port,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		TextAPIKey:  getEnv("TEXT_API_KEY", os.Getenv("BIGMODEL_API_KEY")),
		TextBaseURL: getEnv("TEXT_BASE_URL", "https://open.bigmodel.cn/api/paas/v4"),
		TextModel:   getEnv("TEXT_MODEL", "glm-4"),
		TextTimeout: time.Second * time.Duration(getEnvInt("TEXT_TIMEOUT_SECONDS", 45)),

		ImageEnabled:     getEnvBool("IMAGE_ENABLED", true),
		ImageAPIKey:      os.Getenv("IMAGE_API_KEY"),
		ImageBaseURL:     getEnv("IMAGE_BASE_URL", "https://api.openai.com/v1"),
		ImageModel:       getEnv("IMAGE_MODEL", "dall-e-3"),
		ImageSize:        getEnv("IMAGE_SIZE", "1024x1024"),
		ImageProviderCap: getEnvInt("IMAGE_PROVIDER_CAP", 3),
		ImageTimeout:     time.Second * time.Duration(getEnvInt("IMAGE_TIMEOUT_SECONDS", 90)),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		StoragePath:         os.Getenv("STORAGE_PATH"),
		StorageBaseURL:      getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%s/static", port)),

		ShopifyAPIVersion: getEnv("SHOPIFY_API_VERSION", "2024-10"),
		ShopifyRatePerSec: getEnvFloat("SHOPIFY_RATE_PER_SEC", 2),

		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ImageProviderCap <= 0 {
		cfg.ImageProviderCap = 3
	}

	return cfg, nil
}

// CloudinaryConfigured reports whether all three upload credentials are set.
func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
