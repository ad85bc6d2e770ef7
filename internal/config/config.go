package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	StorageFilesystem = "filesystem"
	StorageCloudinary = "cloudinary"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	AppEnv                 string
	Port                   string
	StoreDriver            string
	DatabaseURL            string
	JWTSecret              string
	JWTIssuer              string
	AccessTTLSeconds       int64
	RefreshTTLSeconds      int64
	StorageDriver          string
	MediaStoragePath       string
	MediaPublicBaseURL     string
	CloudinaryURL          string
	ContentPath            string
	CorsOrigins            []string
	RateLimitPerMinute     int
	DashboardSampleSeconds int
	AdminEmail             string
	AdminPassword          string
	LogDir                 string
	LogRetentionDays       int
}

func Load() (Config, error) {
	cfg := Config{
		AppEnv:                 envOr("APP_ENV", "production"),
		Port:                   envOr("PORT", "8080"),
		StoreDriver:            strings.ToLower(envOr("STORE_DRIVER", StorePostgres)),
		DatabaseURL:            envOr("DATABASE_URL", ""),
		JWTSecret:              envOr("JWT_SECRET", ""),
		JWTIssuer:              envOr("JWT_ISSUER", "ssfatpf"),
		AccessTTLSeconds:       int64(envOrInt("ACCESS_TTL_SECONDS", 14400)),
		RefreshTTLSeconds:      int64(envOrInt("REFRESH_TTL_SECONDS", 1209600)),
		StorageDriver:          strings.ToLower(envOr("STORAGE_DRIVER", StorageFilesystem)),
		MediaStoragePath:       envOr("MEDIA_STORAGE_PATH", "storage/media"),
		MediaPublicBaseURL:     envOr("MEDIA_PUBLIC_BASE_URL", "/media"),
		CloudinaryURL:          envOr("CLOUDINARY_URL", ""),
		ContentPath:            envOr("CONTENT_PATH", ""),
		CorsOrigins:            parseCSV(envOr("CORS_ORIGINS", "")),
		RateLimitPerMinute:     envOrInt("RATE_LIMIT_PER_MINUTE", 20),
		DashboardSampleSeconds: envOrInt("DASHBOARD_SAMPLE_SECONDS", 5),
		AdminEmail:             strings.ToLower(envOr("ADMIN_EMAIL", "")),
		AdminPassword:          envOr("ADMIN_PASSWORD", ""),
		LogDir:                 envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays:       clampRetention(envOrInt("LOG_RETENTION_DAYS", 7)),
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("missing env var: JWT_SECRET")
	}
	switch cfg.StoreDriver {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("missing env var: DATABASE_URL")
		}
	case StoreMemory:
	default:
		return Config{}, errors.New("unknown STORE_DRIVER: " + cfg.StoreDriver)
	}
	switch cfg.StorageDriver {
	case StorageCloudinary:
		if cfg.CloudinaryURL == "" {
			return Config{}, errors.New("missing env var: CLOUDINARY_URL")
		}
	case StorageFilesystem:
	default:
		return Config{}, errors.New("unknown STORAGE_DRIVER: " + cfg.StorageDriver)
	}
	if cfg.DashboardSampleSeconds < 1 {
		cfg.DashboardSampleSeconds = 5
	}
	return cfg, nil
}

func (c Config) Development() bool {
	return c.AppEnv == "development"
}

func clampRetention(days int) int {
	if days < 1 {
		return 7
	}
	if days > 7 {
		return 7
	}
	return days
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
