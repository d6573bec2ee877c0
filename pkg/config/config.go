package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Cache      CacheConfig
	Media      MediaConfig
	Reports    ReportsConfig
	Pagination PaginationConfig
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	ConnectRetries int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs response caching for public listings.
type CacheConfig struct {
	Enabled    bool
	CatalogTTL time.Duration
	HomeTTL    time.Duration
}

// MediaConfig controls uploaded file storage and signed downloads.
type MediaConfig struct {
	StorageDir       string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
	ThumbnailWidth   int
	ThumbnailWorkers int
}

// ReportsConfig toggles the roster export endpoint.
type ReportsConfig struct {
	Enabled bool
}

// PaginationConfig holds the page sizes used by public listings.
type PaginationConfig struct {
	Courses       int
	Faculty       int
	Events        int
	Announcements int
	GalleryImages int
	GalleryVideos int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:           v.GetString("DB_HOST"),
		Port:           v.GetInt("DB_PORT"),
		User:           v.GetString("DB_USER"),
		Password:       v.GetString("DB_PASSWORD"),
		Name:           v.GetString("DB_NAME"),
		SSLMode:        v.GetString("DB_SSL_MODE"),
		MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnectRetries: v.GetInt("DB_CONNECT_RETRIES"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_CACHE"),
		CatalogTTL: parseDuration(v.GetString("CATALOG_CACHE_TTL"), 5*time.Minute),
		HomeTTL:    parseDuration(v.GetString("HOME_CACHE_TTL"), 10*time.Minute),
	}

	maxMediaSize := v.GetInt64("MEDIA_MAX_FILE_SIZE")
	if maxMediaSize <= 0 {
		maxMediaSize = 5 * 1024 * 1024
	}
	cfg.Media = MediaConfig{
		StorageDir:       v.GetString("MEDIA_STORAGE_DIR"),
		SignedURLSecret:  v.GetString("MEDIA_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("MEDIA_SIGNED_URL_TTL"), 30*time.Minute),
		MaxFileSizeBytes: maxMediaSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("MEDIA_ALLOWED_MIME_TYPES")),
		ThumbnailWidth:   v.GetInt("MEDIA_THUMBNAIL_WIDTH"),
		ThumbnailWorkers: v.GetInt("MEDIA_THUMBNAIL_WORKERS"),
	}

	cfg.Reports = ReportsConfig{
		Enabled: v.GetBool("ENABLE_REPORTS"),
	}

	cfg.Pagination = PaginationConfig{
		Courses:       v.GetInt("PAGE_SIZE_COURSES"),
		Faculty:       v.GetInt("PAGE_SIZE_FACULTY"),
		Events:        v.GetInt("PAGE_SIZE_EVENTS"),
		Announcements: v.GetInt("PAGE_SIZE_ANNOUNCEMENTS"),
		GalleryImages: v.GetInt("PAGE_SIZE_GALLERY_IMAGES"),
		GalleryVideos: v.GetInt("PAGE_SIZE_GALLERY_VIDEOS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "univ_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONNECT_RETRIES", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "univ-portal-api")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CATALOG_CACHE_TTL", "5m")
	v.SetDefault("HOME_CACHE_TTL", "10m")

	v.SetDefault("MEDIA_STORAGE_DIR", "./media")
	v.SetDefault("MEDIA_SIGNED_URL_SECRET", "dev_media_secret")
	v.SetDefault("MEDIA_SIGNED_URL_TTL", "30m")
	v.SetDefault("MEDIA_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("MEDIA_ALLOWED_MIME_TYPES", "image/jpeg,image/png,application/pdf")
	v.SetDefault("MEDIA_THUMBNAIL_WIDTH", 320)
	v.SetDefault("MEDIA_THUMBNAIL_WORKERS", 2)

	v.SetDefault("ENABLE_REPORTS", true)

	v.SetDefault("PAGE_SIZE_COURSES", 12)
	v.SetDefault("PAGE_SIZE_FACULTY", 12)
	v.SetDefault("PAGE_SIZE_EVENTS", 12)
	v.SetDefault("PAGE_SIZE_ANNOUNCEMENTS", 15)
	v.SetDefault("PAGE_SIZE_GALLERY_IMAGES", 12)
	v.SetDefault("PAGE_SIZE_GALLERY_VIDEOS", 8)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
