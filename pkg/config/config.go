package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting of the API.
type Config struct {
	Port    string
	AppEnv  string
	LogMode string

	DatabaseDriver string // postgres | sqlite
	DatabaseURL    string
	SQLitePath     string

	JWTSecret string
	JWTTTL    time.Duration

	Location    *time.Location
	FrontendURL string

	StorageDriver  string // none | local | s3 | supabase
	UploadsDir     string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3PathStyle    bool
	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string
	RedisAddr      string
	AnalyticsTTL   time.Duration
	MetricsEnabled bool
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	_ = godotenv.Load()

	loc, err := time.LoadLocation(env("TIMEZONE", "UTC"))
	if err != nil {
		loc = time.UTC
	}

	driver := strings.ToLower(env("DATABASE_DRIVER", ""))
	if driver == "" {
		if os.Getenv("DATABASE_URL") != "" {
			driver = "postgres"
		} else {
			driver = "sqlite"
		}
	}

	return Config{
		Port:    env("PORT", "3000"),
		AppEnv:  env("APP_ENV", "dev"),
		LogMode: env("LOG_MODE", "dev"),

		DatabaseDriver: driver,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SQLitePath:     env("SQLITE_PATH", "lexdash.db"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    time.Duration(envInt("JWT_TTL_HOURS", 168)) * time.Hour,

		Location:    loc,
		FrontendURL: env("FRONTEND_URL", "http://localhost:3000"),

		StorageDriver:  strings.ToLower(env("STORAGE_DRIVER", "none")),
		UploadsDir:     env("UPLOADS_DIR", "uploads"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Region:       env("S3_REGION", "us-east-1"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3PathStyle:    envBool("S3_PATH_STYLE", false),
		SupabaseURL:    strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseKey:    os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseBucket: os.Getenv("SUPABASE_BUCKET"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		AnalyticsTTL:   time.Duration(envInt("ANALYTICS_CACHE_TTL_SECONDS", 30)) * time.Second,
		MetricsEnabled: envBool("METRICS_ENABLED", true),
	}
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}
