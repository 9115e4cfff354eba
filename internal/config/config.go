package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	AdminSecret string
	Store       StoreConfig
	Assets      AssetConfig
	RedisURL    string
	TrustProxy  bool
	RateLimits  RateLimits
	MaxUpload   int64
	LogLevel    string
	LogFormat   string
	Version     string
	Commit      string
	BuildTime   string
}

type StoreConfig struct {
	Driver string // json, sqlite or memory
	Path   string
}

type AssetConfig struct {
	Driver    string // disk or s3
	Dir       string
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	KeyPrefix string
}

type RateLimits struct {
	UploadPerMinute int
	FlagPerMinute   int
	Window          time.Duration
}

// Build info, set with -ldflags.
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func Load() Config {
	addr := envString("BOXSHARE_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":3000"
		}
	}
	driver := envString("BOXSHARE_STORE", "json")
	defaultPath := "boxes.json"
	if driver == "sqlite" {
		defaultPath = "boxes.db"
	}
	cfg := Config{
		Addr:        addr,
		AdminSecret: envString("BOXSHARE_ADMIN_SECRET", os.Getenv("ADMIN_PASSWORD")),
		Store: StoreConfig{
			Driver: driver,
			Path:   envString("BOXSHARE_DATA", defaultPath),
		},
		Assets: AssetConfig{
			Driver:    envString("BOXSHARE_ASSETS", "disk"),
			Dir:       envString("BOXSHARE_UPLOADS", "uploads"),
			Bucket:    os.Getenv("BOXSHARE_S3_BUCKET"),
			Region:    envString("BOXSHARE_S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("BOXSHARE_S3_ENDPOINT"),
			AccessKey: os.Getenv("BOXSHARE_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("BOXSHARE_S3_SECRET_KEY"),
			KeyPrefix: os.Getenv("BOXSHARE_S3_PREFIX"),
		},
		RedisURL:   os.Getenv("BOXSHARE_REDIS_URL"),
		TrustProxy: envBool("BOXSHARE_TRUST_PROXY", false),
		RateLimits: RateLimits{
			UploadPerMinute: envInt("BOXSHARE_RL_UPLOAD_PER_MIN", 10),
			FlagPerMinute:   envInt("BOXSHARE_RL_FLAG_PER_MIN", 30),
			Window:          time.Minute,
		},
		MaxUpload: envInt64("BOXSHARE_MAX_UPLOAD", 10<<20),
		LogLevel:  envString("BOXSHARE_LOG_LEVEL", "info"),
		LogFormat: envString("BOXSHARE_LOG_FORMAT", "text"),
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}

	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
