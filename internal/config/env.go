package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv applies environment variable overrides to cfg.
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("ASSETSTORE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if level := os.Getenv("ASSETSTORE_LOG_LEVEL"); level != "" {
		cfg.Server.LogLevel = level
	}

	// Store settings
	if mode := os.Getenv("STORE_MODE"); mode != "" {
		cfg.Store.Mode = mode
	}
	if endpoint := os.Getenv("STORE_ENDPOINT"); endpoint != "" {
		cfg.Store.Endpoint = endpoint
	}
	if region := os.Getenv("STORE_REGION"); region != "" {
		cfg.Store.Region = region
	}
	if key := os.Getenv("STORE_ACCESS_KEY"); key != "" {
		cfg.Store.AccessKey = key
	}
	if key := os.Getenv("STORE_SECRET_KEY"); key != "" {
		cfg.Store.SecretKey = key
	}
	if ssl := os.Getenv("STORE_USE_SSL"); ssl != "" {
		cfg.Store.UseSSL = ssl == "true" || ssl == "1"
	}
	if ps := os.Getenv("STORE_PATH_STYLE"); ps != "" {
		cfg.Store.PathStyle = ps == "true" || ps == "1"
	}
	if prefix := os.Getenv("STORE_BUCKET_PREFIX"); prefix != "" {
		cfg.Store.BucketPrefix = prefix
	}
	if retries := os.Getenv("STORE_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil {
			cfg.Store.Retries = n
		}
	}

	// Cache settings
	setDuration(&cfg.Cache.GeneralTTL, "CACHE_GENERAL_TTL")
	setDuration(&cfg.Cache.GeneralSweep, "CACHE_GENERAL_SWEEP")
	setDuration(&cfg.Cache.MetadataTTL, "CACHE_METADATA_TTL")
	setDuration(&cfg.Cache.MetadataSweep, "CACHE_METADATA_SWEEP")
	setDuration(&cfg.Cache.MediaTTL, "CACHE_MEDIA_TTL")
	setDuration(&cfg.Cache.MediaSweep, "CACHE_MEDIA_SWEEP")

	// Upload settings
	if size := os.Getenv("UPLOAD_MAX_FILE_SIZE"); size != "" {
		if n, err := strconv.ParseInt(size, 10, 64); err == nil {
			cfg.Upload.MaxFileSize = n
		}
	}
	if types := os.Getenv("UPLOAD_ALLOWED_TYPES"); types != "" {
		cfg.Upload.AllowedTypes = strings.Split(types, ",")
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// GetEnvOrDefault returns an environment variable or a default value.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
