// Package config holds the configuration surface for the asset storage
// service. Everything has a safe default; a yaml file and environment
// variables may override it.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server Server `yaml:"server"`
	Store  Store  `yaml:"store"`
	Cache  Cache  `yaml:"cache"`
	Upload Upload `yaml:"upload"`
}

type Server struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

type Store struct {
	// Mode selects the client implementation: minio, s3 or memory.
	Mode      string `yaml:"mode"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	PathStyle bool   `yaml:"path_style"`
	// BucketPrefix namespaces physical bucket names per environment.
	BucketPrefix string `yaml:"bucket_prefix"`
	// Retries enables the retry decorator when > 0.
	Retries int `yaml:"retries"`
}

type Cache struct {
	GeneralTTL    time.Duration `yaml:"general_ttl"`
	GeneralSweep  time.Duration `yaml:"general_sweep"`
	MetadataTTL   time.Duration `yaml:"metadata_ttl"`
	MetadataSweep time.Duration `yaml:"metadata_sweep"`
	MediaTTL      time.Duration `yaml:"media_ttl"`
	MediaSweep    time.Duration `yaml:"media_sweep"`
}

type Upload struct {
	MaxFileSize  int64    `yaml:"max_file_size"`
	AllowedTypes []string `yaml:"allowed_types"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: Server{
			Port:     8080,
			LogLevel: "info",
		},
		Store: Store{
			Mode:     "minio",
			Endpoint: "localhost:9000",
			Region:   "us-east-1",
		},
	}
}

// Load reads an optional yaml file, then applies environment overrides.
// A missing path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - operator-supplied path
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	LoadFromEnv(cfg)
	return cfg, nil
}
