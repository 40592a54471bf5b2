package files

import (
	"context"
	"time"

	"github.com/camphub/assetstore/internal/cache"
)

// Default TTLs and sweep intervals for the three tiers.
const (
	DefaultGeneralTTL    = 5 * time.Minute
	DefaultGeneralSweep  = 60 * time.Second
	DefaultMetadataTTL   = 10 * time.Minute
	DefaultMetadataSweep = 120 * time.Second
	DefaultMediaTTL      = 30 * time.Minute
	DefaultMediaSweep    = 300 * time.Second
)

// CacheConfig overrides per-tier TTLs and sweep intervals. Zero values use
// the defaults.
type CacheConfig struct {
	GeneralTTL    time.Duration
	GeneralSweep  time.Duration
	MetadataTTL   time.Duration
	MetadataSweep time.Duration
	MediaTTL      time.Duration
	MediaSweep    time.Duration
}

func (c CacheConfig) withDefaults() CacheConfig {
	if c.GeneralTTL <= 0 {
		c.GeneralTTL = DefaultGeneralTTL
	}
	if c.GeneralSweep <= 0 {
		c.GeneralSweep = DefaultGeneralSweep
	}
	if c.MetadataTTL <= 0 {
		c.MetadataTTL = DefaultMetadataTTL
	}
	if c.MetadataSweep <= 0 {
		c.MetadataSweep = DefaultMetadataSweep
	}
	if c.MediaTTL <= 0 {
		c.MediaTTL = DefaultMediaTTL
	}
	if c.MediaSweep <= 0 {
		c.MediaSweep = DefaultMediaSweep
	}
	return c
}

// Caches holds the three independent cache tiers. Constructed once at
// process start and passed by handle into the service; there is no
// package-level cache state.
type Caches struct {
	// General is a short-lived tier for small operational values that are
	// neither metadata nor payloads, such as the store reachability
	// snapshot behind the health endpoint.
	General *cache.TTLCache[any]
	// Metadata holds Metadata records per object key.
	Metadata *cache.TTLCache[*Metadata]
	// Media holds raw byte payloads per object key.
	Media *cache.TTLCache[[]byte]
}

// NewCaches builds the three tiers. metrics may be nil.
func NewCaches(cfg CacheConfig, metrics *cache.Metrics) *Caches {
	cfg = cfg.withDefaults()
	return &Caches{
		General:  cache.New[any]("general", cfg.GeneralTTL, cfg.GeneralSweep, metrics),
		Metadata: cache.New[*Metadata]("metadata", cfg.MetadataTTL, cfg.MetadataSweep, metrics),
		Media:    cache.New[[]byte]("media", cfg.MediaTTL, cfg.MediaSweep, metrics),
	}
}

// StartSweepers launches all sweep goroutines. They stop when ctx is
// cancelled.
func (c *Caches) StartSweepers(ctx context.Context) {
	c.General.StartSweeper(ctx)
	c.Metadata.StartSweeper(ctx)
	c.Media.StartSweeper(ctx)
}
