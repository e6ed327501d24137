package cache

import (
	"github.com/ppiankov/sieve/internal/model"
)

// New builds the cache described by cfg. It returns nil when caching is disabled;
// callers treat a nil Cache as "always miss".
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	memory := NewMemoryCache(cfg.TTL, cfg.CleanupInterval)
	if cfg.Dir == "" {
		return memory, nil
	}

	disk, err := NewDiskCache(cfg.Dir, cfg.TTL)
	if err != nil {
		return nil, err
	}
	return NewLayeredCache(memory, disk), nil
}
