package cache

import "github.com/varpipe-io/varpipe/internal/config"

// New builds the Cache implementation named by cfg's cache_backend key
// (default "file").
func New(cfg *config.Configuration) (Cache, error) {
	switch backend := cfg.GetString("cache_backend", "file"); backend {
	case "", "file":
		return NewFileCache(cfg.GetString("cache_dir", ".varpipe-cache"))
	case "postgres":
		return NewPostgresCache(cfg.GetString("cache.postgres.dsn", ""))
	default:
		return nil, ErrUnsupportedBackend
	}
}
