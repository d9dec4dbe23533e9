package app

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	kvcache "blockvibe/internal/cache/kv"
	"blockvibe/internal/gateway/config"
	kvrepo "blockvibe/internal/gateway/repository/kv"
)

// openStore selects the slot store backend. Remote backends sit behind a
// read-through cache.
func openStore(cfg config.StoreConfig, logger *zap.Logger) (kvrepo.Store, func() error, error) {
	noop := func() error { return nil }
	cacheCfg := kvcache.DefaultCacheConfig()
	if cfg.CacheSize > 0 {
		cacheCfg.MaxEntries = cfg.CacheSize
	}

	switch cfg.Backend {
	case config.BackendMemory:
		logger.Info("slot store: in-memory")
		return kvrepo.NewMemoryStore(), noop, nil
	case config.BackendFile:
		store, err := kvrepo.NewFileStore(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("slot store: file", zap.String("path", cfg.FilePath))
		return store, noop, nil
	case config.BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("postgres backend requires STORE_PG_DSN")
		}
		db, err := kvrepo.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db: %w", err)
		}
		logger.Info("slot store: postgres")
		return kvcache.NewCachedStore(kvrepo.NewPostgresStore(db), cacheCfg), closeDB(db), nil
	case config.BackendS3:
		s3Cfg := kvrepo.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			UseSSL:    cfg.S3.UseSSL,
		}
		store, err := kvrepo.NewS3Store(s3Cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize s3 store: %w", err)
		}
		logger.Info("slot store: s3", zap.String("bucket", s3Cfg.Bucket), zap.String("endpoint", s3Cfg.Endpoint))
		return kvcache.NewCachedStore(store, cacheCfg), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func closeDB(db *sql.DB) func() error {
	return db.Close
}
