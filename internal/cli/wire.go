package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dgcreview/api/internal/app"
	"dgcreview/api/internal/config"
	"dgcreview/api/internal/lock"
	"dgcreview/api/internal/logging"
	"dgcreview/api/internal/review"
	"dgcreview/api/internal/store"
)

// runtime holds the backends shared by every command.
type runtime struct {
	store   *store.Store
	reviews *review.Service
	checks  map[string]app.Pinger
	closers []func() error
}

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

func openRuntime(ctx context.Context, cfg config.Config, log logging.Logger) (*runtime, error) {
	rt := &runtime{checks: map[string]app.Pinger{}}

	locker, err := openLocker(cfg, rt)
	if err != nil {
		return nil, err
	}
	blobs, err := openBlobs(ctx, cfg, rt)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.store = store.New(blobs, locker)
	rt.reviews = review.New(rt.store, log)
	log.Info(ctx, "storage ready", "backend", cfg.StorageBackend, "distributed_locks", cfg.RedisURL != "")
	return rt, nil
}

func openLocker(cfg config.Config, rt *runtime) (store.Locker, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return lock.NewLocal(), nil
	}
	redisLock, err := lock.NewRedis(cfg.RedisURL, cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	rt.closers = append(rt.closers, redisLock.Close)
	rt.checks["locks"] = redisLock
	return redisLock, nil
}

func openBlobs(ctx context.Context, cfg config.Config, rt *runtime) (store.Blobs, error) {
	switch cfg.StorageBackend {
	case "", "file":
		return store.NewFileBlobs(cfg.CardsFile, cfg.ReviewsFile), nil
	case "postgres":
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt.closers = append(rt.closers, db.Close)
		if err := store.ApplyMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		blobs := store.NewPostgresBlobs(db)
		rt.checks["storage"] = blobs
		return blobs, nil
	case "minio":
		blobs, err := store.NewMinioBlobs(ctx, store.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Prefix:    cfg.MinioPrefix,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("object storage connection failed: %w", err)
		}
		rt.checks["storage"] = blobs
		return blobs, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
