package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/mdobak/go-xerrors"
	"github.com/redis/go-redis/v9"
	"github.com/siahsang/conduit/internal/auth"
	"github.com/siahsang/conduit/internal/cache"
	"github.com/siahsang/conduit/internal/config"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/data"
	"github.com/siahsang/conduit/internal/memstore"
)

const connectTimeout = 5 * time.Second

// openPorts builds the core ports selected by cfg. The returned function
// releases every connection that was opened.
func openPorts(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.Ports, func(), error) {
	ports := core.Ports{
		Auth:         auth.New(cfg.JWT.Secret, cfg.JWT.TTL, cfg.BcryptCost),
		SlugAttempts: cfg.SlugMaxAttempts,
	}

	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Error("Errors closing connection", slog.String("error", err.Error()))
			}
		}
	}

	switch cfg.Storage {
	case config.StorageMemory:
		store := memstore.New()
		ports.Users = store.Users()
		ports.Articles = store.Articles()
		ports.Comments = store.Comments()
		ports.Tx = store
		logger.Warn("using in-memory storage, data is lost on restart")
	default:
		db, err := openDBConnection(ctx, cfg)
		if err != nil {
			return core.Ports{}, nil, err
		}
		closers = append(closers, db.Close)
		logger.Info("Database connection established successfully")

		if err := data.Migrate(ctx, db); err != nil {
			closeAll()
			return core.Ports{}, nil, err
		}

		models := data.NewModels(db, logger, cfg.DB.QueryTimeout)
		ports.Users = models.Users
		ports.Articles = models.Articles
		ports.Comments = models.Comments
		ports.Tx = models.Tx
	}

	if cfg.Redis.Addr == "" {
		ports.Tags = cache.NewLocalTags(cfg.TagsCacheTTL)
		return ports, closeAll, nil
	}

	client, err := openRedis(ctx, cfg)
	if err != nil {
		closeAll()
		return core.Ports{}, nil, err
	}
	closers = append(closers, client.Close)
	logger.Info("Redis connection established successfully", slog.String("addr", cfg.Redis.Addr))
	ports.Tags = cache.NewRedisTags(client, cfg.TagsCacheTTL)

	return ports, closeAll, nil
}

func openDBConnection(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		return nil, xerrors.New(err)
	}

	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.DB.MaxIdleTime)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, xerrors.New(err)
	}

	return db, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, xerrors.New(err)
	}

	return client, nil
}
