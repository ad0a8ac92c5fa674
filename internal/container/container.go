package container

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"bricklink/taxonomy/internal/client"
	"bricklink/taxonomy/internal/config"
	"bricklink/taxonomy/internal/proxy"
	"bricklink/taxonomy/internal/queue"
	"bricklink/taxonomy/internal/repository"
	"bricklink/taxonomy/internal/service"
	"bricklink/taxonomy/internal/session"
	"bricklink/taxonomy/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Client     client.BrickLinkClient
	Repository repository.SelectionRepository
	Queue      queue.Queue
	Trees      state.TreeStore
	Sessions   *session.Registry

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config:   cfg,
		Sessions: session.NewRegistry(),
	}

	proxySupplier, err := proxy.NewProxySupplier(ctx, cfg.BrickLink.Proxies, cfg.BrickLink.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize proxy supplier: %w", err)
	}

	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	c.db = db
	c.Repository = repository.NewSelectionRepository(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	c.redis = rdb
	log.Info("✅ Connected to Redis successfully")

	c.Queue, err = queue.NewRedisQueue(ctx, rdb, cfg.Redis)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Trees = state.NewRedisTreeStore(rdb, cfg.Taxonomy.TreeCacheTTL)
	c.Client = client.NewBrickLinkClient(cfg.BrickLink, proxySupplier)

	c.Service = service.NewService(
		c.Repository,
		c.Client,
		c.Queue,
		c.Trees,
		c.Sessions,
		cfg.Taxonomy.HistoryLimit,
		cfg.Redis.ConsumerGroup,
		cfg.Redis.MinIdleTime,
	)

	return c, nil
}

// Run prepares storage, queues a refresh of every category tree and keeps the
// refresh workers running until ctx is cancelled.
func (c *Container) Run(ctx context.Context) error {
	if err := c.Repository.EnsureSchema(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	// The refresh loop and its retries cover a failed first enqueue.
	g.Go(func() error {
		if err := c.Service.RefreshAll(ctx); err != nil {
			log.Errorf("❌ Initial tree refresh failed: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		return c.Service.RunRefreshLoop(ctx, c.Config.Taxonomy.RefreshInterval)
	})

	g.Go(func() error {
		return c.Service.RunWorkers(ctx, c.Config.BrickLink.MaxWorkers)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return fmt.Errorf("failed to close Redis client: %w", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
