package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipeshare/internal/config"
	"recipeshare/internal/logger"
	"recipeshare/internal/mail"
	"recipeshare/internal/search"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	cfg    config.Config
	log    *zap.Logger
	db     *pgxpool.Pool
	redis  *redis.Client
	mailer mail.Mailer
	search *search.Client
	router *gin.Engine
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	db, err := newPostgres(cfg.PG.DSN)
	if err != nil {
		return nil, err
	}
	a.db = db

	rdb, err := newRedis(cfg.Redis)
	if err != nil {
		db.Close()
		return nil, err
	}
	a.redis = rdb

	if err := runMigrations(cfg.PG.DSN, cfg.PG.MigrationsDir); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	log.Info("migrations applied", zap.String("dir", cfg.PG.MigrationsDir))

	a.mailer = mail.Nop{}
	if cfg.Mail.Host != "" {
		sender, err := mail.NewSender(cfg.Mail, logger.WithComponent(log, "mail"))
		if err != nil {
			_ = a.Close(context.Background())
			return nil, err
		}
		a.mailer = sender
	} else {
		log.Info("mail disabled: MAIL_HOST not set")
	}

	if cfg.Search.Host != "" {
		sc, err := search.NewClient(cfg.Search)
		if err != nil {
			_ = a.Close(context.Background())
			return nil, err
		}
		a.search = sc
	} else {
		log.Info("search disabled: SEARCH_HOST not set")
	}

	router, err := newRouter(Deps{
		Config: cfg,
		Logger: log,
		DB:     a.db,
		Redis:  a.redis,
		Mailer: a.mailer,
		Search: a.search,
	})
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	a.router = router
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Close waits for pending mail, then releases the search client, Redis and Postgres.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.mailer != nil {
		done := make(chan error, 1)
		go func() { done <- a.mailer.Close() }()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, mail.ErrClosed) {
				errs = append(errs, fmt.Errorf("mail close: %w", err))
			}
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("mail close: %w", ctx.Err()))
		}
	}
	if a.search != nil {
		if err := a.search.Close(); err != nil {
			errs = append(errs, fmt.Errorf("search close: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	return errors.Join(errs...)
}

func newPostgres(dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func runMigrations(dsn string, migrationsDir string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
