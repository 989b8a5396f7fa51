package main

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/leadbook/crm-api/internal/api"
	"github.com/leadbook/crm-api/internal/api/handler"
	"github.com/leadbook/crm-api/internal/api/metrics"
	"github.com/leadbook/crm-api/internal/core/ports"
	"github.com/leadbook/crm-api/internal/core/service"
	"github.com/leadbook/crm-api/internal/infrastructure/config"
	"github.com/leadbook/crm-api/internal/infrastructure/db/mongo"
	"github.com/leadbook/crm-api/internal/infrastructure/db/redis"
	"github.com/leadbook/crm-api/internal/infrastructure/db/sqlstore"
	"github.com/leadbook/crm-api/pkg/logger"
)

// repositories is the storage backend selected by DB_DRIVER.
type repositories struct {
	users        ports.UserRepository
	customers    ports.CustomerRepository
	details      ports.DetailRepository
	affiliations ports.AffiliationRepository
}

// app holds the wired dependencies shared by the subcommands.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	repos repositories
	cache ports.StatsCache

	sqlDB   *gorm.DB
	mongoDB *mongodrv.Database
	redis   *goredis.Client
}

// bootstrap loads configuration, initialises logging and opens the stores.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(ctx, envFile)
	if err != nil {
		return nil, err
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
		File:   cfg.LogFile,
	})

	a := &app{cfg: cfg, log: log}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			a.close()
			return nil, err
		}
		a.redis = rdb
		cache := redis.NewStatsCache(rdb, cfg.Redis.StatsTTL)
		cache.OnLookup = metrics.ObserveStatsCache
		a.cache = cache
		log.Info().Str("addr", cfg.Redis.Addr).Msg("stats cache enabled")
	}

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	if a.cfg.UsesMongo() {
		_, db, err := mongo.Connect(ctx, mongo.Config{URI: a.cfg.Mongo.URI, Database: a.cfg.Mongo.Database})
		if err != nil {
			return err
		}
		a.mongoDB = db
		a.repos = repositories{
			users:        mongo.NewUserRepository(db),
			customers:    mongo.NewCustomerRepository(db),
			details:      mongo.NewDetailRepository(db),
			affiliations: mongo.NewAffiliationRepository(db),
		}
		a.log.Info().Str("database", a.cfg.Mongo.Database).Msg("connected to mongodb")
		return nil
	}

	db, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:   a.cfg.Database.Driver,
		DSN:      a.cfg.Database.DSN,
		LogLevel: a.cfg.Database.LogLevel,
	}, a.log)
	if err != nil {
		return err
	}
	a.sqlDB = db
	a.repos = repositories{
		users:        sqlstore.NewUserRepository(db),
		customers:    sqlstore.NewCustomerRepository(db),
		details:      sqlstore.NewDetailRepository(db),
		affiliations: sqlstore.NewAffiliationRepository(db),
	}
	a.log.Info().Str("driver", a.cfg.Database.Driver).Msg("connected to sql database")
	return nil
}

// migrate creates tables or indexes for the selected store.
func (a *app) migrate(ctx context.Context) error {
	if a.mongoDB != nil {
		return mongo.EnsureIndexes(ctx, a.mongoDB)
	}
	return sqlstore.Migrate(a.sqlDB)
}

func (a *app) services() (api.Services, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return api.Services{}, err
	}
	secret := a.cfg.JWTSecret
	if secret == "" {
		secret = "dev-secret"
		a.log.Warn().Msg("JWT_SECRET not set, using development secret")
		a.cfg.JWTSecret = secret
	}

	r := a.repos
	return api.Services{
		Auth:         service.NewAuthService(r.users, secret, a.cfg.TokenTTL, a.log),
		Users:        service.NewUserService(r.users, a.log),
		Customers:    service.NewCustomerService(r.customers, r.affiliations, a.cache, a.log),
		Details:      service.NewDetailService(r.customers, r.details, a.cache, a.log),
		Affiliations: service.NewAffiliationService(r.affiliations, a.cache, a.log),
		Stats:        service.NewStatsService(r.customers, r.details, r.affiliations, r.users, a.cache, loc, a.log),
	}, nil
}

// healthChecks lists the dependencies probed by /health/ready.
func (a *app) healthChecks() map[string]handler.PingFunc {
	checks := map[string]handler.PingFunc{}
	if a.sqlDB != nil {
		checks["database"] = func(ctx context.Context) error { return sqlstore.Ping(ctx, a.sqlDB) }
	}
	if a.mongoDB != nil {
		checks["mongodb"] = func(ctx context.Context) error {
			return a.mongoDB.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
		}
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}
	return checks
}

func (a *app) close() {
	var errs []error
	if a.sqlDB != nil {
		if sqlDB, err := a.sqlDB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if a.mongoDB != nil {
		errs = append(errs, a.mongoDB.Client().Disconnect(context.Background()))
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Warn().Err(fmt.Errorf("close stores: %w", err)).Msg("shutdown")
	}
}
