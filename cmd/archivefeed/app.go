package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/archivefeed/internal/config"
	"github.com/kailas-cloud/archivefeed/internal/db"
	dbFile "github.com/kailas-cloud/archivefeed/internal/db/file"
	dbMemory "github.com/kailas-cloud/archivefeed/internal/db/memory"
	dbRedis "github.com/kailas-cloud/archivefeed/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/archivefeed/internal/db/sqlite"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/definition"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/filter"
	"github.com/kailas-cloud/archivefeed/internal/icons"
	"github.com/kailas-cloud/archivefeed/internal/metrics"
	"github.com/kailas-cloud/archivefeed/internal/render"
	"github.com/kailas-cloud/archivefeed/internal/render/cards"
	contentrepo "github.com/kailas-cloud/archivefeed/internal/repository/content"
	sessionrepo "github.com/kailas-cloud/archivefeed/internal/repository/session"
	"github.com/kailas-cloud/archivefeed/internal/security/nonce"
	feeduc "github.com/kailas-cloud/archivefeed/internal/usecase/feed"
	healthuc "github.com/kailas-cloud/archivefeed/internal/usecase/health"
)

// app is the composition root shared by every command.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	redis        *dbRedis.Store // nil unless a redis driver is configured
	sessionStore db.Store
	sessions     *sessionrepo.Repo
	engine       feeduc.Engine
	feeds        *feeduc.Service
	icons        *icons.Catalog
	health       *healthuc.Service
}

// newApp opens the configured stores and wires the feed service.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if err := a.openRedis(ctx); err != nil {
		return nil, err
	}

	store, err := a.openSessionStore()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sessionStore = store
	a.sessions = sessionrepo.New(store).
		WithTTL(cfg.Session.TTL).
		WithKeyPrefix(cfg.Session.KeyPrefix)

	engine, err := a.openEngine(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = engine

	defs, err := definition.NewRegistry(cfg.Feeds...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("feed definitions: %w", err)
	}

	nonces, err := nonce.New(cfg.Security.NonceSecret, cfg.Security.NonceTTL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("nonce manager: %w", err)
	}

	codec := filter.NewCodec(
		filter.WithTaxonomies(cfg.TaxonomyNames()...),
		filter.WithSortFields(cfg.Render.SortFields...),
	)
	renderer := render.New(cards.NewRegistry(),
		render.WithLocale(language.Make(cfg.Render.Locale)),
		render.WithPageSegment(cfg.Render.PageSlug),
	)

	a.feeds = feeduc.New(defs, a.sessions, engine, nonces, codec, renderer).
		WithRecorder(metrics.NewRecorder())

	a.icons, err = icons.New(cfg.Icons.Dir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("icons: %w", err)
	}

	// Pass a nil interface, not a typed nil pointer, when content is local.
	var contentPinger healthuc.Pinger
	if cfg.Content.Driver == config.DriverRedis {
		contentPinger = a.redis
	}
	a.health = healthuc.New(store, contentPinger)

	logger.Info("Feed service ready",
		zap.String("session_driver", cfg.Session.Driver),
		zap.String("content_driver", cfg.Content.Driver),
		zap.Strings("feeds", defs.Names()),
	)
	return a, nil
}

// Close releases every opened store.
func (a *app) Close() {
	if a.sessionStore != nil && a.cfg.Session.Driver != config.DriverRedis {
		a.sessionStore.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// pruner returns the session store's sweeper, if it needs one.
func (a *app) pruner() (db.Pruner, bool) {
	p, ok := a.sessionStore.(db.Pruner)
	return p, ok
}

func (a *app) openRedis(ctx context.Context) error {
	if a.cfg.Session.Driver != config.DriverRedis && a.cfg.Content.Driver != config.DriverRedis {
		return nil
	}
	return a.connectRedis(ctx)
}

func (a *app) connectRedis(ctx context.Context) error {
	if len(a.cfg.Database.Addrs) == 0 {
		return errors.New("database.addrs is required")
	}
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    a.cfg.Database.Addrs,
		Username: a.cfg.Database.Username,
		Password: a.cfg.Database.Password,
		DB:       a.cfg.Database.DB,
	})
	if err != nil {
		return fmt.Errorf("create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, a.cfg.Database.ReadinessTimeout); err != nil {
		store.Close()
		return fmt.Errorf("redis not ready: %w", err)
	}
	a.logger.Info("Connected to redis", zap.Strings("addrs", a.cfg.Database.Addrs))
	a.redis = store
	return nil
}

func (a *app) openSessionStore() (db.Store, error) {
	switch a.cfg.Session.Driver {
	case config.DriverRedis:
		return a.redis, nil
	case config.DriverSQLite:
		s, err := dbSQLite.Open(a.cfg.Session.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite sessions: %w", err)
		}
		return s, nil
	case config.DriverFile:
		s, err := dbFile.Open(a.cfg.Session.Dir)
		if err != nil {
			return nil, fmt.Errorf("open file sessions: %w", err)
		}
		return s, nil
	default:
		return dbMemory.NewStore(a.cfg.Session.PruneInterval), nil
	}
}

func (a *app) openEngine(ctx context.Context) (feeduc.Engine, error) {
	if a.cfg.Content.Driver == config.DriverRedis {
		engine := a.redisEngine()
		if err := engine.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("content index: %w", err)
		}
		return engine, nil
	}

	fixtures, err := contentrepo.LoadFixtures(a.cfg.Content.Fixtures)
	if err != nil {
		return nil, fmt.Errorf("content fixtures: %w", err)
	}
	a.logger.Info("Loaded content fixtures",
		zap.String("path", a.cfg.Content.Fixtures),
		zap.Int("items", len(fixtures.Items)),
	)
	return contentrepo.NewMemory(fixtures), nil
}

func (a *app) redisEngine() *contentrepo.Redis {
	return contentrepo.NewRedis(a.redis, a.cfg.Content.Index, a.cfg.TaxonomyNames(), a.cfg.MetaKeyNames())
}
