package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/sandeepkv93/hydrate/internal/config"
	"github.com/sandeepkv93/hydrate/internal/logging"
	"github.com/sandeepkv93/hydrate/internal/metrics"
	"github.com/sandeepkv93/hydrate/internal/notify"
	"github.com/sandeepkv93/hydrate/internal/scheduler"
	"github.com/sandeepkv93/hydrate/internal/storage"
	"github.com/sandeepkv93/hydrate/internal/store"
)

const closeTimeout = 10 * time.Second

type persistFailure struct {
	key string
	err error
}

// app holds the wired components for one process.
type app struct {
	cfg      config.Config
	log      hclog.Logger
	db       *sql.DB
	kv       *storage.SQLiteKV
	notifier notify.Notifier
	sched    *scheduler.Local
	metrics  *metrics.Metrics
	store    *store.Store

	persistErrs chan persistFailure
	logCloser   io.Closer
}

func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	logger, logCloser, err := logging.New(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		JSON:  cfg.LogJSON,
	})
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:         cfg,
		log:         logger,
		logCloser:   logCloser,
		persistErrs: make(chan persistFailure, 16),
	}

	db, err := storage.OpenSQLite(cfg.Driver, cfg.DBPath)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	a.db = db
	kv, err := storage.NewSQLiteKV(db, storage.ScopeHydrate)
	if err != nil {
		_ = a.closeResources()
		return nil, err
	}
	a.kv = kv

	a.notifier, err = notify.New(cfg.Notifications)
	if err != nil {
		_ = a.closeResources()
		return nil, err
	}

	a.metrics = metrics.New()
	schedKV := kv.WithScope(storage.ScopeScheduler)
	a.sched = scheduler.NewLocal(schedKV,
		scheduler.WithLogger(logger.Named("scheduler")),
		scheduler.WithPermission(a.notifier),
		scheduler.WithBuffer(cfg.SchedulerBuffer),
	)
	a.metrics.RegisterDropped(a.sched.Dropped)
	if _, err := a.sched.Restore(ctx); err != nil {
		_ = a.closeResources()
		return nil, err
	}

	a.store = store.New(kv, a.sched,
		store.WithLogger(logger.Named("store")),
		store.WithMetrics(a.metrics),
		store.WithMessage(cfg.ReminderMessage),
		store.WithPersistTimeout(cfg.PersistTimeout),
		store.WithPersistErrorHook(func(key string, err error) {
			select {
			case a.persistErrs <- persistFailure{key: key, err: err}:
			default:
			}
		}),
	)
	if err := a.store.Load(ctx); err != nil {
		logger.Warn("state loaded with errors", "error", err)
	}
	logger.Debug("app ready", "db", cfg.DBPath, "driver", cfg.Driver, "notifications", string(cfg.Notifications),
		"scopes", []string{kv.Scope(), schedKV.Scope()})
	return a, nil
}

// Close flushes pending writes before releasing the database. The returned
// error includes any persistence failure seen since the last flush.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("save state: %w", err))
		}
	}
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *app) closeResources() error {
	var errs []error
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withApp runs fn against a freshly opened app and always closes it.
func withApp(ctx context.Context, opts *rootOptions, fn func(*app) error) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	runErr := fn(a)
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	return errors.Join(runErr, a.Close(closeCtx))
}
