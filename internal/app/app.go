// Package app assembles the task list from configuration: the storage slot,
// the persisted store, the remote syncer, and the optional change hook.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/config"
	"github.com/nibzard/tasklist/internal/hooks"
	"github.com/nibzard/tasklist/internal/remote"
	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
)

// App owns the long-lived pieces of one run.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Slot    storage.Slot
	Adapter *storage.Adapter
	Store   *todo.Store
	Syncer  *remote.Syncer

	hook   *hooks.Runner
	detach []func()
}

// Option customizes New.
type Option func(*options)

type options struct {
	slot   storage.Slot
	source remote.Source
}

// WithSlot uses slot instead of opening the configured backend. The App
// still closes it.
func WithSlot(slot storage.Slot) Option {
	return func(o *options) {
		o.slot = slot
	}
}

// WithSource fetches remote tasks from src instead of the configured URL.
func WithSource(src remote.Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// StorageOptions maps configuration onto storage.Options.
func StorageOptions(cfg *config.Config) storage.Options {
	return storage.Options{
		Backend:       cfg.Storage.Backend,
		Dir:           cfg.Storage.Dir,
		SQLitePath:    cfg.Storage.SQLitePath,
		RedisAddr:     cfg.Storage.RedisAddr,
		RedisPassword: cfg.Storage.RedisPassword,
		RedisDB:       cfg.Storage.RedisDB,
	}
}

// New opens storage, loads the saved list into a store and arranges for
// every later mutation to be saved. A missing or unreadable saved list
// starts empty; only failing to open the backend is an error.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	slot := o.slot
	if slot == nil {
		var err error
		slot, err = storage.Open(ctx, StorageOptions(cfg))
		if err != nil {
			return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
		}
	}

	adapter := storage.NewAdapter(slot, cfg.Storage.Key, logger)
	store := todo.NewStore(adapter.Load(ctx))
	detach := []func(){adapter.Attach(ctx, store)}

	var hook *hooks.Runner
	if cfg.Hook.Command != "" {
		hook = hooks.NewRunner(ctx, cfg.Hook.Command, cfg.HookTimeout(), logger)
		detach = append(detach, attachHook(store, hook))
	}

	source := o.source
	if source == nil {
		source = remote.NewHTTPSource(cfg.Remote.URL, cfg.RemoteTimeout())
	}
	syncer := remote.NewSyncer(store, source, remote.NewSession(cfg.StatusTTL()), logger)

	logger.Debug("task list ready",
		"backend", cfg.Storage.Backend,
		"key", adapter.Key(),
		"tasks", store.Len(),
	)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Slot:    slot,
		Adapter: adapter,
		Store:   store,
		Syncer:  syncer,
		hook:    hook,
		detach:  detach,
	}, nil
}

// attachHook queues a hook run for every change, labelled by how the number
// of tasks moved: added, deleted, or updated.
func attachHook(store *todo.Store, hook *hooks.Runner) func() {
	prev := store.Len()
	return store.Subscribe(func(tasks []todo.Task) {
		label := "updated"
		switch {
		case len(tasks) > prev:
			label = "added"
		case len(tasks) < prev:
			label = "deleted"
		}
		prev = len(tasks)
		data, err := storage.Encode(tasks)
		if err != nil {
			return
		}
		hook.Notify(label, data)
	})
}

// Close stops saving, waits for queued hook runs, cancels any pending status
// clear, and closes the storage backend.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	for _, detach := range a.detach {
		detach()
	}
	a.detach = nil
	if a.hook != nil {
		a.hook.Close()
	}
	if a.Syncer != nil {
		a.Syncer.Session().Close()
	}
	if a.Slot != nil {
		if err := a.Slot.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
