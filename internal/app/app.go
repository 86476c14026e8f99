// Package app wires the application together: storage, the in-memory
// signal store, the detector pipeline, the feedback loop, the
// anticipation worker, and the HTTP handlers.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/detectors"
	"github.com/ternarybob/auspex/internal/feedback"
	"github.com/ternarybob/auspex/internal/handlers"
	"github.com/ternarybob/auspex/internal/interfaces"
	storagebadger "github.com/ternarybob/auspex/internal/storage/badger"
	"github.com/ternarybob/auspex/internal/store"
	"github.com/ternarybob/auspex/internal/worker"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	SignalStore *store.SignalStore
	Pipeline    *detectors.Pipeline
	Loop        *feedback.Loop
	Worker      *worker.Worker

	// HTTP handlers
	APIHandler    *handlers.APIHandler
	SignalHandler *handlers.SignalHandler
	StatusHandler *handlers.StatusHandler
	WorkerHandler *handlers.WorkerHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	manager, err := storagebadger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = manager

	app.SignalStore = store.NewSignalStore()
	if err := app.reloadSignals(); err != nil {
		// A failed reload degrades to an empty store; the next cycle
		// repopulates it.
		logger.Warn().Err(err).Msg("Failed to reload signals from storage, starting empty")
	}

	app.Pipeline = detectors.DefaultPipeline(cfg.Anticipation, logger)
	app.Loop = feedback.NewLoop(manager.WeightStorage(), logger)
	app.Worker = worker.New(
		cfg.Anticipation,
		app.Pipeline,
		app.SignalStore,
		manager.SignalStorage(),
		app.Loop,
		logger,
	)

	app.APIHandler = handlers.NewAPIHandler()
	app.SignalHandler = handlers.NewSignalHandler(app.SignalStore, manager.SignalStorage())
	app.StatusHandler = handlers.NewStatusHandler(app.Worker, app.SignalStore, manager.WeightStorage())
	app.WorkerHandler = handlers.NewWorkerHandler(app.Worker)

	logger.Info().
		Int("detectors", app.Pipeline.Size()).
		Int("signals", app.SignalStore.Len()).
		Msg("Application initialized")

	return app, nil
}

// SetContextProvider installs the snapshot source for detection cycles.
func (a *App) SetContextProvider(provider interfaces.ContextProvider) {
	a.Worker.SetContextProvider(provider)
}

// Start starts the anticipation worker if enabled in configuration.
func (a *App) Start() error {
	if !a.Config.Anticipation.Enabled {
		a.Logger.Info().Msg("Anticipation worker disabled by configuration")
		return nil
	}
	return a.Worker.Start()
}

// Close stops the worker and releases storage resources.
func (a *App) Close() error {
	a.Worker.Stop()

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}

// reloadSignals restores the in-memory store from durable storage on cold
// start, so dismissals and expiry state survive restarts.
func (a *App) reloadSignals() error {
	signals, err := a.StorageManager.SignalStorage().GetActiveSignals(context.Background(), time.Now())
	if err != nil {
		return err
	}
	a.SignalStore.ReplaceAll(signals)
	return nil
}
