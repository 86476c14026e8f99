// Package worker implements the anticipation worker: the scheduler that
// drives detection cycles and owns the pipeline -> weighting -> store
// merge -> expiry sweep orchestration.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/detectors"
	"github.com/ternarybob/auspex/internal/feedback"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
	"github.com/ternarybob/auspex/internal/store"
)

// Status is a point-in-time read of the worker, safe to poll frequently.
type Status struct {
	IsActive  bool       `json:"is_active"`  // scheduler started
	IsRunning bool       `json:"is_running"` // a cycle is executing right now
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
	Enabled   bool       `json:"enabled"`
	Interval  string     `json:"interval"`
	Detectors int        `json:"detectors"`
}

// ConfigPatch is a partial configuration update. Nil fields are left
// unchanged.
type ConfigPatch struct {
	Enabled  *bool
	Interval *time.Duration
}

// Worker schedules anticipation cycles on a fixed interval with an
// overlap guard: at most one cycle executes per process, and a tick that
// arrives mid-cycle is dropped, not queued.
type Worker struct {
	pipeline *detectors.Pipeline
	store    *store.SignalStore
	signals  interfaces.SignalStorage
	loop     *feedback.Loop
	logger   arbor.ILogger

	mu        sync.Mutex // guards cfg, provider, cron state, lastRunAt
	cfg       common.AnticipationConfig
	provider  interfaces.ContextProvider
	cron      *cron.Cron
	entryID   cron.EntryID
	isActive  bool
	lastRunAt *time.Time

	runMu     sync.Mutex // guards isRunning
	isRunning bool
}

// New creates an anticipation worker. The context provider starts unset;
// cycles fall back to an empty snapshot plus the store's existing signals
// until SetContextProvider is called.
func New(cfg common.AnticipationConfig, pipeline *detectors.Pipeline, signalStore *store.SignalStore, signals interfaces.SignalStorage, loop *feedback.Loop, logger arbor.ILogger) *Worker {
	return &Worker{
		pipeline: pipeline,
		store:    signalStore,
		signals:  signals,
		loop:     loop,
		logger:   logger,
		cfg:      cfg,
	}
}

// SetContextProvider installs the snapshot source used by each cycle.
func (w *Worker) SetContextProvider(provider interfaces.ContextProvider) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.provider = provider
}

// Start runs one cycle synchronously so the first read sees fresh data,
// then schedules subsequent cycles on the configured interval. A no-op
// if already active.
func (w *Worker) Start() error {
	w.mu.Lock()
	if w.isActive {
		w.mu.Unlock()
		return nil
	}

	interval := w.cfg.Interval
	c := cron.New()
	entryID, err := c.AddFunc(fmt.Sprintf("@every %s", interval), w.RunCycle)
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("failed to schedule anticipation cycles: %w", err)
	}
	w.cron = c
	w.entryID = entryID
	w.isActive = true
	w.mu.Unlock()

	// First cycle before the scheduler starts ticking.
	w.RunCycle()

	// Stop or a disabling UpdateConfig may have landed while the first
	// cycle was in flight. Starting the scheduler then would leave it
	// ticking with no handle left to stop it.
	w.mu.Lock()
	if !w.isActive || w.cron != c {
		w.mu.Unlock()
		w.logger.Info().Msg("Worker stopped during first cycle, scheduler not started")
		return nil
	}
	c.Start()
	w.mu.Unlock()

	w.logger.Info().
		Str("interval", interval.String()).
		Int("detectors", w.pipeline.Size()).
		Msg("Anticipation worker started")
	return nil
}

// Stop cancels future scheduling. An in-flight cycle is allowed to finish
// and still writes its results; cycles are short and non-blocking.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.isActive {
		return
	}
	w.cron.Stop()
	w.cron = nil
	w.isActive = false
	w.logger.Info().Msg("Anticipation worker stopped")
}

// UpdateConfig merges a partial configuration update. If the worker was
// active it is stopped, reconfigured, and restarted only while still
// enabled; otherwise the new settings take effect on the next Start.
func (w *Worker) UpdateConfig(patch ConfigPatch) error {
	w.mu.Lock()
	wasActive := w.isActive
	w.mu.Unlock()

	if wasActive {
		w.Stop()
	}

	w.mu.Lock()
	if patch.Enabled != nil {
		w.cfg.Enabled = *patch.Enabled
	}
	if patch.Interval != nil {
		w.cfg.Interval = *patch.Interval
	}
	enabled := w.cfg.Enabled
	w.mu.Unlock()

	w.logger.Info().
		Bool("enabled", enabled).
		Str("interval", w.Config().Interval.String()).
		Msg("Anticipation config updated")

	if wasActive && enabled {
		return w.Start()
	}
	return nil
}

// Config returns a copy of the current anticipation configuration.
func (w *Worker) Config() common.AnticipationConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// Status returns the worker's current state. Pure read, no side effects.
func (w *Worker) Status() Status {
	w.runMu.Lock()
	running := w.isRunning
	w.runMu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	var nextRunAt *time.Time
	if w.isActive && w.cron != nil {
		if entry := w.cron.Entry(w.entryID); !entry.Next.IsZero() {
			nextRunAt = &entry.Next
		}
	}

	return Status{
		IsActive:  w.isActive,
		IsRunning: running,
		LastRunAt: w.lastRunAt,
		NextRunAt: nextRunAt,
		Enabled:   w.cfg.Enabled,
		Interval:  w.cfg.Interval.String(),
		Detectors: w.pipeline.Size(),
	}
}

// TriggerNow runs a cycle in the background, for the manual force-run
// endpoint. The overlap guard still applies.
func (w *Worker) TriggerNow() {
	common.SafeGo(w.logger, "anticipation-cycle", w.RunCycle)
}

// RunCycle executes one detection cycle. If a cycle is already executing
// the call returns immediately without starting a second one. Failures in
// any stage are logged and leave the store in its prior state; nothing
// propagates to the host process.
func (w *Worker) RunCycle() {
	w.runMu.Lock()
	if w.isRunning {
		w.runMu.Unlock()
		w.logger.Debug().Msg("Cycle already executing, dropping this tick")
		return
	}
	w.isRunning = true
	w.runMu.Unlock()

	defer func() {
		w.runMu.Lock()
		w.isRunning = false
		w.runMu.Unlock()
	}()

	cycleID := common.NewCycleID()
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			w.logger.Error().
				Str("cycle_id", cycleID).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(buf[:n])).
				Msg("PANIC RECOVERED in anticipation cycle")
		}
	}()

	started := time.Now()
	ctx := context.Background()

	snap, err := w.snapshot(ctx)
	if err != nil {
		w.logger.Error().
			Str("cycle_id", cycleID).
			Err(err).
			Msg("Context acquisition failed, store untouched until next attempt")
		return
	}

	raw := w.pipeline.Run(snap)

	weights := w.recomputeWeights(ctx, cycleID)
	for i := range raw {
		raw[i].Score = feedback.Apply(raw[i].Severity.BaseScore(), raw[i], weights)
	}
	models.SortByPriority(raw)

	w.store.AddSignals(raw)

	if persisted, err := w.signals.SaveSignals(ctx, raw); err != nil {
		w.logger.Warn().
			Str("cycle_id", cycleID).
			Err(err).
			Msg("Failed to persist signal batch")
	} else if persisted < len(raw) {
		w.logger.Warn().
			Str("cycle_id", cycleID).
			Int("persisted", persisted).
			Int("batch", len(raw)).
			Msg("Signal batch partially persisted")
	}

	swept := w.store.PurgeExpiredDismissed(snap.Now)

	w.mu.Lock()
	w.lastRunAt = &started
	w.mu.Unlock()

	w.logger.Info().
		Str("cycle_id", cycleID).
		Int("produced", len(raw)).
		Int("swept", swept).
		Int("active", w.store.Counts(snap.Now).Total).
		Dur("duration", time.Since(started)).
		Msg("Anticipation cycle completed")
}

// snapshot fetches the cycle's context from the configured provider, or
// falls back to an empty snapshot plus whatever signals already exist in
// the store.
func (w *Worker) snapshot(ctx context.Context) (*models.AnticipationContext, error) {
	w.mu.Lock()
	provider := w.provider
	w.mu.Unlock()

	if provider == nil {
		snap := models.EmptyContext(time.Now())
		snap.ExistingSignals = w.store.All()
		return snap, nil
	}

	snap, err := provider.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot provider failed: %w", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("snapshot provider returned no context")
	}
	if snap.Now.IsZero() {
		return nil, fmt.Errorf("snapshot has no time anchor")
	}
	return snap, nil
}

// recomputeWeights rebuilds the weight table from the persisted signal
// history. On any failure it falls back to the previously persisted
// weights, and failing that to an empty table (signals rank on base
// severity alone).
func (w *Worker) recomputeWeights(ctx context.Context, cycleID string) map[string]models.SignalWeight {
	history, err := w.signals.GetAllSignals(ctx)
	if err != nil {
		w.logger.Warn().
			Str("cycle_id", cycleID).
			Err(err).
			Msg("Failed to load signal history, falling back to in-memory store")
		history = w.store.All()
	}

	rows, err := w.loop.Recompute(ctx, history)
	if err == nil {
		return feedback.WeightMap(rows)
	}

	w.logger.Warn().
		Str("cycle_id", cycleID).
		Err(err).
		Msg("Weight recompute failed, using previously persisted weights")

	weights, err := w.loop.CurrentWeights(ctx)
	if err != nil {
		w.logger.Warn().
			Str("cycle_id", cycleID).
			Err(err).
			Msg("Failed to load persisted weights, ranking on base severity")
		return map[string]models.SignalWeight{}
	}
	return weights
}
