package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/detectors"
	"github.com/ternarybob/auspex/internal/feedback"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
	"github.com/ternarybob/auspex/internal/store"
)

// fakeSignalStorage is an in-memory SignalStorage for worker tests.
type fakeSignalStorage struct {
	mu      sync.Mutex
	signals map[string]models.Signal
}

func newFakeSignalStorage() *fakeSignalStorage {
	return &fakeSignalStorage{signals: make(map[string]models.Signal)}
}

func (f *fakeSignalStorage) SaveSignal(_ context.Context, s *models.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals[s.ID] = *s
	return nil
}

func (f *fakeSignalStorage) SaveSignals(ctx context.Context, signals []models.Signal) (int, error) {
	for i := range signals {
		f.SaveSignal(ctx, &signals[i])
	}
	return len(signals), nil
}

func (f *fakeSignalStorage) GetSignal(_ context.Context, id string) (*models.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.signals[id]
	if !ok {
		return nil, interfaces.ErrSignalNotFound
	}
	return &s, nil
}

func (f *fakeSignalStorage) GetAllSignals(_ context.Context) ([]models.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Signal, 0, len(f.signals))
	for _, s := range f.signals {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSignalStorage) GetActiveSignals(ctx context.Context, now time.Time) ([]models.Signal, error) {
	all, _ := f.GetAllSignals(ctx)
	out := make([]models.Signal, 0, len(all))
	for _, s := range all {
		if s.IsActive(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSignalStorage) DeleteSignal(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.signals[id]; !ok {
		return interfaces.ErrSignalNotFound
	}
	delete(f.signals, id)
	return nil
}

func (f *fakeSignalStorage) CountSignals(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.signals), nil
}

// fakeWeightStorage is a minimal in-memory WeightStorage.
type fakeWeightStorage struct {
	mu   sync.Mutex
	rows map[string]models.SignalWeight
}

func newFakeWeightStorage() *fakeWeightStorage {
	return &fakeWeightStorage{rows: make(map[string]models.SignalWeight)}
}

func (f *fakeWeightStorage) UpsertWeight(_ context.Context, w *models.SignalWeight) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[w.Key] = *w
	return nil
}

func (f *fakeWeightStorage) GetWeight(_ context.Context, t models.SignalType, d models.Domain) (*models.SignalWeight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.rows[models.WeightKey(t, d)]
	if !ok {
		return nil, interfaces.ErrWeightNotFound
	}
	return &w, nil
}

func (f *fakeWeightStorage) GetAllWeights(_ context.Context) ([]models.SignalWeight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.SignalWeight, 0, len(f.rows))
	for _, w := range f.rows {
		out = append(out, w)
	}
	return out, nil
}

// blockingDetector parks inside Detect until released, and counts calls.
type blockingDetector struct {
	mu       sync.Mutex
	calls    int
	entered  chan struct{}
	release  chan struct{}
	blocking bool
}

func (d *blockingDetector) Name() string { return "blocking" }

func (d *blockingDetector) Detect(*models.AnticipationContext) []models.Signal {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	if d.blocking {
		d.entered <- struct{}{}
		<-d.release
	}
	return nil
}

func (d *blockingDetector) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func newTestWorker(t *testing.T, pipeline *detectors.Pipeline) (*Worker, *store.SignalStore, *fakeSignalStorage) {
	t.Helper()
	logger := common.GetLogger()
	signalStore := store.NewSignalStore()
	signalStorage := newFakeSignalStorage()
	loop := feedback.NewLoop(newFakeWeightStorage(), logger)

	cfg := common.NewDefaultConfig().Anticipation
	cfg.Interval = time.Minute

	w := New(cfg, pipeline, signalStore, signalStorage, loop, logger)
	return w, signalStore, signalStorage
}

func TestWorker_RunCycle_MergesAndPersists(t *testing.T) {
	logger := common.GetLogger()

	due := time.Now().Add(30 * time.Minute)
	provider := interfaces.ContextProviderFunc(func(context.Context) (*models.AnticipationContext, error) {
		snap := models.EmptyContext(time.Now())
		snap.Tasks = []models.Task{{ID: "t-1", Title: "Settle invoice", Domain: models.DomainFinance, DueAt: &due}}
		return snap, nil
	})

	cfg := common.NewDefaultConfig().Anticipation
	pipeline := detectors.DefaultPipeline(cfg, logger)
	w, signalStore, signalStorage := newTestWorker(t, pipeline)
	w.SetContextProvider(provider)

	w.RunCycle()

	active := signalStore.Active(time.Now())
	require.Len(t, active, 1)
	assert.Equal(t, models.SignalDeadlineApproaching, active[0].Type)
	// No weight history yet, so the score is the bare severity base.
	assert.Equal(t, models.SeverityUrgent.BaseScore(), active[0].Score)

	count, err := signalStorage.CountSignals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	status := w.Status()
	require.NotNil(t, status.LastRunAt)
	assert.False(t, status.IsRunning)
}

func TestWorker_RunCycle_OverlapGuardDropsTick(t *testing.T) {
	logger := common.GetLogger()
	d := &blockingDetector{
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
		blocking: true,
	}
	pipeline := detectors.NewPipeline(logger, d)
	w, _, _ := newTestWorker(t, pipeline)

	done := make(chan struct{})
	go func() {
		w.RunCycle()
		close(done)
	}()

	<-d.entered
	assert.True(t, w.Status().IsRunning)

	// A tick arriving mid-cycle is dropped, not queued.
	w.RunCycle()
	assert.Equal(t, 1, d.callCount())

	close(d.release)
	<-done

	assert.False(t, w.Status().IsRunning)
}

func TestWorker_RunCycle_ProviderFailureLeavesStoreUntouched(t *testing.T) {
	logger := common.GetLogger()
	pipeline := detectors.DefaultPipeline(common.NewDefaultConfig().Anticipation, logger)
	w, signalStore, _ := newTestWorker(t, pipeline)

	signalStore.AddSignal(models.Signal{ID: "existing", Severity: models.SeverityInfo})

	w.SetContextProvider(interfaces.ContextProviderFunc(func(context.Context) (*models.AnticipationContext, error) {
		return nil, fmt.Errorf("snapshot source offline")
	}))

	w.RunCycle()

	assert.Equal(t, 1, signalStore.Len())
	assert.Nil(t, w.Status().LastRunAt)
}

func TestWorker_RunCycle_SweepsExpiredDismissed(t *testing.T) {
	logger := common.GetLogger()
	pipeline := detectors.NewPipeline(logger) // no detectors
	w, signalStore, _ := newTestWorker(t, pipeline)

	past := time.Now().Add(-time.Hour)
	swept := models.Signal{ID: "swept", Severity: models.SeverityInfo, IsDismissed: true, ExpiresAt: &past}
	kept := models.Signal{ID: "kept", Severity: models.SeverityInfo, ExpiresAt: &past}
	signalStore.AddSignals([]models.Signal{swept, kept})

	w.RunCycle()

	require.Equal(t, 1, signalStore.Len())
	assert.Equal(t, "kept", signalStore.All()[0].ID)
}

func TestWorker_StartStop(t *testing.T) {
	logger := common.GetLogger()
	pipeline := detectors.NewPipeline(logger)
	w, _, _ := newTestWorker(t, pipeline)

	require.NoError(t, w.Start())
	status := w.Status()
	assert.True(t, status.IsActive)
	// Start runs the first cycle synchronously.
	assert.NotNil(t, status.LastRunAt)
	// The scheduler is ticking, so the next run is known.
	assert.NotNil(t, status.NextRunAt)

	// Starting twice is a no-op.
	require.NoError(t, w.Start())

	w.Stop()
	stopped := w.Status()
	assert.False(t, stopped.IsActive)
	assert.Nil(t, stopped.NextRunAt)

	// Stopping twice is a no-op.
	w.Stop()
}

func TestWorker_StopDuringFirstCycleCancelsScheduling(t *testing.T) {
	logger := common.GetLogger()
	d := &blockingDetector{
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
		blocking: true,
	}
	pipeline := detectors.NewPipeline(logger, d)
	w, _, _ := newTestWorker(t, pipeline)

	interval := 50 * time.Millisecond
	require.NoError(t, w.UpdateConfig(ConfigPatch{Interval: &interval}))

	started := make(chan error, 1)
	go func() { started <- w.Start() }()

	// Stop lands while Start's synchronous first cycle is still in flight.
	<-d.entered
	w.Stop()
	assert.False(t, w.Status().IsActive)

	close(d.release)
	require.NoError(t, <-started)

	// The scheduler must not come up after Stop: with a 50ms interval any
	// stray scheduling would produce more detector calls well within this
	// window.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, d.callCount())
	assert.False(t, w.Status().IsActive)
}

func TestWorker_UpdateConfig(t *testing.T) {
	logger := common.GetLogger()
	pipeline := detectors.NewPipeline(logger)
	w, _, _ := newTestWorker(t, pipeline)

	interval := 30 * time.Second
	require.NoError(t, w.UpdateConfig(ConfigPatch{Interval: &interval}))
	assert.Equal(t, interval, w.Config().Interval)

	// Nil fields leave settings unchanged.
	enabled := false
	require.NoError(t, w.UpdateConfig(ConfigPatch{Enabled: &enabled}))
	cfg := w.Config()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, interval, cfg.Interval)
}

func TestWorker_UpdateConfig_DisableStopsActiveWorker(t *testing.T) {
	logger := common.GetLogger()
	pipeline := detectors.NewPipeline(logger)
	w, _, _ := newTestWorker(t, pipeline)

	require.NoError(t, w.Start())
	require.True(t, w.Status().IsActive)

	enabled := false
	require.NoError(t, w.UpdateConfig(ConfigPatch{Enabled: &enabled}))
	assert.False(t, w.Status().IsActive)
}

func TestWorker_SnapshotFallbackWithoutProvider(t *testing.T) {
	logger := common.GetLogger()
	pipeline := detectors.NewPipeline(logger)
	w, signalStore, _ := newTestWorker(t, pipeline)

	signalStore.AddSignal(models.Signal{ID: "existing", Severity: models.SeverityInfo})

	snap, err := w.snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Now.IsZero())
	assert.Len(t, snap.ExistingSignals, 1)
}
