package detectors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/models"
)

// testCfg returns the default anticipation thresholds used across the
// detector tests.
func testCfg() common.AnticipationConfig {
	return common.NewDefaultConfig().Anticipation
}

// snapAt builds a snapshot anchored mid-afternoon so same-day windows
// have room on both sides.
func snapAt(t *testing.T) *models.AnticipationContext {
	t.Helper()
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	return models.EmptyContext(now)
}

type panickingDetector struct{}

func (panickingDetector) Name() string { return "boom" }
func (panickingDetector) Detect(*models.AnticipationContext) []models.Signal {
	panic("detector exploded")
}

type staticDetector struct {
	name    string
	signals []models.Signal
}

func (d staticDetector) Name() string                                      { return d.name }
func (d staticDetector) Detect(*models.AnticipationContext) []models.Signal { return d.signals }

func TestPipeline_Run_IsolatesPanickingDetector(t *testing.T) {
	logger := common.GetLogger()
	snap := snapAt(t)

	before := staticDetector{name: "before", signals: []models.Signal{{ID: "s1", Source: "before"}}}
	after := staticDetector{name: "after", signals: []models.Signal{{ID: "s2", Source: "after"}}}

	p := NewPipeline(logger, before, panickingDetector{}, after)

	require.NotPanics(t, func() {
		results := p.Run(snap)
		require.Len(t, results, 2)
		assert.Equal(t, "s1", results[0].ID)
		assert.Equal(t, "s2", results[1].ID)
	})
}

func TestPipeline_Run_EmptySnapshot(t *testing.T) {
	p := DefaultPipeline(testCfg(), common.GetLogger())
	assert.Equal(t, 7, p.Size())
	assert.Empty(t, p.Run(snapAt(t)))
}

func TestSignalID_DeterministicAcrossCycles(t *testing.T) {
	cfg := testCfg()
	logger := common.GetLogger()
	p := DefaultPipeline(cfg, logger)

	due := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	build := func(now time.Time) *models.AnticipationContext {
		snap := models.EmptyContext(now)
		snap.Tasks = []models.Task{{ID: "task-1", Title: "File the report", Domain: models.DomainBusinessTech, DueAt: &due}}
		return snap
	}

	first := p.Run(build(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)))
	second := p.Run(build(time.Date(2026, 3, 10, 14, 5, 0, 0, time.UTC)))

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	// Same condition re-detected on the next cycle keeps the same ID so the
	// store merges instead of duplicating.
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45 minutes", formatDuration(45*time.Minute))
	assert.Equal(t, "1.5 hours", formatDuration(90*time.Minute))
	assert.Equal(t, "3 days", formatDuration(72*time.Hour))
}
