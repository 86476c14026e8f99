package detectors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/auspex/internal/models"
)

func TestStreakDetector_OutsideRiskWindow(t *testing.T) {
	d := NewStreakDetector(testCfg())
	snap := snapAt(t) // 14:00, ten hours before midnight

	snap.Habits = []models.Habit{
		{ID: "h-1", Name: "Reading", StreakDays: 30},
	}

	// Streak protection only kicks in near the end of the day.
	assert.Empty(t, d.Detect(snap))
}

func TestStreakDetector_InsideRiskWindow(t *testing.T) {
	d := NewStreakDetector(testCfg())
	now := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC) // 3h before midnight
	snap := models.EmptyContext(now)

	snap.Habits = []models.Habit{
		{ID: "h-established", Name: "Meditation", StreakDays: 30},
		{ID: "h-young", Name: "Journaling", StreakDays: 5},
		{ID: "h-tiny", Name: "Stretching", StreakDays: 2},
		{ID: "h-done", Name: "Running", StreakDays: 50, CompletedToday: true},
	}

	signals := d.Detect(snap)
	require.Len(t, signals, 2)

	bySeverity := map[string]models.Severity{}
	for _, sig := range signals {
		assert.Equal(t, models.SignalStreakAtRisk, sig.Type)
		assert.Equal(t, models.DomainPersonalGrowth, sig.Domain)
		require.NotNil(t, sig.ExpiresAt)
		assert.True(t, sig.ExpiresAt.Equal(snap.EndOfDay()))
		bySeverity[sig.RelatedEntityIDs[0]] = sig.Severity
	}

	assert.Equal(t, models.SeverityUrgent, bySeverity["h-established"])
	assert.Equal(t, models.SeverityAttention, bySeverity["h-young"])
}

func TestStreakDetector_KeepsExplicitDomain(t *testing.T) {
	d := NewStreakDetector(testCfg())
	now := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	snap := models.EmptyContext(now)

	snap.Habits = []models.Habit{
		{ID: "h-1", Name: "Review trades", Domain: models.DomainBusinessTrading, StreakDays: 10},
	}

	signals := d.Detect(snap)
	require.Len(t, signals, 1)
	assert.Equal(t, models.DomainBusinessTrading, signals[0].Domain)
}
