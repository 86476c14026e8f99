package detectors

import (
	"fmt"
	"time"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/models"
)

// Streaks shorter than this are not worth protecting with a signal.
const minStreakDays = 3

// A streak this long escalates from attention to urgent when at risk.
const establishedStreakDays = 14

// StreakDetector flags habit streaks at risk: an uncompleted habit with a
// running streak inside the final window of the day. Completed habits and
// young streaks are non-findings.
type StreakDetector struct {
	riskWindow time.Duration
}

// NewStreakDetector creates a streak-at-risk detector from the
// anticipation configuration.
func NewStreakDetector(cfg common.AnticipationConfig) *StreakDetector {
	return &StreakDetector{riskWindow: cfg.StreakRiskWindow}
}

// Name implements Detector.
func (d *StreakDetector) Name() string {
	return "streak"
}

// Detect implements Detector.
func (d *StreakDetector) Detect(snap *models.AnticipationContext) []models.Signal {
	endOfDay := snap.EndOfDay()
	if endOfDay.Sub(snap.Now) > d.riskWindow {
		return nil
	}

	var signals []models.Signal
	for _, habit := range snap.Habits {
		if habit.CompletedToday || habit.StreakDays < minStreakDays {
			continue
		}

		severity := models.SeverityAttention
		if habit.StreakDays >= establishedStreakDays {
			severity = models.SeverityUrgent
		}

		domain := habit.Domain
		if domain == "" {
			domain = models.DomainPersonalGrowth
		}

		signals = append(signals, models.Signal{
			ID:               signalID(models.SignalStreakAtRisk, habit.ID),
			Type:             models.SignalStreakAtRisk,
			Severity:         severity,
			Domain:           domain,
			Source:           d.Name(),
			Title:            fmt.Sprintf("Streak at risk: %s", habit.Name),
			Context:          fmt.Sprintf("%d-day streak ends at midnight, %s left", habit.StreakDays, formatDuration(endOfDay.Sub(snap.Now))),
			SuggestedAction:  "Complete the habit before the day ends",
			RelatedEntityIDs: []string{habit.ID},
			CreatedAt:        snap.Now,
			ExpiresAt:        expireAt(endOfDay),
		})
	}
	return signals
}
