package detectors

import (
	"fmt"
	"time"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/models"
)

// DeadlineDetector flags tasks approaching or past their deadline.
//
// Policy: overdue incomplete tasks are critical (the condition has not
// elapsed while the task still needs doing); due within the look-ahead
// window is urgent; due later the same day is attention.
type DeadlineDetector struct {
	lookAhead time.Duration
	ttl       time.Duration
}

// NewDeadlineDetector creates a deadline detector from the anticipation
// configuration.
func NewDeadlineDetector(cfg common.AnticipationConfig) *DeadlineDetector {
	return &DeadlineDetector{
		lookAhead: cfg.DeadlineLookAhead,
		ttl:       cfg.SignalTTL,
	}
}

// Name implements Detector.
func (d *DeadlineDetector) Name() string {
	return "deadline"
}

// Detect implements Detector.
func (d *DeadlineDetector) Detect(snap *models.AnticipationContext) []models.Signal {
	var signals []models.Signal
	for _, task := range snap.Tasks {
		if task.Completed || task.DueAt == nil {
			continue
		}

		due := *task.DueAt
		switch {
		case due.Before(snap.Now):
			overdue := snap.Now.Sub(due)
			signals = append(signals, models.Signal{
				ID:               signalID(models.SignalTaskOverdue, task.ID),
				Type:             models.SignalTaskOverdue,
				Severity:         models.SeverityCritical,
				Domain:           task.Domain,
				Source:           d.Name(),
				Title:            fmt.Sprintf("Overdue: %s", task.Title),
				Context:          fmt.Sprintf("Task was due %s ago", formatDuration(overdue)),
				SuggestedAction:  "Complete or reschedule the task",
				RelatedEntityIDs: []string{task.ID},
				CreatedAt:        snap.Now,
				ExpiresAt:        expireAt(snap.Now.Add(d.ttl)),
			})

		case due.Sub(snap.Now) <= d.lookAhead:
			signals = append(signals, models.Signal{
				ID:               signalID(models.SignalDeadlineApproaching, task.ID),
				Type:             models.SignalDeadlineApproaching,
				Severity:         models.SeverityUrgent,
				Domain:           task.Domain,
				Source:           d.Name(),
				Title:            fmt.Sprintf("Due soon: %s", task.Title),
				Context:          fmt.Sprintf("Task is due in %s", formatDuration(due.Sub(snap.Now))),
				SuggestedAction:  "Start the task now",
				RelatedEntityIDs: []string{task.ID},
				CreatedAt:        snap.Now,
				ExpiresAt:        expireAt(due),
			})

		case snap.SameDay(due):
			signals = append(signals, models.Signal{
				ID:               signalID(models.SignalDeadlineApproaching, task.ID),
				Type:             models.SignalDeadlineApproaching,
				Severity:         models.SeverityAttention,
				Domain:           task.Domain,
				Source:           d.Name(),
				Title:            fmt.Sprintf("Due today: %s", task.Title),
				Context:          fmt.Sprintf("Task is due today at %s", due.Format("15:04")),
				RelatedEntityIDs: []string{task.ID},
				CreatedAt:        snap.Now,
				ExpiresAt:        expireAt(due),
			})
		}
	}
	return signals
}

// formatDuration renders a duration in whole minutes or hours for
// human-readable signal context.
func formatDuration(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	if d < 48*time.Hour {
		return fmt.Sprintf("%.1f hours", d.Hours())
	}
	return fmt.Sprintf("%d days", int(d.Hours()/24))
}
