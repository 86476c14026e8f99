package detectors

import (
	"fmt"
	"time"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/models"
)

// AgingEmailDetector flags unanswered email threads that have been
// waiting too long. An important thread escalates one step sooner.
type AgingEmailDetector struct {
	agingAfter  time.Duration
	urgentAfter time.Duration
}

// NewAgingEmailDetector creates an aging-email detector from the
// anticipation configuration.
func NewAgingEmailDetector(cfg common.AnticipationConfig) *AgingEmailDetector {
	return &AgingEmailDetector{
		agingAfter:  cfg.EmailAgingAfter,
		urgentAfter: cfg.EmailUrgentAfter,
	}
}

// Name implements Detector.
func (d *AgingEmailDetector) Name() string {
	return "email"
}

// Detect implements Detector.
func (d *AgingEmailDetector) Detect(snap *models.AnticipationContext) []models.Signal {
	var signals []models.Signal
	for _, email := range snap.Emails {
		if email.Answered {
			continue
		}

		age := snap.Now.Sub(email.ReceivedAt)
		if age < d.agingAfter {
			continue
		}

		severity := models.SeverityAttention
		if age >= d.urgentAfter || email.Important {
			severity = models.SeverityUrgent
		}

		signals = append(signals, models.Signal{
			ID:               signalID(models.SignalAgingEmail, email.ID),
			Type:             models.SignalAgingEmail,
			Severity:         severity,
			Domain:           email.Domain,
			Source:           d.Name(),
			Title:            fmt.Sprintf("Unanswered: %s", email.Subject),
			Context:          fmt.Sprintf("Email from %s has waited %s for a reply", email.From, formatDuration(age)),
			SuggestedAction:  "Reply or archive the thread",
			RelatedEntityIDs: []string{email.ID},
			CreatedAt:        snap.Now,
		})
	}
	return signals
}
