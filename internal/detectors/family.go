package detectors

import (
	"time"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/models"
)

// FamilyDetector raises awareness signals for family-domain calendar
// events using the shared event windowing policy. Past events are
// non-findings.
type FamilyDetector struct {
	lookAhead time.Duration
}

// NewFamilyDetector creates a family-awareness detector from the
// anticipation configuration.
func NewFamilyDetector(cfg common.AnticipationConfig) *FamilyDetector {
	return &FamilyDetector{lookAhead: cfg.EventLookAhead}
}

// Name implements Detector.
func (d *FamilyDetector) Name() string {
	return "family"
}

// Detect implements Detector.
func (d *FamilyDetector) Detect(snap *models.AnticipationContext) []models.Signal {
	var signals []models.Signal
	for _, event := range snap.Events {
		if event.Domain != models.DomainFamily {
			continue
		}
		if sig, ok := upcomingEventSignal(snap, event, d.lookAhead, models.SignalFamilyAwareness, models.DomainFamily, d.Name()); ok {
			sig.SuggestedAction = "Block out time for this"
			signals = append(signals, sig)
		}
	}
	return signals
}
