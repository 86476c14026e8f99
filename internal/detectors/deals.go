package detectors

import (
	"fmt"
	"time"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/models"
)

// Deals at or above this value escalate staleness to urgent.
const highValueDeal = 50000

// DealDetector flags pipeline deals that have gone quiet and deals whose
// expected close date is inside the closing window. A close date already
// in the past is an elapsed condition and yields nothing; the staleness
// rule picks those deals up through their inactivity instead.
type DealDetector struct {
	staleAfter    time.Duration
	closingWindow time.Duration
	ttl           time.Duration
}

// NewDealDetector creates a deal detector from the anticipation
// configuration.
func NewDealDetector(cfg common.AnticipationConfig) *DealDetector {
	return &DealDetector{
		staleAfter:    cfg.DealStaleAfter,
		closingWindow: cfg.DealClosingWindow,
		ttl:           cfg.SignalTTL,
	}
}

// Name implements Detector.
func (d *DealDetector) Name() string {
	return "deals"
}

// Detect implements Detector.
func (d *DealDetector) Detect(snap *models.AnticipationContext) []models.Signal {
	var signals []models.Signal
	for _, deal := range snap.Deals {
		if deal.Closed {
			continue
		}

		if idle := snap.Now.Sub(deal.LastActivityAt); idle >= d.staleAfter {
			severity := models.SeverityAttention
			if idle >= 2*d.staleAfter || deal.Value >= highValueDeal {
				severity = models.SeverityUrgent
			}
			signals = append(signals, models.Signal{
				ID:               signalID(models.SignalStaleDeal, deal.ID),
				Type:             models.SignalStaleDeal,
				Severity:         severity,
				Domain:           deal.Domain,
				Source:           d.Name(),
				Title:            fmt.Sprintf("Deal going cold: %s", deal.Name),
				Context:          fmt.Sprintf("No activity on %q (%s stage) for %s", deal.Name, deal.Stage, formatDuration(idle)),
				SuggestedAction:  "Follow up with the counterparty",
				RelatedEntityIDs: []string{deal.ID},
				CreatedAt:        snap.Now,
				ExpiresAt:        expireAt(snap.Now.Add(d.ttl)),
			})
		}

		if deal.ExpectedCloseAt != nil && deal.ExpectedCloseAt.After(snap.Now) {
			if until := deal.ExpectedCloseAt.Sub(snap.Now); until <= d.closingWindow {
				signals = append(signals, models.Signal{
					ID:               signalID(models.SignalDealClosing, deal.ID),
					Type:             models.SignalDealClosing,
					Severity:         models.SeverityUrgent,
					Domain:           deal.Domain,
					Source:           d.Name(),
					Title:            fmt.Sprintf("Closing soon: %s", deal.Name),
					Context:          fmt.Sprintf("%q is expected to close in %s", deal.Name, formatDuration(until)),
					SuggestedAction:  "Prepare closing paperwork",
					RelatedEntityIDs: []string{deal.ID},
					CreatedAt:        snap.Now,
					ExpiresAt:        expireAt(*deal.ExpectedCloseAt),
				})
			}
		}
	}
	return signals
}
