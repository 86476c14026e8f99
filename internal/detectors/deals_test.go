package detectors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/auspex/internal/models"
)

func TestDealDetector_Staleness(t *testing.T) {
	d := NewDealDetector(testCfg())
	snap := snapAt(t)

	snap.Deals = []models.Deal{
		{
			ID: "d-active", Name: "Fresh deal", Domain: models.DomainBusinessRE,
			Value: 10000, LastActivityAt: snap.Now.Add(-24 * time.Hour),
		},
		{
			ID: "d-stale", Name: "Quiet deal", Domain: models.DomainBusinessRE,
			Value: 10000, LastActivityAt: snap.Now.Add(-15 * 24 * time.Hour),
		},
		{
			ID: "d-verystale", Name: "Cold deal", Domain: models.DomainBusinessRE,
			Value: 10000, LastActivityAt: snap.Now.Add(-30 * 24 * time.Hour),
		},
		{
			ID: "d-bigstale", Name: "Big quiet deal", Domain: models.DomainBusinessRE,
			Value: 80000, LastActivityAt: snap.Now.Add(-15 * 24 * time.Hour),
		},
		{
			ID: "d-closed", Name: "Won deal", Domain: models.DomainBusinessRE,
			Value: 90000, LastActivityAt: snap.Now.Add(-60 * 24 * time.Hour), Closed: true,
		},
	}

	signals := d.Detect(snap)
	require.Len(t, signals, 3)

	bySeverity := map[string]models.Severity{}
	for _, sig := range signals {
		assert.Equal(t, models.SignalStaleDeal, sig.Type)
		bySeverity[sig.RelatedEntityIDs[0]] = sig.Severity
	}

	assert.Equal(t, models.SeverityAttention, bySeverity["d-stale"])
	// Twice the stale threshold escalates, as does high deal value.
	assert.Equal(t, models.SeverityUrgent, bySeverity["d-verystale"])
	assert.Equal(t, models.SeverityUrgent, bySeverity["d-bigstale"])
}

func TestDealDetector_ClosingWindow(t *testing.T) {
	d := NewDealDetector(testCfg())
	snap := snapAt(t)

	closeSoon := snap.Now.Add(3 * 24 * time.Hour)
	closeLater := snap.Now.Add(30 * 24 * time.Hour)
	closePast := snap.Now.Add(-24 * time.Hour)

	snap.Deals = []models.Deal{
		{
			ID: "d-closing", Name: "Closing deal", Domain: models.DomainBusinessRE,
			LastActivityAt: snap.Now, ExpectedCloseAt: &closeSoon,
		},
		{
			ID: "d-distant", Name: "Distant deal", Domain: models.DomainBusinessRE,
			LastActivityAt: snap.Now, ExpectedCloseAt: &closeLater,
		},
		{
			ID: "d-pastclose", Name: "Slipped deal", Domain: models.DomainBusinessRE,
			LastActivityAt: snap.Now, ExpectedCloseAt: &closePast,
		},
	}

	signals := d.Detect(snap)
	require.Len(t, signals, 1)

	sig := signals[0]
	assert.Equal(t, models.SignalDealClosing, sig.Type)
	assert.Equal(t, models.SeverityUrgent, sig.Severity)
	assert.Equal(t, []string{"d-closing"}, sig.RelatedEntityIDs)
	require.NotNil(t, sig.ExpiresAt)
	assert.True(t, sig.ExpiresAt.Equal(closeSoon))
}

func TestDealDetector_StaleAndClosingAreIndependent(t *testing.T) {
	d := NewDealDetector(testCfg())
	snap := snapAt(t)

	closeSoon := snap.Now.Add(2 * 24 * time.Hour)
	snap.Deals = []models.Deal{
		{
			ID: "d-both", Name: "Stale and closing", Domain: models.DomainBusinessRE,
			LastActivityAt: snap.Now.Add(-20 * 24 * time.Hour), ExpectedCloseAt: &closeSoon,
		},
	}

	signals := d.Detect(snap)
	require.Len(t, signals, 2)
	assert.Equal(t, models.SignalStaleDeal, signals[0].Type)
	assert.Equal(t, models.SignalDealClosing, signals[1].Type)
}
