package detectors

import (
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/models"
)

// CalendarDetector flags upcoming events and schedule conflicts.
//
// Upcoming events within the look-ahead window are urgent; same-day events
// further out are attention. An overlap between two events is critical and
// references both entities, since schedule conflicts are the most
// actionable class. Events that have already started or finished are
// non-findings.
//
// Family-domain events are left to the family detector so the same event
// does not surface twice; conflicts are still checked across all domains.
type CalendarDetector struct {
	lookAhead time.Duration
}

// NewCalendarDetector creates a calendar detector from the anticipation
// configuration.
func NewCalendarDetector(cfg common.AnticipationConfig) *CalendarDetector {
	return &CalendarDetector{lookAhead: cfg.EventLookAhead}
}

// Name implements Detector.
func (d *CalendarDetector) Name() string {
	return "calendar"
}

// Detect implements Detector.
func (d *CalendarDetector) Detect(snap *models.AnticipationContext) []models.Signal {
	var signals []models.Signal

	for _, event := range snap.Events {
		if event.Domain == models.DomainFamily {
			continue
		}
		if sig, ok := upcomingEventSignal(snap, event, d.lookAhead, models.SignalCalendarUpcoming, event.Domain, d.Name()); ok {
			signals = append(signals, sig)
		}
	}

	signals = append(signals, d.detectConflicts(snap)...)
	return signals
}

// detectConflicts finds overlapping event pairs with a sort-and-sweep scan.
func (d *CalendarDetector) detectConflicts(snap *models.AnticipationContext) []models.Signal {
	events := make([]models.CalendarEvent, 0, len(snap.Events))
	for _, event := range snap.Events {
		// Finished events cannot conflict with anything actionable.
		if event.AllDay || !event.EndsAt.After(snap.Now) {
			continue
		}
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartsAt.Before(events[j].StartsAt)
	})

	var signals []models.Signal
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		if cur.StartsAt.Before(prev.EndsAt) {
			first, second := prev.ID, cur.ID
			if second < first {
				first, second = second, first
			}
			signals = append(signals, models.Signal{
				ID:               signalID(models.SignalCalendarConflict, first+"+"+second),
				Type:             models.SignalCalendarConflict,
				Severity:         models.SeverityCritical,
				Domain:           cur.Domain,
				Source:           d.Name(),
				Title:            fmt.Sprintf("Schedule conflict: %s / %s", prev.Title, cur.Title),
				Context:          fmt.Sprintf("%q starts at %s before %q ends at %s", cur.Title, cur.StartsAt.Format("15:04"), prev.Title, prev.EndsAt.Format("15:04")),
				SuggestedAction:  "Reschedule one of the events",
				RelatedEntityIDs: []string{prev.ID, cur.ID},
				CreatedAt:        snap.Now,
				ExpiresAt:        expireAt(earlier(prev.EndsAt, cur.EndsAt)),
			})
		}
	}
	return signals
}

// upcomingEventSignal applies the shared event windowing policy: starting
// within lookAhead is urgent, same-day further out is attention, anything
// already started or past is a non-finding.
func upcomingEventSignal(snap *models.AnticipationContext, event models.CalendarEvent, lookAhead time.Duration, sigType models.SignalType, domain models.Domain, source string) (models.Signal, bool) {
	if !event.StartsAt.After(snap.Now) {
		return models.Signal{}, false
	}

	until := event.StartsAt.Sub(snap.Now)
	var severity models.Severity
	var context string
	switch {
	case until <= lookAhead:
		severity = models.SeverityUrgent
		context = fmt.Sprintf("%q starts in %s", event.Title, formatDuration(until))
	case snap.SameDay(event.StartsAt):
		severity = models.SeverityAttention
		context = fmt.Sprintf("%q starts today at %s", event.Title, event.StartsAt.Format("15:04"))
	default:
		return models.Signal{}, false
	}

	return models.Signal{
		ID:               signalID(sigType, event.ID),
		Type:             sigType,
		Severity:         severity,
		Domain:           domain,
		Source:           source,
		Title:            fmt.Sprintf("Upcoming: %s", event.Title),
		Context:          context,
		RelatedEntityIDs: []string{event.ID},
		CreatedAt:        snap.Now,
		ExpiresAt:        expireAt(event.StartsAt),
	}, true
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
