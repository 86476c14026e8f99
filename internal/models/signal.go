package models

import (
	"sort"
	"time"
)

// SignalType identifies the detection rule that produced a signal.
type SignalType string

const (
	SignalDeadlineApproaching SignalType = "deadline_approaching"
	SignalTaskOverdue         SignalType = "task_overdue"
	SignalCalendarUpcoming    SignalType = "calendar_upcoming"
	SignalCalendarConflict    SignalType = "calendar_conflict"
	SignalFamilyAwareness     SignalType = "family_awareness"
	SignalAgingEmail          SignalType = "aging_email"
	SignalStreakAtRisk        SignalType = "streak_at_risk"
	SignalStaleDeal           SignalType = "stale_deal"
	SignalDealClosing         SignalType = "deal_closing"
	SignalLowBalance          SignalType = "low_balance"
	SignalBillDue             SignalType = "bill_due"
)

// Severity orders signals by urgency: critical > urgent > attention > info.
type Severity string

const (
	SeverityCritical  Severity = "critical"
	SeverityUrgent    Severity = "urgent"
	SeverityAttention Severity = "attention"
	SeverityInfo      Severity = "info"
)

// Rank returns the sort key for a severity. Lower rank sorts first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityUrgent:
		return 1
	case SeverityAttention:
		return 2
	case SeverityInfo:
		return 3
	default:
		return 4
	}
}

// BaseScore returns the unweighted priority score for a severity.
// The feedback loop multiplies this by the learned weight modifier.
func (s Severity) BaseScore() float64 {
	switch s {
	case SeverityCritical:
		return 100
	case SeverityUrgent:
		return 75
	case SeverityAttention:
		return 50
	case SeverityInfo:
		return 25
	default:
		return 0
	}
}

// Domain identifies the life/business area a signal belongs to.
type Domain string

const (
	DomainPersonalGrowth  Domain = "personal_growth"
	DomainFamily          Domain = "family"
	DomainFinance         Domain = "finance"
	DomainBusinessRE      Domain = "business_re"
	DomainBusinessTrading Domain = "business_trading"
	DomainBusinessTech    Domain = "business_tech"
)

// Signal represents a single alert instance produced by a detector.
//
// Lifecycle: created by a detector during a cycle, merged into the store
// (replace-on-id), mutated only via dismiss/act-on, removed only by the
// expiry sweep. Detectors never remove signals.
type Signal struct {
	ID               string     `json:"id" badgerhold:"key"`
	Type             SignalType `json:"type"`
	Severity         Severity   `json:"severity"`
	Domain           Domain     `json:"domain"`
	Source           string     `json:"source"` // detector identifier, distinct from Type
	Title            string     `json:"title"`
	Context          string     `json:"context"`
	SuggestedAction  string     `json:"suggested_action,omitempty"`
	AutoActionable   bool       `json:"auto_actionable"`
	IsDismissed      bool       `json:"is_dismissed"`
	IsActedOn        bool       `json:"is_acted_on"`
	RelatedEntityIDs []string   `json:"related_entity_ids,omitempty"`
	Score            float64    `json:"score"` // feedback-weighted priority, set before store insertion
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// IsExpired reports whether the signal's expiry timestamp has passed.
// Signals without an expiry never expire.
func (s *Signal) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// IsActive reports whether the signal should appear in active views:
// not dismissed and not past its expiry timestamp.
func (s *Signal) IsActive(now time.Time) bool {
	return !s.IsDismissed && !s.IsExpired(now)
}

// SortByPriority sorts signals in display/ranking order: severity rank
// ascending (critical first), then weighted score descending, then
// creation time, then ID for a stable order.
//
// Both the anticipation worker (before store insertion) and the store
// views use this single comparator so the two orderings cannot drift.
func SortByPriority(signals []Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		a, b := &signals[i], &signals[j]
		if ra, rb := a.Severity.Rank(), b.Severity.Rank(); ra != rb {
			return ra < rb
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// SignalCounts summarizes the active signal set for dashboard badges.
// Urgent folds critical and urgent together.
type SignalCounts struct {
	Total     int `json:"total"`
	Urgent    int `json:"urgent"`
	Attention int `json:"attention"`
	Info      int `json:"info"`
}
