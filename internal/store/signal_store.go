// Package store holds the process-wide in-memory signal collection: the
// single source of truth every view reads. All mutation goes through a
// mutex so a cycle merging a batch and a user dismissing a signal cannot
// race on the backing collection.
package store

import (
	"sync"
	"time"

	"github.com/ternarybob/auspex/internal/models"
)

// SignalStore is a single-writer, many-reader in-memory signal collection.
// The backing map is never exposed; every read returns copies.
type SignalStore struct {
	mu      sync.RWMutex
	signals map[string]models.Signal
}

// NewSignalStore creates an empty signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{
		signals: make(map[string]models.Signal),
	}
}

// AddSignals merges a batch with replace-on-id semantics: each incoming
// signal fully replaces any stored signal with the same ID. The batch is
// one state transition from the caller's perspective.
func (s *SignalStore) AddSignals(batch []models.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sig := range batch {
		s.signals[sig.ID] = sig
	}
}

// AddSignal merges a single signal with replace-on-id semantics.
func (s *SignalStore) AddSignal(sig models.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals[sig.ID] = sig
}

// Dismiss sets is_dismissed on the matching signal. A miss is a no-op,
// not an error. Returns the updated signal and whether it was found so
// the caller can persist the outcome.
func (s *SignalStore) Dismiss(id string) (models.Signal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig, ok := s.signals[id]
	if !ok {
		return models.Signal{}, false
	}
	sig.IsDismissed = true
	s.signals[id] = sig
	return sig, true
}

// ActOn sets is_acted_on on the matching signal. Dismiss and act-on are
// independent setters: neither clears nor implies the other. A miss is a
// no-op.
func (s *SignalStore) ActOn(id string) (models.Signal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig, ok := s.signals[id]
	if !ok {
		return models.Signal{}, false
	}
	sig.IsActedOn = true
	s.signals[id] = sig
	return sig, true
}

// ClearExpired removes every signal whose expiry timestamp has passed,
// regardless of dismissal state, and returns the number removed.
func (s *SignalStore) ClearExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sig := range s.signals {
		if sig.IsExpired(now) {
			delete(s.signals, id)
			removed++
		}
	}
	return removed
}

// PurgeExpiredDismissed removes signals that are both expired and
// dismissed: the cycle-end sweep criterion, which keeps expired-but-live
// signals visible until the user has seen them.
func (s *SignalStore) PurgeExpiredDismissed(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sig := range s.signals {
		if sig.IsDismissed && sig.IsExpired(now) {
			delete(s.signals, id)
			removed++
		}
	}
	return removed
}

// ReplaceAll swaps the entire collection, used when state is reloaded
// from durable storage on cold start.
func (s *SignalStore) ReplaceAll(signals []models.Signal) {
	next := make(map[string]models.Signal, len(signals))
	for _, sig := range signals {
		next[sig.ID] = sig
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = next
}

// Active returns signals that are neither dismissed nor expired, in
// priority order.
func (s *SignalStore) Active(now time.Time) []models.Signal {
	return s.filtered(func(sig *models.Signal) bool {
		return sig.IsActive(now)
	})
}

// BySeverity returns active signals at or above the given severity.
func (s *SignalStore) BySeverity(now time.Time, min models.Severity) []models.Signal {
	maxRank := min.Rank()
	return s.filtered(func(sig *models.Signal) bool {
		return sig.IsActive(now) && sig.Severity.Rank() <= maxRank
	})
}

// ByDomain returns active signals for one domain.
func (s *SignalStore) ByDomain(now time.Time, domain models.Domain) []models.Signal {
	return s.filtered(func(sig *models.Signal) bool {
		return sig.IsActive(now) && sig.Domain == domain
	})
}

// ByType returns active signals of one type.
func (s *SignalStore) ByType(now time.Time, t models.SignalType) []models.Signal {
	return s.filtered(func(sig *models.Signal) bool {
		return sig.IsActive(now) && sig.Type == t
	})
}

// Counts summarizes the active set. Urgent folds critical and urgent
// together, matching the dashboard badge.
func (s *SignalStore) Counts(now time.Time) models.SignalCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counts models.SignalCounts
	for _, sig := range s.signals {
		if !sig.IsActive(now) {
			continue
		}
		counts.Total++
		switch sig.Severity {
		case models.SeverityCritical, models.SeverityUrgent:
			counts.Urgent++
		case models.SeverityAttention:
			counts.Attention++
		case models.SeverityInfo:
			counts.Info++
		}
	}
	return counts
}

// All returns a copy of every stored signal, dismissed and expired
// included, in priority order.
func (s *SignalStore) All() []models.Signal {
	return s.filtered(func(*models.Signal) bool { return true })
}

// Len returns the number of stored signals.
func (s *SignalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.signals)
}

func (s *SignalStore) filtered(keep func(*models.Signal) bool) []models.Signal {
	s.mu.RLock()
	out := make([]models.Signal, 0, len(s.signals))
	for _, sig := range s.signals {
		if keep(&sig) {
			out = append(out, sig)
		}
	}
	s.mu.RUnlock()

	models.SortByPriority(out)
	return out
}
