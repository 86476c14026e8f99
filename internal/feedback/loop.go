// Package feedback converts historical signal outcomes into forward-looking
// priority multipliers, learned per (signal type, domain) pairing.
package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
)

const (
	// minInteractions is the sample size below which effectiveness stays
	// neutral, so outliers cannot swing behavior on sparse data.
	minInteractions = 5

	// neutralEffectiveness is the score used for unsampled pairings.
	neutralEffectiveness = 0.5

	// weightFloor keeps an ignored pairing suppressed but never silenced.
	weightFloor = 0.3

	// weightSpan maps effectiveness [0,1] onto modifiers [0.3,2.0].
	weightSpan = 1.7
)

// Aggregate counts generated/dismissed/acted-on outcomes per (type, domain)
// pairing. A signal that is both acted on and dismissed counts as acted on
// only: acting is the stronger engagement evidence and counting both would
// double-count one signal in the interaction total.
func Aggregate(signals []models.Signal) map[string]*models.SignalWeight {
	agg := make(map[string]*models.SignalWeight)
	for _, sig := range signals {
		key := models.WeightKey(sig.Type, sig.Domain)
		w, ok := agg[key]
		if !ok {
			w = &models.SignalWeight{
				Key:        key,
				SignalType: sig.Type,
				Domain:     sig.Domain,
			}
			agg[key] = w
		}
		w.TotalGenerated++
		switch {
		case sig.IsActedOn:
			w.TotalActedOn++
		case sig.IsDismissed:
			w.TotalDismissed++
		}
	}
	return agg
}

// Effectiveness returns acted-on / (acted-on + dismissed), or the neutral
// 0.5 when fewer than minInteractions outcomes exist regardless of how
// many signals were generated.
func Effectiveness(w *models.SignalWeight) float64 {
	interacted := w.TotalActedOn + w.TotalDismissed
	if interacted < minInteractions {
		return neutralEffectiveness
	}
	return float64(w.TotalActedOn) / float64(interacted)
}

// WeightModifier maps an effectiveness score linearly onto the closed
// range [0.3, 2.0].
func WeightModifier(effectiveness float64) float64 {
	return weightFloor + effectiveness*weightSpan
}

// Apply multiplies a signal's base priority score by the modifier matching
// its (type, domain) pairing. With no matching weight row the score is
// returned unchanged: new detector types start neutral, not penalized.
func Apply(score float64, sig models.Signal, weights map[string]models.SignalWeight) float64 {
	if w, ok := weights[models.WeightKey(sig.Type, sig.Domain)]; ok {
		return score * w.WeightModifier
	}
	return score
}

// Loop owns weight recomputation and persistence.
type Loop struct {
	storage interfaces.WeightStorage
	logger  arbor.ILogger
}

// NewLoop creates a feedback loop over the given weight storage.
func NewLoop(storage interfaces.WeightStorage, logger arbor.ILogger) *Loop {
	return &Loop{
		storage: storage,
		logger:  logger,
	}
}

// Recompute rebuilds every weight row wholesale from the full signal
// history and upserts each by composite key. Each row is its own
// transaction: a row that fails to persist is logged and skipped, and
// previously persisted rows are never touched by a failed run.
func (l *Loop) Recompute(ctx context.Context, history []models.Signal) ([]models.SignalWeight, error) {
	agg := Aggregate(history)
	now := time.Now()

	out := make([]models.SignalWeight, 0, len(agg))
	failed := 0
	for _, w := range agg {
		w.EffectivenessScore = Effectiveness(w)
		w.WeightModifier = WeightModifier(w.EffectivenessScore)
		w.LastUpdated = now

		if err := l.storage.UpsertWeight(ctx, w); err != nil {
			failed++
			l.logger.Warn().
				Str("key", w.Key).
				Err(err).
				Msg("Failed to persist signal weight, continuing with next row")
			continue
		}
		out = append(out, *w)
	}

	if failed > 0 {
		l.logger.Warn().
			Int("persisted", len(out)).
			Int("failed", failed).
			Msg("Weight recompute completed with persistence failures")
	} else {
		l.logger.Debug().
			Int("pairs", len(out)).
			Int("history", len(history)).
			Msg("Signal weights recomputed")
	}

	if len(out) == 0 && failed > 0 {
		return nil, fmt.Errorf("weight recompute persisted no rows (%d failures)", failed)
	}
	return out, nil
}

// CurrentWeights loads the persisted weight table as a lookup map for the
// ranking step.
func (l *Loop) CurrentWeights(ctx context.Context) (map[string]models.SignalWeight, error) {
	rows, err := l.storage.GetAllWeights(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load signal weights: %w", err)
	}
	return WeightMap(rows), nil
}

// WeightMap indexes weight rows by composite key.
func WeightMap(rows []models.SignalWeight) map[string]models.SignalWeight {
	m := make(map[string]models.SignalWeight, len(rows))
	for _, w := range rows {
		m[w.Key] = w
	}
	return m
}
