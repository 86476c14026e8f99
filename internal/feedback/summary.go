package feedback

import (
	"github.com/montanaflynn/stats"
	"github.com/ternarybob/auspex/internal/models"
)

// WeightSummary aggregates the learned weight table for the status API.
type WeightSummary struct {
	Pairs                int     `json:"pairs"`
	TotalGenerated       int     `json:"total_generated"`
	TotalActedOn         int     `json:"total_acted_on"`
	TotalDismissed       int     `json:"total_dismissed"`
	MeanEffectiveness    float64 `json:"mean_effectiveness"`
	MedianEffectiveness  float64 `json:"median_effectiveness"`
	MinWeightModifier    float64 `json:"min_weight_modifier"`
	MaxWeightModifier    float64 `json:"max_weight_modifier"`
	SampledPairs         int     `json:"sampled_pairs"` // pairings past the minimum sample size
	NeutralEffectiveness float64 `json:"neutral_effectiveness"`
}

// Summarize computes aggregate statistics over the weight table.
func Summarize(rows []models.SignalWeight) WeightSummary {
	summary := WeightSummary{
		Pairs:                len(rows),
		NeutralEffectiveness: neutralEffectiveness,
	}
	if len(rows) == 0 {
		return summary
	}

	effectiveness := make([]float64, 0, len(rows))
	modifiers := make([]float64, 0, len(rows))
	for _, w := range rows {
		effectiveness = append(effectiveness, w.EffectivenessScore)
		modifiers = append(modifiers, w.WeightModifier)
		summary.TotalGenerated += w.TotalGenerated
		summary.TotalActedOn += w.TotalActedOn
		summary.TotalDismissed += w.TotalDismissed
		if w.TotalActedOn+w.TotalDismissed >= minInteractions {
			summary.SampledPairs++
		}
	}

	// stats only errors on empty input, which is handled above.
	summary.MeanEffectiveness, _ = stats.Mean(effectiveness)
	summary.MedianEffectiveness, _ = stats.Median(effectiveness)
	summary.MinWeightModifier, _ = stats.Min(modifiers)
	summary.MaxWeightModifier, _ = stats.Max(modifiers)

	return summary
}
