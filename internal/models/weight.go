package models

import "time"

// SignalWeight is a learned priority adjustment for a (signal type, domain)
// pairing, recomputed wholesale from the full signal history each cycle and
// upserted by composite key into durable storage.
type SignalWeight struct {
	Key                string     `json:"key" badgerhold:"key"` // composite: type|domain
	SignalType         SignalType `json:"signal_type"`
	Domain             Domain     `json:"domain"`
	TotalGenerated     int        `json:"total_generated"`
	TotalDismissed     int        `json:"total_dismissed"`
	TotalActedOn       int        `json:"total_acted_on"`
	EffectivenessScore float64    `json:"effectiveness_score"` // [0,1]
	WeightModifier     float64    `json:"weight_modifier"`     // [0.3,2.0]
	CreatedAt          time.Time  `json:"created_at"`
	LastUpdated        time.Time  `json:"last_updated"`
}

// WeightKey builds the composite storage key for a (type, domain) pairing.
func WeightKey(t SignalType, d Domain) string {
	return string(t) + "|" + string(d)
}
