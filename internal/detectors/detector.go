// Package detectors implements the anticipation detector pipeline: a fixed,
// ordered registry of pure detection rules that scan a domain snapshot and
// emit candidate signals.
package detectors

import (
	"fmt"
	"runtime"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/models"
)

// Detector is a single detection rule. Implementations must be pure:
// no I/O, no mutation of the snapshot, and an empty result for "no
// findings". Run cost should stay O(n) or O(n log n) in collection sizes.
type Detector interface {
	// Name returns the detector's identifier, recorded as each emitted
	// signal's Source.
	Name() string

	// Detect scans the snapshot and returns zero or more signals.
	Detect(snap *models.AnticipationContext) []models.Signal
}

// Pipeline runs every registered detector against one snapshot and
// concatenates the results. Registration order is fixed at construction.
type Pipeline struct {
	detectors []Detector
	logger    arbor.ILogger
}

// NewPipeline creates a pipeline over an explicit detector list.
func NewPipeline(logger arbor.ILogger, detectors ...Detector) *Pipeline {
	return &Pipeline{
		detectors: detectors,
		logger:    logger,
	}
}

// DefaultPipeline builds the standard detector registry with thresholds
// taken from the anticipation configuration.
func DefaultPipeline(cfg common.AnticipationConfig, logger arbor.ILogger) *Pipeline {
	return NewPipeline(logger,
		NewDeadlineDetector(cfg),
		NewCalendarDetector(cfg),
		NewFamilyDetector(cfg),
		NewAgingEmailDetector(cfg),
		NewStreakDetector(cfg),
		NewDealDetector(cfg),
		NewFinanceDetector(cfg),
	)
}

// Run invokes every detector sequentially against the same snapshot.
// Each detector is isolated: a panicking detector is logged and skipped
// so it cannot blank out the findings of the others in the same cycle.
func (p *Pipeline) Run(snap *models.AnticipationContext) []models.Signal {
	var results []models.Signal
	for _, d := range p.detectors {
		results = append(results, p.runDetector(d, snap)...)
	}
	return results
}

// Size returns the number of registered detectors.
func (p *Pipeline) Size() int {
	return len(p.detectors)
}

func (p *Pipeline) runDetector(d Detector, snap *models.AnticipationContext) (signals []models.Signal) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			p.logger.Error().
				Str("detector", d.Name()).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(buf[:n])).
				Msg("PANIC RECOVERED in detector, skipping its findings this cycle")
			signals = nil
		}
	}()
	return d.Detect(snap)
}

// signalID derives a deterministic signal ID from the detection rule and
// the entity it concerns, so re-detecting the same condition on the next
// cycle merges (replace-on-id) rather than duplicating.
func signalID(t models.SignalType, entityID string) string {
	return "sig_" + string(t) + ":" + entityID
}

// expireAt returns a pointer to the given expiry instant.
func expireAt(t time.Time) *time.Time {
	return &t
}
