package common

import (
	"github.com/google/uuid"
)

// NewSignalID generates a unique signal ID with the "sig_" prefix.
// Detectors generally derive deterministic IDs from the entity they
// flag so re-detection merges instead of duplicating; this helper is
// for signals pushed in from outside the pipeline.
func NewSignalID() string {
	return "sig_" + uuid.New().String()
}

// NewCycleID generates a short correlation ID for one anticipation cycle,
// used to tie the cycle's log lines together.
func NewCycleID() string {
	return uuid.New().String()[:8]
}
