package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/feedback"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/store"
	"github.com/ternarybob/auspex/internal/worker"
)

// StatusHandler serves the application status endpoint: worker state,
// active signal counts, and a summary of the learned weight table.
type StatusHandler struct {
	worker  *worker.Worker
	store   *store.SignalStore
	weights interfaces.WeightStorage
	logger  arbor.ILogger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(w *worker.Worker, signalStore *store.SignalStore, weights interfaces.WeightStorage) *StatusHandler {
	return &StatusHandler{
		worker:  w,
		store:   signalStore,
		weights: weights,
		logger:  common.GetLogger(),
	}
}

// GetStatusHandler returns application status.
// GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	summary := feedback.WeightSummary{}
	rows, err := h.weights.GetAllWeights(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to load weight table for status")
	} else {
		summary = feedback.Summarize(rows)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version": common.GetVersion(),
		"worker":  h.worker.Status(),
		"signals": h.store.Counts(time.Now()),
		"weights": summary,
	})
}
