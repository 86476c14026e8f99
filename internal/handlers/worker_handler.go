package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/worker"
)

// WorkerHandler exposes manual control over the anticipation worker:
// force-running a cycle and adjusting the schedule at runtime.
type WorkerHandler struct {
	worker *worker.Worker
	logger arbor.ILogger
}

// NewWorkerHandler creates a new worker handler.
func NewWorkerHandler(w *worker.Worker) *WorkerHandler {
	return &WorkerHandler{
		worker: w,
		logger: common.GetLogger(),
	}
}

// TriggerHandler force-runs a detection cycle in the background. If a
// cycle is already executing the trigger is dropped by the overlap guard.
// POST /api/worker/trigger
func (h *WorkerHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	h.worker.TriggerNow()
	WriteStarted(w, "Anticipation cycle triggered")
}

// GetConfigHandler returns the worker's current configuration.
// GET /api/worker/config
func (h *WorkerHandler) GetConfigHandler(w http.ResponseWriter, r *http.Request) {
	cfg := h.worker.Config()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"enabled":  cfg.Enabled,
		"interval": cfg.Interval.String(),
	})
}

type workerConfigRequest struct {
	Enabled  *bool   `json:"enabled"`
	Interval *string `json:"interval"` // Go duration string, e.g. "5m"
}

// UpdateConfigHandler applies a partial configuration update. Absent
// fields are left unchanged. An active worker is restarted on the new
// schedule; disabling stops it.
// PUT /api/worker/config
func (h *WorkerHandler) UpdateConfigHandler(w http.ResponseWriter, r *http.Request) {
	var req workerConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	patch := worker.ConfigPatch{Enabled: req.Enabled}
	if req.Interval != nil {
		interval, err := time.ParseDuration(*req.Interval)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid interval: "+err.Error())
			return
		}
		if interval < 10*time.Second {
			WriteError(w, http.StatusBadRequest, "Interval must be at least 10s")
			return
		}
		patch.Interval = &interval
	}

	if err := h.worker.UpdateConfig(patch); err != nil {
		h.logger.Error().Err(err).Msg("Failed to apply worker config update")
		WriteError(w, http.StatusInternalServerError, "Failed to apply configuration")
		return
	}

	cfg := h.worker.Config()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"enabled":  cfg.Enabled,
		"interval": cfg.Interval.String(),
	})
}
