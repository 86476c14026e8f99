package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
	"github.com/ternarybob/auspex/internal/store"
)

// SignalHandler serves the active signal views and the dismiss/act-on
// outcome endpoints. Reads go to the in-memory store; outcome writes go
// to the store first, then through to durable storage so the feedback
// loop sees them on the next recompute.
type SignalHandler struct {
	store   *store.SignalStore
	signals interfaces.SignalStorage
	logger  arbor.ILogger
}

// NewSignalHandler creates a new signal handler.
func NewSignalHandler(signalStore *store.SignalStore, signals interfaces.SignalStorage) *SignalHandler {
	return &SignalHandler{
		store:   signalStore,
		signals: signals,
		logger:  common.GetLogger(),
	}
}

// ListHandler returns active signals in priority order.
// GET /api/signals?domain=&type=&min_severity=
func (h *SignalHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	now := time.Now()
	signals := h.store.Active(now)

	query := r.URL.Query()
	if domain := query.Get("domain"); domain != "" {
		signals = filterSignals(signals, func(s *models.Signal) bool {
			return s.Domain == models.Domain(domain)
		})
	}
	if signalType := query.Get("type"); signalType != "" {
		signals = filterSignals(signals, func(s *models.Signal) bool {
			return s.Type == models.SignalType(signalType)
		})
	}
	if minSeverity := query.Get("min_severity"); minSeverity != "" {
		maxRank := models.Severity(minSeverity).Rank()
		signals = filterSignals(signals, func(s *models.Signal) bool {
			return s.Severity.Rank() <= maxRank
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"signals": signals,
		"count":   len(signals),
	})
}

type createSignalRequest struct {
	Type            models.SignalType `json:"type"`
	Severity        models.Severity   `json:"severity"`
	Domain          models.Domain     `json:"domain"`
	Title           string            `json:"title"`
	Context         string            `json:"context"`
	SuggestedAction string            `json:"suggested_action"`
	ExpiresAt       *time.Time        `json:"expires_at"`
}

// CreateHandler inserts a signal pushed in from outside the detector
// pipeline, for integrations that raise their own alerts. The signal gets
// a generated ID and ranks on its bare severity until the feedback loop
// has history for its pairing.
// POST /api/signals
func (h *SignalHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req createSignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Title == "" {
		WriteError(w, http.StatusBadRequest, "Signal title is required")
		return
	}
	if req.Severity == "" {
		req.Severity = models.SeverityInfo
	}

	sig := models.Signal{
		ID:              common.NewSignalID(),
		Type:            req.Type,
		Severity:        req.Severity,
		Domain:          req.Domain,
		Source:          "api",
		Title:           req.Title,
		Context:         req.Context,
		SuggestedAction: req.SuggestedAction,
		Score:           req.Severity.BaseScore(),
		CreatedAt:       time.Now(),
		ExpiresAt:       req.ExpiresAt,
	}

	h.store.AddSignal(sig)
	if err := h.signals.SaveSignal(r.Context(), &sig); err != nil {
		h.logger.Warn().Err(err).Str("signal_id", sig.ID).Msg("Failed to persist created signal")
	}

	WriteJSON(w, http.StatusCreated, sig)
}

// CountsHandler returns the active signal counts for dashboard badges.
// GET /api/signals/counts
func (h *SignalHandler) CountsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, h.store.Counts(time.Now()))
}

// GetHandler returns a single signal by ID, dismissed/expired included.
// GET /api/signals/{id}
func (h *SignalHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := ExtractPathID(r.URL.Path, "/api/signals")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Signal ID is required")
		return
	}

	for _, sig := range h.store.All() {
		if sig.ID == id {
			WriteJSON(w, http.StatusOK, sig)
			return
		}
	}

	// Fall back to durable storage for signals already swept from the
	// in-memory store.
	sig, err := h.signals.GetSignal(r.Context(), id)
	if err == interfaces.ErrSignalNotFound {
		WriteError(w, http.StatusNotFound, "Signal not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("signal_id", id).Msg("Failed to load signal")
		WriteError(w, http.StatusInternalServerError, "Failed to load signal")
		return
	}
	WriteJSON(w, http.StatusOK, sig)
}

// DismissHandler marks a signal as dismissed.
// POST /api/signals/{id}/dismiss
func (h *SignalHandler) DismissHandler(w http.ResponseWriter, r *http.Request) {
	h.outcome(w, r, "dismiss", h.store.Dismiss)
}

// ActOnHandler marks a signal as acted on.
// POST /api/signals/{id}/act
func (h *SignalHandler) ActOnHandler(w http.ResponseWriter, r *http.Request) {
	h.outcome(w, r, "act", h.store.ActOn)
}

// outcome applies a store mutation by ID and writes the result through to
// durable storage. A persistence failure is logged but does not fail the
// request; the in-memory state is already updated.
func (h *SignalHandler) outcome(w http.ResponseWriter, r *http.Request, action string, apply func(string) (models.Signal, bool)) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	id := ExtractPathID(r.URL.Path, "/api/signals")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Signal ID is required")
		return
	}

	sig, ok := apply(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "Signal not found")
		return
	}

	if err := h.signals.SaveSignal(r.Context(), &sig); err != nil {
		h.logger.Warn().
			Err(err).
			Str("signal_id", id).
			Str("action", action).
			Msg("Failed to persist signal outcome")
	}

	WriteJSON(w, http.StatusOK, sig)
}

func filterSignals(signals []models.Signal, keep func(*models.Signal) bool) []models.Signal {
	out := make([]models.Signal, 0, len(signals))
	for i := range signals {
		if keep(&signals[i]) {
			out = append(out, signals[i])
		}
	}
	return out
}
