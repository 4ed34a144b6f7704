package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/internal/factors"
	"github.com/wonny/factorlab/pkg/logger"
)

// FactorHandler serves factor metadata, stored evaluation reports and
// factor statuses.
type FactorHandler struct {
	registry *factors.Registry
	store    contracts.ReportStore
	logger   *logger.Logger
}

// NewFactorHandler creates a new factor handler
func NewFactorHandler(registry *factors.Registry, store contracts.ReportStore, log *logger.Logger) *FactorHandler {
	return &FactorHandler{
		registry: registry,
		store:    store,
		logger:   log,
	}
}

// FactorInfo is one entry in the factor list response
type FactorInfo struct {
	Name      string `json:"name"`
	Direction int    `json:"direction"`
	Status    string `json:"status,omitempty"`
}

// List returns all registered factors with their latest known status
// GET /api/factors
func (h *FactorHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items := make([]FactorInfo, 0, h.registry.Len())
	for _, name := range h.registry.Names() {
		factor, _ := h.registry.Get(name)

		status, err := h.store.LoadStatus(ctx, name)
		if err != nil {
			h.logger.WithError(err).WithField("factor", name).Error("Failed to load factor status")
			respondError(w, http.StatusInternalServerError, "Failed to load factor status")
			return
		}

		items = append(items, FactorInfo{
			Name:      name,
			Direction: factor.Direction(),
			Status:    string(status),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count":   len(items),
			"factors": items,
		},
	})
}

// GetReport returns the stored evaluation report for a factor and window
// GET /api/factors/{id}/report?start=2024-01-01&end=2024-06-30&freq=weekly
func (h *FactorHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	factorID := mux.Vars(r)["id"]

	window, err := parseWindow(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, ok := h.registry.Get(factorID); !ok {
		respondError(w, http.StatusNotFound, "Unknown factor: "+factorID)
		return
	}

	report, err := h.store.LoadReport(ctx, factorID, window)
	if err != nil {
		h.logger.WithError(err).WithField("factor", factorID).Error("Failed to load report")
		respondError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	if report == nil {
		respondError(w, http.StatusNotFound, "No report for this factor and window")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    report,
	})
}

// GetStatus returns the latest classification for a factor
// GET /api/factors/{id}/status
func (h *FactorHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	factorID := mux.Vars(r)["id"]

	if _, ok := h.registry.Get(factorID); !ok {
		respondError(w, http.StatusNotFound, "Unknown factor: "+factorID)
		return
	}

	status, err := h.store.LoadStatus(ctx, factorID)
	if err != nil {
		h.logger.WithError(err).WithField("factor", factorID).Error("Failed to load factor status")
		respondError(w, http.StatusInternalServerError, "Failed to load factor status")
		return
	}
	if status == "" {
		respondError(w, http.StatusNotFound, "Factor has not been evaluated yet")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"factor": factorID,
			"status": string(status),
		},
	})
}

// parseWindow builds a validated window from the start, end and freq
// query parameters.
func parseWindow(r *http.Request) (contracts.Window, error) {
	q := r.URL.Query()

	start, err := time.Parse("2006-01-02", q.Get("start"))
	if err != nil {
		return contracts.Window{}, &contracts.InvalidConfigurationError{Reason: "start must be a YYYY-MM-DD date"}
	}
	end, err := time.Parse("2006-01-02", q.Get("end"))
	if err != nil {
		return contracts.Window{}, &contracts.InvalidConfigurationError{Reason: "end must be a YYYY-MM-DD date"}
	}

	freq := contracts.Frequency(q.Get("freq"))
	if freq == "" {
		freq = contracts.FreqWeekly
	}

	window := contracts.Window{Start: start, End: end, Frequency: freq}
	if err := window.Validate(); err != nil {
		return contracts.Window{}, err
	}
	return window, nil
}
