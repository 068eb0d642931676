package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/ayusman/airguitar/internal/gesture"
	"github.com/ayusman/airguitar/internal/store"
)

// ThresholdsTarget is whatever classifies with the thresholds: usually the running app.
type ThresholdsTarget interface {
	Thresholds() gesture.Thresholds
	SetThresholds(gesture.Thresholds) error
}

// StaticThresholds holds thresholds in memory when no pipeline is running.
type StaticThresholds struct {
	mu sync.RWMutex
	th gesture.Thresholds
}

// NewStaticThresholds returns a holder starting at th.
func NewStaticThresholds(th gesture.Thresholds) *StaticThresholds {
	return &StaticThresholds{th: th}
}

func (s *StaticThresholds) Thresholds() gesture.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.th
}

func (s *StaticThresholds) SetThresholds(th gesture.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.th = th
	return nil
}

// ThresholdsHandler serves GET and PUT /api/settings/thresholds.
// A PUT body may set any subset of fields; the rest keep their current value.
type ThresholdsHandler struct {
	store  *store.Store
	target ThresholdsTarget
}

// NewThresholdsHandler creates a handler applying changes to target and, when s is
// not nil, persisting them.
func NewThresholdsHandler(s *store.Store, target ThresholdsTarget) *ThresholdsHandler {
	return &ThresholdsHandler{store: s, target: target}
}

func (h *ThresholdsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.target.Thresholds())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ThresholdsHandler) update(w http.ResponseWriter, r *http.Request) {
	th := h.target.Thresholds()
	if err := json.NewDecoder(r.Body).Decode(&th); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := th.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.store != nil {
		if err := h.store.Settings().SaveThresholds(th); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save thresholds")
			return
		}
	}

	if err := h.target.SetThresholds(th); err != nil {
		if errors.Is(err, gesture.ErrInvalidThresholds) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to apply thresholds")
		return
	}

	writeJSON(w, http.StatusOK, th)
}
