package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/airguitar/internal/detector"
	"github.com/ayusman/airguitar/internal/gesture"
)

// maxClassifyBody caps request bodies; a frame of two hands is a few kilobytes.
const maxClassifyBody = 1 << 20

type classifyRequest struct {
	Hands    []detector.HandLandmarks `json:"hands"`
	Previous []detector.HandLandmarks `json:"previous,omitempty"`
}

type classifyResponse struct {
	Hands []gesture.HandAnalysis `json:"hands"`
	Chord gesture.Chord          `json:"chord"`
	Strum gesture.Strum          `json:"strum"`
}

// ClassifyHandler analyzes hands posted as JSON without touching the live session.
// When previous hands are given, the strum between the first hands of both frames is reported.
type ClassifyHandler struct {
	thresholds func() gesture.Thresholds
}

// NewClassifyHandler classifies with the thresholds returned by thresholds at request time.
func NewClassifyHandler(thresholds func() gesture.Thresholds) *ClassifyHandler {
	return &ClassifyHandler{thresholds: thresholds}
}

func (h *ClassifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req classifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClassifyBody)).Decode(&req); err != nil {
		if errors.Is(err, detector.ErrMalformedObservation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	analyzer := gesture.NewAnalyzer(h.thresholds())
	analyses := analyzer.AnalyzeAll(req.Hands)

	resp := classifyResponse{
		Hands: analyses,
		Chord: gesture.ChordUnknown,
	}
	for _, a := range analyses {
		if a.Detected && a.Chord.Known() {
			resp.Chord = a.Chord
		}
	}
	if len(req.Previous) > 0 {
		prev := analyzer.Analyze(&req.Previous[0])
		resp.Strum = analyzer.Strum(&prev, &analyses[0])
	}

	writeJSON(w, http.StatusOK, resp)
}

// ChordsHandler serves the chord guide.
func ChordsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chords": gesture.ChordTable()})
}
