// Package gesture turns hand landmarks into chord and strum classifications.
//
// Everything in this package is a pure function of its inputs: no goroutines, no I/O
// and no state carried between frames. Callers that need the previous frame keep it
// themselves and pass it to DetectStrum.
package gesture

import "github.com/ayusman/airguitar/internal/detector"

// HandAnalysis is the per-frame classification of one hand.
// When Detected is false every other field is its zero value and Chord is ChordUnknown.
type HandAnalysis struct {
	Detected    bool                `json:"detected"`
	Handedness  detector.Handedness `json:"handedness,omitempty"`
	FingerTips  FingerTips          `json:"finger_tips"`
	BoundingBox BoundingBox         `json:"bounding_box"`
	Features    FeatureSet          `json:"features"`
	Band        Band                `json:"band"`
	Chord       Chord               `json:"chord"`
}

// NotDetected returns the analysis used when no hand is present.
func NotDetected() HandAnalysis {
	return HandAnalysis{Chord: ChordUnknown}
}

// Analyzer composes feature extraction, position and chord classification.
type Analyzer struct {
	thresholds Thresholds
}

// NewAnalyzer creates an Analyzer using th.
func NewAnalyzer(th Thresholds) *Analyzer {
	return &Analyzer{thresholds: th}
}

// Thresholds returns the thresholds the analyzer was built with.
func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// Analyze classifies a single hand. A nil hand yields NotDetected.
func (a *Analyzer) Analyze(hand *detector.HandLandmarks) HandAnalysis {
	if hand == nil {
		return NotDetected()
	}

	box := ComputeBoundingBox(hand)
	features := ExtractFeatures(hand, a.thresholds)
	band := ClassifyPosition(box, a.thresholds)

	return HandAnalysis{
		Detected:    true,
		Handedness:  hand.Handedness,
		FingerTips:  ExtractFingerTips(hand),
		BoundingBox: box,
		Features:    features,
		Band:        band,
		Chord:       ClassifyChord(features.ExtendedCount, band),
	}
}

// AnalyzeAll classifies every hand of a frame in input order.
// An empty frame yields a single NotDetected analysis so callers always have a first entry.
func (a *Analyzer) AnalyzeAll(hands []detector.HandLandmarks) []HandAnalysis {
	if len(hands) == 0 {
		return []HandAnalysis{NotDetected()}
	}

	out := make([]HandAnalysis, len(hands))
	for i := range hands {
		out[i] = a.Analyze(&hands[i])
	}
	return out
}

// Strum compares two analyses using the analyzer's dead zone.
func (a *Analyzer) Strum(prev, cur *HandAnalysis) Strum {
	return DetectStrum(prev, cur, a.thresholds)
}
