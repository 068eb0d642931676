package app

import (
	"time"

	"github.com/ayusman/airguitar/internal/detector"
	"github.com/ayusman/airguitar/internal/gesture"
)

// HistorySize is the number of chord changes kept in the rolling history.
const HistorySize = 10

// ChordChange records a transition to a new known chord.
type ChordChange struct {
	Chord gesture.Chord `json:"chord"`
	Time  time.Time     `json:"time"`
}

// ChordTracker turns a stream of per-frame chords into change events.
// A chord held for many frames produces one event. Frames without a known chord
// never produce an event but clear the last-emitted chord, so the same chord
// played again after the hand leaves is a new change.
type ChordTracker struct {
	last    gesture.Chord
	history []ChordChange
}

// NewChordTracker returns a tracker with no chord emitted yet.
func NewChordTracker() *ChordTracker {
	return &ChordTracker{history: make([]ChordChange, 0, HistorySize)}
}

// Observe feeds one frame's chord and reports whether it is a change.
func (t *ChordTracker) Observe(chord gesture.Chord, now time.Time) (ChordChange, bool) {
	if !chord.Known() {
		t.last = gesture.ChordUnknown
		return ChordChange{}, false
	}
	if chord == t.last {
		return ChordChange{}, false
	}

	t.last = chord
	change := ChordChange{Chord: chord, Time: now}

	if len(t.history) >= HistorySize {
		copy(t.history, t.history[1:])
		t.history = t.history[:HistorySize-1]
	}
	t.history = append(t.history, change)

	return change, true
}

// Current returns the last emitted chord, or ChordUnknown.
func (t *ChordTracker) Current() gesture.Chord {
	return t.last
}

// History returns a copy of the recent changes, oldest first.
func (t *ChordTracker) History() []ChordChange {
	out := make([]ChordChange, len(t.history))
	copy(out, t.history)
	return out
}

// FrameResult is everything a frame produced, for dispatch and display.
type FrameResult struct {
	Time     time.Time              `json:"time"`
	Hands    []gesture.HandAnalysis `json:"hands"`
	Chord    gesture.Chord          `json:"chord"`
	Change   *ChordChange           `json:"change,omitempty"`
	Strum    gesture.Strum          `json:"strum"`
	History  []ChordChange          `json:"history"`
	Detected bool                   `json:"detected"`
}

// Session holds the state that crosses frame boundaries: the previous frame's
// analyses and the chord tracker. It is not safe for concurrent use.
type Session struct {
	analyzer *gesture.Analyzer
	tracker  *ChordTracker
	previous []gesture.HandAnalysis
}

// NewSession creates a session classifying with analyzer.
func NewSession(analyzer *gesture.Analyzer) *Session {
	return &Session{
		analyzer: analyzer,
		tracker:  NewChordTracker(),
	}
}

// SetAnalyzer swaps the analyzer, keeping the tracker and previous frame.
func (s *Session) SetAnalyzer(analyzer *gesture.Analyzer) {
	s.analyzer = analyzer
}

// Analyzer returns the analyzer in use.
func (s *Session) Analyzer() *gesture.Analyzer {
	return s.analyzer
}

// Process classifies one frame of hands.
//
// The frame chord is the chord of the last hand that recognized one. Strumming is
// measured between the first hand of the previous frame and the first hand of this one.
func (s *Session) Process(hands []detector.HandLandmarks, now time.Time) FrameResult {
	analyses := s.analyzer.AnalyzeAll(hands)

	result := FrameResult{
		Time:  now,
		Hands: analyses,
		Chord: gesture.ChordUnknown,
	}

	for _, a := range analyses {
		if a.Detected {
			result.Detected = true
		}
		if a.Detected && a.Chord.Known() {
			result.Chord = a.Chord
		}
	}

	if change, ok := s.tracker.Observe(result.Chord, now); ok {
		result.Change = &change
	}

	if len(s.previous) > 0 {
		result.Strum = s.analyzer.Strum(&s.previous[0], &analyses[0])
	}

	s.previous = analyses
	result.History = s.tracker.History()

	return result
}

// History returns the recent chord changes.
func (s *Session) History() []ChordChange {
	return s.tracker.History()
}

// Break marks a gap in the frame stream: the next frame has no previous frame to
// strum against and re-emits its chord. History is kept.
func (s *Session) Break() {
	s.previous = nil
	s.tracker.Observe(gesture.ChordUnknown, time.Time{})
}

// Reset forgets the previous frame, the emitted chord and the history.
func (s *Session) Reset() {
	s.previous = nil
	s.tracker = NewChordTracker()
}
