// Package emitter delivers chord changes and strums to whatever makes the sound:
// local plugins, an MQTT broker or a Redis channel.
package emitter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/airguitar/internal/gesture"
)

// ErrInvalidEvent is returned by Event.Validate.
var ErrInvalidEvent = errors.New("invalid event")

// Kind distinguishes chord events from strum events.
type Kind string

const (
	KindChord Kind = "chord"
	KindStrum Kind = "strum"
)

// Event is a single audio trigger.
type Event struct {
	Kind      Kind          `json:"kind"`
	Chord     gesture.Chord `json:"chord,omitempty"`
	Direction gesture.Strum `json:"direction,omitempty"`
	Time      time.Time     `json:"time"`
}

// ChordEvent returns the event for a change to chord.
func ChordEvent(chord gesture.Chord, at time.Time) Event {
	return Event{Kind: KindChord, Chord: chord, Time: at}
}

// StrumEvent returns the event for a strum in direction.
func StrumEvent(direction gesture.Strum, at time.Time) Event {
	return Event{Kind: KindStrum, Direction: direction, Time: at}
}

// Validate rejects events that must never reach an emitter:
// unknown chords, strums without a direction, and unknown kinds.
func (e Event) Validate() error {
	switch e.Kind {
	case KindChord:
		if !e.Chord.Known() {
			return fmt.Errorf("%w: chord event with %s", ErrInvalidEvent, e.Chord)
		}
	case KindStrum:
		if e.Direction != gesture.Downstroke && e.Direction != gesture.Upstroke {
			return fmt.Errorf("%w: strum event with direction %s", ErrInvalidEvent, e.Direction)
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidEvent, e.Kind)
	}
	return nil
}

// Emitter delivers events. Implementations must be safe for concurrent use.
type Emitter interface {
	Name() string
	Emit(ctx context.Context, ev Event) error
}

// Multi fans an event out to several emitters.
type Multi struct {
	emitters []Emitter
	onError  func(name string, err error)
}

// NewMulti creates a fan-out over emitters. onError, if set, is called once per failing emitter.
func NewMulti(onError func(name string, err error), emitters ...Emitter) *Multi {
	return &Multi{emitters: emitters, onError: onError}
}

func (m *Multi) Name() string { return "multi" }

// Add appends an emitter. It must not be called concurrently with Emit.
func (m *Multi) Add(e Emitter) {
	m.emitters = append(m.emitters, e)
}

// Len returns the number of emitters.
func (m *Multi) Len() int {
	return len(m.emitters)
}

// Emit delivers ev to every emitter, even when earlier ones fail, and joins the errors.
func (m *Multi) Emit(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	var errs []error
	for _, e := range m.emitters {
		if err := e.Emit(ctx, ev); err != nil {
			if m.onError != nil {
				m.onError(e.Name(), err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every event it receives in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Name() string { return "recorder" }

// Emit validates and records ev.
func (r *Recorder) Emit(_ context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
