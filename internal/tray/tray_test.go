package tray

import (
	"testing"
	"time"

	"github.com/ayusman/airguitar/internal/app"
	"github.com/ayusman/airguitar/internal/gesture"
)

func TestLabels(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{chordLabel(gesture.CMajor), "Last chord: C major"},
		{chordLabel(gesture.AMinor), "Last chord: A minor"},
		{chordLabel(gesture.ChordUnknown), "Last chord: none"},
		{strumLabel(gesture.Downstroke), "Last strum: downstroke"},
		{strumLabel(gesture.StrumNone), "Last strum: none"},
		{toggleLabel(true), "● Enabled"},
		{toggleLabel(false), "○ Disabled"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestTray_Observe(t *testing.T) {
	tr := New(true)

	tr.Observe(app.FrameResult{Chord: gesture.GMajor})
	if tr.LastChord() != gesture.ChordUnknown {
		t.Errorf("held chord without change should not update, got %s", tr.LastChord())
	}

	tr.Observe(app.FrameResult{
		Chord:  gesture.GMajor,
		Change: &app.ChordChange{Chord: gesture.GMajor, Time: time.Now()},
		Strum:  gesture.Upstroke,
	})
	if tr.LastChord() != gesture.GMajor {
		t.Errorf("LastChord() = %s, want G_major", tr.LastChord())
	}
	if tr.lastStrum != gesture.Upstroke {
		t.Errorf("lastStrum = %s, want upstroke", tr.lastStrum)
	}
}

func TestTray_Toggle(t *testing.T) {
	tr := New(true)

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("expected enabled after two toggles")
	}
}

func TestTray_Settings(t *testing.T) {
	tr := New(false)

	called := false
	tr.OnSettings(func() { called = true })
	tr.handleSettings()

	if !called {
		t.Error("settings callback not called")
	}
}
