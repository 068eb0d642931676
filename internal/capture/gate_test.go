package capture

import (
	"testing"
	"time"
)

func TestGate(t *testing.T) {
	start := time.Unix(1000, 0)

	t.Run("starts idle", func(t *testing.T) {
		g := NewGate(DefaultGateConfig())

		if g.Active() {
			t.Error("gate should start idle")
		}
		if g.FPS() != DefaultIdleFPS {
			t.Errorf("FPS() = %d, want %d", g.FPS(), DefaultIdleFPS)
		}
		if g.Interval() != 200*time.Millisecond {
			t.Errorf("Interval() = %v, want 200ms", g.Interval())
		}
	})

	t.Run("motion activates once", func(t *testing.T) {
		g := NewGate(DefaultGateConfig())

		if !g.Observe(true, start) {
			t.Error("first motion should change state")
		}
		if g.Observe(true, start.Add(time.Second)) {
			t.Error("continued motion should not change state")
		}
		if !g.Active() || g.FPS() != DefaultActiveFPS {
			t.Errorf("expected active at %d FPS, got active=%v fps=%d", DefaultActiveFPS, g.Active(), g.FPS())
		}
	})

	t.Run("idles after timeout", func(t *testing.T) {
		g := NewGate(GateConfig{IdleTimeout: time.Second})
		g.Observe(true, start)

		if g.Observe(false, start.Add(time.Second)) {
			t.Error("exactly the timeout should stay active")
		}
		if !g.Observe(false, start.Add(1500*time.Millisecond)) {
			t.Error("past the timeout should go idle")
		}
		if g.Active() {
			t.Error("gate should be idle")
		}
	})

	t.Run("idle without motion stays idle", func(t *testing.T) {
		g := NewGate(DefaultGateConfig())

		if g.Observe(false, start.Add(time.Hour)) {
			t.Error("no motion while idle should not change state")
		}
	})
}
