package capture

import "time"

// Frame rate defaults for the motion gate.
const (
	DefaultIdleFPS     = 5
	DefaultActiveFPS   = 15
	DefaultIdleTimeout = 2 * time.Second
)

// GateConfig sets the frame rates and how long the gate stays active without motion.
type GateConfig struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration
}

// DefaultGateConfig returns 5 FPS idle, 15 FPS active and a 2s idle timeout.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		IdleFPS:     DefaultIdleFPS,
		ActiveFPS:   DefaultActiveFPS,
		IdleTimeout: DefaultIdleTimeout,
	}
}

// Gate tracks whether the pipeline should run hand detection.
// Motion switches it active; it falls back to idle after IdleTimeout without motion.
// Gate is owned by the pipeline goroutine and is not safe for concurrent use.
type Gate struct {
	config     GateConfig
	active     bool
	lastMotion time.Time
}

// NewGate creates an idle gate. Non-positive fields take their defaults.
func NewGate(config GateConfig) *Gate {
	if config.IdleFPS <= 0 {
		config.IdleFPS = DefaultIdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = DefaultActiveFPS
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	return &Gate{config: config}
}

// Observe records one frame's motion result and reports whether the gate changed state.
func (g *Gate) Observe(motion bool, now time.Time) (changed bool) {
	if motion {
		g.lastMotion = now
		if !g.active {
			g.active = true
			return true
		}
		return false
	}

	if g.active && now.Sub(g.lastMotion) > g.config.IdleTimeout {
		g.active = false
		return true
	}
	return false
}

// Active reports whether detection should run.
func (g *Gate) Active() bool {
	return g.active
}

// FPS returns the frame rate for the current state.
func (g *Gate) FPS() int {
	if g.active {
		return g.config.ActiveFPS
	}
	return g.config.IdleFPS
}

// Interval returns the ticker period for the current state.
func (g *Gate) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}
