package emitter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/airguitar/internal/plugin"
	"github.com/ayusman/airguitar/internal/store"
)

// Default playback volumes.
const (
	DefaultChordVolume = 0.7
	DefaultStrumVolume = 0.3
)

// BindingLookup finds the binding for a chord label or store.StrumTarget.
// A nil binding with a nil error means nothing is bound.
type BindingLookup interface {
	GetByChord(chord string) (*store.Binding, error)
}

// PluginLookup resolves a plugin by name.
type PluginLookup interface {
	Get(name string) (*plugin.Plugin, error)
}

// Runner executes a plugin request.
type Runner interface {
	Execute(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// PluginEmitter plays events through the plugin bound to them in the store.
type PluginEmitter struct {
	bindings    BindingLookup
	plugins     PluginLookup
	runner      Runner
	chordVolume float64
	strumVolume float64
	logger      *zap.Logger
}

// PluginOption configures a PluginEmitter.
type PluginOption func(*PluginEmitter)

// WithVolumes sets the chord and strum playback volumes.
func WithVolumes(chord, strum float64) PluginOption {
	return func(p *PluginEmitter) {
		p.chordVolume = chord
		p.strumVolume = strum
	}
}

// WithLogger sets the logger used for skipped events.
func WithLogger(logger *zap.Logger) PluginOption {
	return func(p *PluginEmitter) {
		p.logger = logger
	}
}

// NewPluginEmitter creates a PluginEmitter.
func NewPluginEmitter(bindings BindingLookup, plugins PluginLookup, runner Runner, opts ...PluginOption) *PluginEmitter {
	p := &PluginEmitter{
		bindings:    bindings,
		plugins:     plugins,
		runner:      runner,
		chordVolume: DefaultChordVolume,
		strumVolume: DefaultStrumVolume,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PluginEmitter) Name() string { return "plugin" }

// Emit looks up the binding for ev and runs its plugin action.
// Events with no binding, or a disabled one, are skipped without error.
func (p *PluginEmitter) Emit(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	target := store.StrumTarget
	if ev.Kind == KindChord {
		target = ev.Chord.String()
	}

	binding, err := p.bindings.GetByChord(target)
	if err != nil {
		return fmt.Errorf("look up binding for %s: %w", target, err)
	}
	if binding == nil || !binding.Enabled {
		p.logger.Debug("no binding, skipping", zap.String("target", target))
		return nil
	}

	plug, err := p.plugins.Get(binding.PluginName)
	if err != nil {
		return fmt.Errorf("binding %s: %s: %w", binding.ID, binding.PluginName, err)
	}

	req := &plugin.Request{
		Action: binding.ActionName,
		Time:   ev.Time.UTC().Format(time.RFC3339Nano),
		Config: binding.Config,
	}
	if ev.Kind == KindChord {
		req.Chord = ev.Chord.String()
		req.Volume = p.chordVolume
	} else {
		req.Direction = ev.Direction.String()
		req.Volume = p.strumVolume
	}

	resp, err := p.runner.Execute(ctx, plug, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s %s: %s", binding.PluginName, binding.ActionName, resp.Error)
	}

	p.logger.Debug("played",
		zap.String("target", target),
		zap.String("plugin", binding.PluginName),
		zap.String("action", binding.ActionName))
	return nil
}
