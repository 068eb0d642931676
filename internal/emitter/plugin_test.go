package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/airguitar/internal/gesture"
	"github.com/ayusman/airguitar/internal/plugin"
	"github.com/ayusman/airguitar/internal/store"
)

type fakeBindings map[string]*store.Binding

func (f fakeBindings) GetByChord(chord string) (*store.Binding, error) {
	return f[chord], nil
}

type fakePlugins map[string]*plugin.Plugin

func (f fakePlugins) Get(name string) (*plugin.Plugin, error) {
	p, ok := f[name]
	if !ok {
		return nil, plugin.ErrPluginNotFound
	}
	return p, nil
}

type fakeRunner struct {
	requests []*plugin.Request
	resp     *plugin.Response
	err      error
}

func (f *fakeRunner) Execute(_ context.Context, _ *plugin.Plugin, req *plugin.Request) (*plugin.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &plugin.Response{Success: true}, nil
}

func samplerSetup() (fakeBindings, fakePlugins) {
	bindings := fakeBindings{
		"C_major": {ID: "1", Chord: "C_major", PluginName: "sampler", ActionName: plugin.ActionPlayChord,
			Config: json.RawMessage(`{"sounds_dir":"/s"}`), Enabled: true},
		"G_major": {ID: "2", Chord: "G_major", PluginName: "sampler", ActionName: plugin.ActionPlayChord, Enabled: false},
		"D_major": {ID: "3", Chord: "D_major", PluginName: "missing", ActionName: plugin.ActionPlayChord, Enabled: true},
		store.StrumTarget: {ID: "4", Chord: store.StrumTarget, PluginName: "sampler", ActionName: plugin.ActionPlayStrum, Enabled: true},
	}
	plugins := fakePlugins{"sampler": {Manifest: plugin.Manifest{Name: "sampler"}}}
	return bindings, plugins
}

func TestPluginEmitter_Chord(t *testing.T) {
	bindings, plugins := samplerSetup()
	runner := &fakeRunner{}
	e := NewPluginEmitter(bindings, plugins, runner)

	require.NoError(t, e.Emit(context.Background(), ChordEvent(gesture.CMajor, eventTime)))

	require.Len(t, runner.requests, 1)
	req := runner.requests[0]
	assert.Equal(t, plugin.ActionPlayChord, req.Action)
	assert.Equal(t, "C_major", req.Chord)
	assert.Empty(t, req.Direction)
	assert.Equal(t, DefaultChordVolume, req.Volume)
	assert.Equal(t, "2024-05-01T12:00:00Z", req.Time)
	assert.JSONEq(t, `{"sounds_dir":"/s"}`, string(req.Config))
}

func TestPluginEmitter_StrumCarriesStrumVolume(t *testing.T) {
	bindings, plugins := samplerSetup()
	runner := &fakeRunner{}
	e := NewPluginEmitter(bindings, plugins, runner, WithVolumes(0.9, 0.25))

	require.NoError(t, e.Emit(context.Background(), StrumEvent(gesture.Upstroke, eventTime)))

	require.Len(t, runner.requests, 1)
	assert.Equal(t, plugin.ActionPlayStrum, runner.requests[0].Action)
	assert.Equal(t, "upstroke", runner.requests[0].Direction)
	assert.Equal(t, 0.25, runner.requests[0].Volume)
}

func TestPluginEmitter_Skips(t *testing.T) {
	bindings, plugins := samplerSetup()
	runner := &fakeRunner{}
	e := NewPluginEmitter(bindings, plugins, runner)

	assert.NoError(t, e.Emit(context.Background(), ChordEvent(gesture.AMinor, eventTime)), "unbound chord")
	assert.NoError(t, e.Emit(context.Background(), ChordEvent(gesture.GMajor, eventTime)), "disabled binding")
	assert.Empty(t, runner.requests)
}

func TestPluginEmitter_Errors(t *testing.T) {
	bindings, plugins := samplerSetup()

	t.Run("missing plugin", func(t *testing.T) {
		e := NewPluginEmitter(bindings, plugins, &fakeRunner{})
		err := e.Emit(context.Background(), ChordEvent(gesture.DMajor, eventTime))
		assert.ErrorIs(t, err, plugin.ErrPluginNotFound)
	})

	t.Run("runner error", func(t *testing.T) {
		e := NewPluginEmitter(bindings, plugins, &fakeRunner{err: plugin.ErrTimeout})
		err := e.Emit(context.Background(), ChordEvent(gesture.CMajor, eventTime))
		assert.ErrorIs(t, err, plugin.ErrTimeout)
	})

	t.Run("plugin reports failure", func(t *testing.T) {
		e := NewPluginEmitter(bindings, plugins, &fakeRunner{resp: &plugin.Response{Error: "sample missing"}})
		err := e.Emit(context.Background(), ChordEvent(gesture.CMajor, eventTime))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sample missing")
	})

	t.Run("invalid event", func(t *testing.T) {
		runner := &fakeRunner{}
		e := NewPluginEmitter(bindings, plugins, runner)
		err := e.Emit(context.Background(), ChordEvent(gesture.ChordUnknown, eventTime))
		assert.True(t, errors.Is(err, ErrInvalidEvent))
		assert.Empty(t, runner.requests)
	})
}
