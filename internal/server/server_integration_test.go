package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/airguitar/internal/gesture"
	"github.com/ayusman/airguitar/internal/plugin"
	"github.com/ayusman/airguitar/internal/store"
)

type fakePlugins map[string]*plugin.Plugin

func (f fakePlugins) Get(name string) (*plugin.Plugin, error) {
	if p, ok := f[name]; ok {
		return p, nil
	}
	return nil, plugin.ErrPluginNotFound
}

var samplerPlugin = fakePlugins{
	"sampler": {Manifest: plugin.Manifest{
		Name:    "sampler",
		Actions: []string{plugin.ActionPlayChord, plugin.ActionPlayStrum},
	}},
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAPI_BindingWorkflow(t *testing.T) {
	s := newTestStore(t)

	srv := New(Config{Store: s, Plugins: samplerPlugin})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()
	post := func(body string) *http.Response {
		t.Helper()
		resp, err := client.Post(ts.URL+"/api/bindings", "application/json", bytes.NewBufferString(body))
		if err != nil {
			t.Fatalf("POST /api/bindings error = %v", err)
		}
		return resp
	}

	// 1. Bind a chord
	resp := post(`{"chord": "C_major", "plugin_name": "sampler", "action_name": "play_chord", "config": {"sounds_dir": "/tmp/sounds"}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var created struct {
		ID      string          `json:"id"`
		Chord   string          `json:"chord"`
		Config  json.RawMessage `json:"config"`
		Enabled bool            `json:"enabled"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	if created.Chord != "C_major" || !created.Enabled {
		t.Errorf("created = %+v", created)
	}

	// 2. Duplicate chord conflicts
	resp = post(`{"chord": "C_major", "plugin_name": "sampler", "action_name": "play_chord"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate POST status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	resp.Body.Close()

	// 3. Bind strums
	resp = post(`{"chord": "strum", "plugin_name": "sampler", "action_name": "play_strum"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("strum POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	resp.Body.Close()

	// 4. List
	resp, _ = client.Get(ts.URL + "/api/bindings")
	var listed struct {
		Bindings []struct {
			ID    string `json:"id"`
			Chord string `json:"chord"`
		} `json:"bindings"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Bindings) != 2 {
		t.Fatalf("len(bindings) = %d, want 2", len(listed.Bindings))
	}

	// 5. Disable
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/bindings/"+created.ID, strings.NewReader(`{"enabled": false}`))
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	b, err := s.Bindings().GetByChord("C_major")
	if err != nil || b == nil {
		t.Fatalf("GetByChord() = %v, %v", b, err)
	}
	if b.Enabled {
		t.Error("binding should be disabled")
	}

	// 6. Moving onto a bound chord conflicts
	req, _ = http.NewRequest(http.MethodPut, ts.URL+"/api/bindings/"+created.ID, strings.NewReader(`{"chord": "strum"}`))
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("conflicting PUT status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	resp.Body.Close()

	// 7. Delete and verify
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/bindings/"+created.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	resp, _ = client.Get(ts.URL + "/api/bindings/" + created.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_BindingValidation(t *testing.T) {
	srv := New(Config{Store: newTestStore(t), Plugins: samplerPlugin})

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid JSON", body: `{`},
		{name: "missing chord", body: `{"plugin_name": "sampler", "action_name": "play_chord"}`},
		{name: "unknown chord", body: `{"chord": "B_flat", "plugin_name": "sampler", "action_name": "play_chord"}`},
		{name: "unknown is not bindable", body: `{"chord": "unknown", "plugin_name": "sampler", "action_name": "play_chord"}`},
		{name: "missing plugin", body: `{"chord": "G_major", "action_name": "play_chord"}`},
		{name: "plugin not installed", body: `{"chord": "G_major", "plugin_name": "synth", "action_name": "play_chord"}`},
		{name: "unsupported action", body: `{"chord": "G_major", "plugin_name": "sampler", "action_name": "open_app"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bindings", strings.NewReader(tt.body)))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
		})
	}
}

func TestAPI_ThresholdsPersist(t *testing.T) {
	s := newTestStore(t)
	srv := New(Config{Store: s})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/settings/thresholds",
		strings.NewReader(`{"finger_extension": 0.1}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	th, err := s.Settings().LoadThresholds(gesture.DefaultThresholds())
	if err != nil {
		t.Fatalf("LoadThresholds() error = %v", err)
	}
	if th.FingerExtension != 0.1 {
		t.Errorf("stored finger_extension = %g, want 0.1", th.FingerExtension)
	}
	if th.LowFrom != gesture.DefaultLowFrom {
		t.Errorf("stored low_from = %g, want default", th.LowFrom)
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}
