package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveFrame(2)
	m.ObserveFrame(0)
	m.ChordChanged("C_major")
	m.ChordChanged("C_major")
	m.ChordChanged("G_major")
	m.Strummed("downstroke")
	m.MalformedObservation()
	m.EmitFailed("mqtt")
	m.SetFPS(14.5)
	m.SetActive(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.frames))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.handsDetected))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.chordChanges.WithLabelValues("C_major")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chordChanges.WithLabelValues("G_major")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.strums.WithLabelValues("downstroke")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.malformed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emitErrors.WithLabelValues("mqtt")))
	assert.Equal(t, 14.5, testutil.ToFloat64(m.fps))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.active))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveFrame(1)
		m.ChordChanged("C_major")
		m.Strummed("upstroke")
		m.MalformedObservation()
		m.EmitFailed("plugin")
		m.SetFPS(1)
		m.SetActive(false)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ChordChanged("A_minor")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `airguitar_chord_changes_total{chord="A_minor"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
