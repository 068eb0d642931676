// Package metrics exposes pipeline counters in Prometheus format.
//
// All methods are safe to call on a nil *Metrics, so components can take an
// optional collector without branching.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "airguitar"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	frames        prometheus.Counter
	handsDetected prometheus.Counter
	chordChanges  *prometheus.CounterVec
	strums        *prometheus.CounterVec
	malformed     prometheus.Counter
	emitErrors    *prometheus.CounterVec
	fps           prometheus.Gauge
	active        prometheus.Gauge
}

// New creates and registers every collector, plus the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames passed to the classifier.",
		}),
		handsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hands_detected_total",
			Help:      "Hands seen across all classified frames.",
		}),
		chordChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chord_changes_total",
			Help:      "Transitions to a new known chord.",
		}, []string{"chord"}),
		strums: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strums_total",
			Help:      "Detected strums by direction.",
		}, []string{"direction"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_observations_total",
			Help:      "Frames rejected because a hand did not carry 21 landmarks.",
		}),
		emitErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emit_errors_total",
			Help:      "Failed event deliveries by emitter.",
		}, []string{"emitter"}),
		fps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_fps",
			Help:      "Frames processed per second over the last second.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_active",
			Help:      "1 while motion keeps the pipeline in active mode.",
		}),
	}

	m.registry.MustRegister(
		m.frames, m.handsDetected, m.chordChanges, m.strums,
		m.malformed, m.emitErrors, m.fps, m.active,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFrame counts one classified frame and its detected hands.
func (m *Metrics) ObserveFrame(hands int) {
	if m == nil {
		return
	}
	m.frames.Inc()
	m.handsDetected.Add(float64(hands))
}

// ChordChanged counts a transition to chord.
func (m *Metrics) ChordChanged(chord string) {
	if m == nil {
		return
	}
	m.chordChanges.WithLabelValues(chord).Inc()
}

// Strummed counts a strum in direction.
func (m *Metrics) Strummed(direction string) {
	if m == nil {
		return
	}
	m.strums.WithLabelValues(direction).Inc()
}

// MalformedObservation counts a rejected frame.
func (m *Metrics) MalformedObservation() {
	if m == nil {
		return
	}
	m.malformed.Inc()
}

// EmitFailed counts a failed delivery by emitter name.
func (m *Metrics) EmitFailed(emitter string) {
	if m == nil {
		return
	}
	m.emitErrors.WithLabelValues(emitter).Inc()
}

// SetFPS records the measured frame rate.
func (m *Metrics) SetFPS(fps float64) {
	if m == nil {
		return
	}
	m.fps.Set(fps)
}

// SetActive records whether the motion gate is open.
func (m *Metrics) SetActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.active.Set(1)
	} else {
		m.active.Set(0)
	}
}
