// Package app wires the camera, hand detector and classifier into the running air guitar.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/airguitar/internal/capture"
	"github.com/ayusman/airguitar/internal/detector"
	"github.com/ayusman/airguitar/internal/emitter"
	"github.com/ayusman/airguitar/internal/gesture"
	"github.com/ayusman/airguitar/internal/metrics"
	"github.com/ayusman/airguitar/internal/plugin"
	"github.com/ayusman/airguitar/internal/store"
)

const (
	// DefaultEmitTimeout bounds one event delivery across all emitters.
	DefaultEmitTimeout = 3 * time.Second
	// eventQueueSize is how many events may wait for the dispatcher before new ones are dropped.
	eventQueueSize = 64
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("app closed")

// Config holds configuration options for the application.
type Config struct {
	Store         *store.Store
	PluginDir     string
	PluginTimeout time.Duration
	ChordVolume   float64
	StrumVolume   float64

	Camera     capture.Config
	Motion     capture.MotionConfig
	Gate       capture.GateConfig
	Detector   detector.Config
	Thresholds gesture.Thresholds

	// Emitters receive events in addition to the plugin emitter.
	Emitters    []emitter.Emitter
	EmitTimeout time.Duration

	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// FrameListener is called with every classified frame.
type FrameListener func(FrameResult)

// App is the main application that turns camera frames into chord and strum events.
type App struct {
	config    Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	camera    capture.Camera
	motion    *capture.MotionDetector
	detector  detector.Detector
	pluginMgr *plugin.Manager
	emitter   *emitter.Multi

	sessionMu sync.Mutex
	session   *Session

	mu        sync.RWMutex
	enabled   bool
	stopCh    chan struct{}
	done      chan struct{}
	fps       float64
	listeners []FrameListener

	events     chan emitter.Event
	dispatchWG sync.WaitGroup
	closeOnce  sync.Once
	closed     bool
}

// New creates a new App instance with the given configuration.
// The hand detector is the MediaPipe service when available, otherwise a mock that sees no hands.
func New(config Config) *App {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Thresholds == (gesture.Thresholds{}) {
		config.Thresholds = gesture.DefaultThresholds()
	}
	if config.EmitTimeout <= 0 {
		config.EmitTimeout = DefaultEmitTimeout
	}
	if config.PluginTimeout <= 0 {
		config.PluginTimeout = 2 * time.Second
	}
	if config.ChordVolume <= 0 {
		config.ChordVolume = emitter.DefaultChordVolume
	}
	if config.StrumVolume <= 0 {
		config.StrumVolume = emitter.DefaultStrumVolume
	}

	a := &App{
		config:  config,
		logger:  logger,
		metrics: config.Metrics,
		camera:  capture.NewCamera(config.Camera),
		motion:  capture.NewMotionDetector(config.Motion),
		session: NewSession(gesture.NewAnalyzer(config.Thresholds)),
		events:  make(chan emitter.Event, eventQueueSize),
	}

	a.emitter = emitter.NewMulti(func(name string, err error) {
		a.metrics.EmitFailed(name)
	})

	if config.PluginDir != "" {
		a.pluginMgr = plugin.NewManager(config.PluginDir, logger.Named("plugin"))
		if config.Store != nil {
			a.emitter.Add(emitter.NewPluginEmitter(
				config.Store.Bindings(),
				a.pluginMgr,
				plugin.NewExecutor(config.PluginTimeout),
				emitter.WithVolumes(config.ChordVolume, config.StrumVolume),
				emitter.WithLogger(logger.Named("plugin")),
			))
		}
	}
	for _, e := range config.Emitters {
		a.emitter.Add(e)
	}

	if mp, err := detector.NewMediaPipeDetector(config.Detector, logger.Named("detector")); err == nil {
		a.detector = mp
		logger.Info("using MediaPipe hand detection")
	} else {
		logger.Warn("MediaPipe not available, using mock detector", zap.Error(err))
		a.detector = detector.NewMockDetector()
	}

	a.dispatchWG.Add(1)
	go a.dispatch()

	return a
}

// SetEnabled enables or disables detection.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the camera. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// OnFrame registers a listener for classified frames. Listeners run on the
// pipeline goroutine and must not block.
func (a *App) OnFrame(fn FrameListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// AddEmitter adds an emitter. It must be called before Start.
func (a *App) AddEmitter(e emitter.Emitter) {
	a.emitter.Add(e)
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	if a.pluginMgr == nil {
		return nil
	}
	return a.pluginMgr.Discover()
}

// Thresholds returns the thresholds currently used by the classifier.
func (a *App) Thresholds() gesture.Thresholds {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()
	return a.session.Analyzer().Thresholds()
}

// SetThresholds validates th and applies it from the next frame on.
// The session keeps its previous frame and chord history.
func (a *App) SetThresholds(th gesture.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()
	a.session.SetAnalyzer(gesture.NewAnalyzer(th))
	a.logger.Info("thresholds updated",
		zap.Float64("finger_extension", th.FingerExtension),
		zap.Float64("high_below", th.HighBelow),
		zap.Float64("low_from", th.LowFrom),
		zap.Float64("strum_dead_zone", th.StrumDeadZone))
	return nil
}

// History returns the recent chord changes.
func (a *App) History() []ChordChange {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()
	return a.session.History()
}

// FPS returns the measured pipeline frame rate.
func (a *App) FPS() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.fps
}

// ProcessHands classifies one frame of hands, queues its events and notifies listeners.
func (a *App) ProcessHands(hands []detector.HandLandmarks, now time.Time) FrameResult {
	a.sessionMu.Lock()
	result := a.session.Process(hands, now)
	a.sessionMu.Unlock()

	a.metrics.ObserveFrame(len(hands))

	if result.Change != nil {
		a.metrics.ChordChanged(result.Change.Chord.String())
		a.logger.Info("chord", zap.Stringer("chord", result.Change.Chord))
		a.enqueue(emitter.ChordEvent(result.Change.Chord, result.Change.Time))
	}
	if result.Strum != gesture.StrumNone {
		a.metrics.Strummed(result.Strum.String())
		a.logger.Debug("strum", zap.Stringer("direction", result.Strum))
		a.enqueue(emitter.StrumEvent(result.Strum, now))
	}

	a.mu.RLock()
	listeners := a.listeners
	a.mu.RUnlock()
	for _, fn := range listeners {
		fn(result)
	}

	return result
}

func (a *App) enqueue(ev emitter.Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}

	select {
	case a.events <- ev:
	default:
		a.metrics.EmitFailed("queue")
		a.logger.Warn("event queue full, dropping event", zap.String("kind", string(ev.Kind)))
	}
}

// dispatch delivers queued events in order so a chord always reaches emitters before
// the strum that follows it.
func (a *App) dispatch() {
	defer a.dispatchWG.Done()

	for ev := range a.events {
		if a.emitter.Len() == 0 {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.config.EmitTimeout)
		if err := a.emitter.Emit(ctx, ev); err != nil {
			a.logger.Warn("emit failed", zap.String("kind", string(ev.Kind)), zap.Error(err))
		}
		cancel()
	}
}

// Start opens the camera and begins the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	a.logger.Info("detection pipeline started")
	return nil
}

// Stop halts the detection pipeline and closes the camera.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	if err := a.camera.Close(); err != nil {
		a.logger.Warn("error closing camera", zap.Error(err))
	}
	a.motion.Reset()
	a.metrics.SetActive(false)

	a.logger.Info("detection pipeline stopped")
}

// Close stops the pipeline, drains queued events and releases the detector.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.Stop()

		a.mu.Lock()
		a.closed = true
		close(a.events)
		a.mu.Unlock()
		a.dispatchWG.Wait()

		a.motion.Close()
		if d := a.Detector(); d != nil {
			err = d.Close()
		}
	})
	return err
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// PluginManager returns the plugin manager, or nil without a plugin directory.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}
