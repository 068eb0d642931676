package app

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/airguitar/internal/capture"
	"github.com/ayusman/airguitar/internal/detector"
)

// runPipeline is the main detection loop that processes frames from the camera.
//
// Frames are read at the idle rate and diffed for motion. Motion opens the gate,
// raising the rate and sending frames to the hand detector; after the gate's idle
// timeout without motion it closes again and the session is broken so the next
// hand does not strum against a stale frame.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	camera := a.Camera()
	gate := capture.NewGate(a.config.Gate)
	camera.SetFPS(gate.FPS())
	a.metrics.SetActive(false)

	ticker := time.NewTicker(gate.Interval())
	defer ticker.Stop()

	var meter rateMeter

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := camera.ReadFrame()
			if err != nil {
				a.logger.Debug("error reading frame", zap.Error(err))
				continue
			}

			motion, changed := a.motion.Detect(frame)
			if gate.Observe(motion, now) {
				camera.SetFPS(gate.FPS())
				ticker.Reset(gate.Interval())
				a.metrics.SetActive(gate.Active())

				if gate.Active() {
					a.logger.Info("switched to active mode", zap.Float64("changed_pct", changed))
				} else {
					a.sessionMu.Lock()
					a.session.Break()
					a.sessionMu.Unlock()
					a.logger.Info("switched to idle mode")
				}
			}

			det := a.Detector()
			if !gate.Active() || det == nil {
				frame.Close()
				continue
			}

			hands, err := det.Detect(frame)
			frame.Close()

			switch {
			case errors.Is(err, detector.ErrMalformedObservation):
				a.metrics.MalformedObservation()
				a.logger.Warn("skipping frame", zap.Error(err))
				continue
			case err != nil:
				a.logger.Warn("error detecting hands", zap.Error(err))
				continue
			}

			a.ProcessHands(hands, now)

			if fps, ok := meter.Tick(now); ok {
				a.mu.Lock()
				a.fps = fps
				a.mu.Unlock()
				a.metrics.SetFPS(fps)
			}
		}
	}
}

// rateMeter measures frames per second over windows of at least one second.
type rateMeter struct {
	start  time.Time
	frames int
}

// Tick counts a frame at now and returns the rate when a window completes.
func (r *rateMeter) Tick(now time.Time) (float64, bool) {
	if r.start.IsZero() {
		r.start = now
		return 0, false
	}

	r.frames++
	elapsed := now.Sub(r.start)
	if elapsed < time.Second {
		return 0, false
	}

	fps := float64(r.frames) / elapsed.Seconds()
	r.start = now
	r.frames = 0
	return fps, true
}
