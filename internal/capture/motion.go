package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection defaults.
const (
	// DefaultMotionThreshold is the percentage of changed pixels that counts as motion.
	DefaultMotionThreshold = 1.0
	// DefaultBlurSize is the Gaussian kernel size applied before differencing.
	DefaultBlurSize = 21
	// DefaultDiffThreshold is the per-pixel intensity change that marks a pixel as changed.
	DefaultDiffThreshold = 25
)

// MotionConfig tunes frame differencing.
type MotionConfig struct {
	Threshold     float64
	BlurSize      int
	DiffThreshold float32
}

// DefaultMotionConfig returns the settings used by the pipeline.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		Threshold:     DefaultMotionThreshold,
		BlurSize:      DefaultBlurSize,
		DiffThreshold: DefaultDiffThreshold,
	}
}

// MotionDetector detects motion between consecutive video frames
// using frame differencing with Gaussian blur for noise reduction.
type MotionDetector struct {
	config      MotionConfig
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a MotionDetector. Non-positive fields take their defaults,
// and an even blur size is bumped to the next odd one as GaussianBlur requires.
func NewMotionDetector(config MotionConfig) *MotionDetector {
	if config.Threshold <= 0 {
		config.Threshold = DefaultMotionThreshold
	}
	if config.BlurSize <= 0 {
		config.BlurSize = DefaultBlurSize
	}
	if config.BlurSize%2 == 0 {
		config.BlurSize++
	}
	if config.DiffThreshold <= 0 {
		config.DiffThreshold = DefaultDiffThreshold
	}

	return &MotionDetector{
		config:   config,
		prevGray: gocv.NewMat(),
	}
}

// Detect analyzes a frame for motion compared to the previous frame.
// Returns whether motion was detected and the percentage of pixels that changed.
// The first frame after construction or Reset only establishes the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	kernel := image.Point{X: m.config.BlurSize, Y: m.config.BlurSize}
	gocv.GaussianBlur(gray, &blurred, kernel, 0, 0, gocv.BorderDefault)

	if !m.initialized {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, m.config.DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	totalPixels := thresh.Rows() * thresh.Cols()
	changePercent := float64(nonZero) / float64(totalPixels) * 100.0

	blurred.CopyTo(&m.prevGray)

	return changePercent > m.config.Threshold, changePercent
}

// Reset clears the baseline so the next frame starts fresh.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// SetThreshold sets the percentage of pixels that must change to detect motion.
// Values less than or equal to 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.config.Threshold = threshold
}

// Threshold returns the current motion threshold.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.Threshold
}
