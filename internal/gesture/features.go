package gesture

import (
	"math"

	"github.com/ayusman/airguitar/internal/detector"
)

// Point2D is an image-plane coordinate.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FingerTips holds the tip position of every finger, thumb included.
type FingerTips struct {
	Thumb  Point2D `json:"thumb"`
	Index  Point2D `json:"index"`
	Middle Point2D `json:"middle"`
	Ring   Point2D `json:"ring"`
	Pinky  Point2D `json:"pinky"`
}

// BoundingBox is the axis-aligned extent of a hand in normalized coordinates.
type BoundingBox struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// Width returns XMax-XMin.
func (b BoundingBox) Width() float64 { return b.XMax - b.XMin }

// Height returns YMax-YMin.
func (b BoundingBox) Height() float64 { return b.YMax - b.YMin }

// VerticalCenter returns the midpoint of the box on the y axis.
func (b BoundingBox) VerticalCenter() float64 { return (b.YMin + b.YMax) / 2 }

// FingerStates maps each voting finger to whether it is extended.
type FingerStates map[detector.Finger]bool

// FeatureSet summarizes which fingers are extended.
// ExtendedCount always equals len(ExtendedFingers) and the number of true FingerStates.
type FeatureSet struct {
	FingerStates    FingerStates      `json:"finger_states"`
	ExtendedCount   int               `json:"extended_count"`
	ExtendedFingers []detector.Finger `json:"extended_fingers"`
}

func tip2D(h *detector.HandLandmarks, f detector.Finger) Point2D {
	p := h.Tip(f)
	return Point2D{X: p.X, Y: p.Y}
}

// ExtractFingerTips returns the (x, y) tip of every finger.
func ExtractFingerTips(h *detector.HandLandmarks) FingerTips {
	return FingerTips{
		Thumb:  tip2D(h, detector.Thumb),
		Index:  tip2D(h, detector.Index),
		Middle: tip2D(h, detector.Middle),
		Ring:   tip2D(h, detector.Ring),
		Pinky:  tip2D(h, detector.Pinky),
	}
}

// ComputeBoundingBox returns the extent of all landmarks in the image plane.
func ComputeBoundingBox(h *detector.HandLandmarks) BoundingBox {
	box := BoundingBox{
		XMin: math.Inf(1), XMax: math.Inf(-1),
		YMin: math.Inf(1), YMax: math.Inf(-1),
	}
	for _, p := range h.Points {
		box.XMin = math.Min(box.XMin, p.X)
		box.XMax = math.Max(box.XMax, p.X)
		box.YMin = math.Min(box.YMin, p.Y)
		box.YMax = math.Max(box.YMax, p.Y)
	}
	return box
}

// IsFingerExtended reports whether the tip of f is farther than threshold from its base.
// Depth and hand orientation are ignored, so a fast wrist rotation can flip the result.
func IsFingerExtended(h *detector.HandLandmarks, f detector.Finger, threshold float64) bool {
	return detector.Distance2D(h.Tip(f), h.Base(f)) > threshold
}

// ExtractFeatures runs the extension vote over index, middle, ring and pinky.
func ExtractFeatures(h *detector.HandLandmarks, th Thresholds) FeatureSet {
	fs := FeatureSet{
		FingerStates:    make(FingerStates, len(detector.VotingFingers)),
		ExtendedFingers: make([]detector.Finger, 0, len(detector.VotingFingers)),
	}
	for _, f := range detector.VotingFingers {
		extended := IsFingerExtended(h, f, th.FingerExtension)
		fs.FingerStates[f] = extended
		if extended {
			fs.ExtendedFingers = append(fs.ExtendedFingers, f)
		}
	}
	fs.ExtendedCount = len(fs.ExtendedFingers)
	return fs
}
