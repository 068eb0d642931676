// Package detector provides the hand-tracking boundary: landmark types and detector implementations.
package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
// The order is a contract with the landmark service and must not change.
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrMalformedObservation is returned when a hand does not carry exactly NumLandmarks points.
var ErrMalformedObservation = errors.New("malformed observation")

// Handedness tags an observed hand as left or right.
type Handedness string

const (
	Left  Handedness = "Left"
	Right Handedness = "Right"
)

// Valid reports whether h is Left or Right.
func (h Handedness) Valid() bool {
	return h == Left || h == Right
}

// Finger identifies one of the five fingers.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// Fingers lists every finger in anatomical order.
var Fingers = [...]Finger{Thumb, Index, Middle, Ring, Pinky}

// VotingFingers are the fingers that take part in the extension vote. The thumb is excluded.
var VotingFingers = [...]Finger{Index, Middle, Ring, Pinky}

// fingerChains maps each finger to its {base, joint, joint, tip} landmark indices.
var fingerChains = [...][4]int{
	Thumb:  {ThumbCMC, ThumbMCP, ThumbIP, ThumbTip},
	Index:  {IndexMCP, IndexPIP, IndexDIP, IndexTip},
	Middle: {MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
	Ring:   {RingMCP, RingPIP, RingDIP, RingTip},
	Pinky:  {PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
}

var fingerNames = [...]string{
	Thumb:  "thumb",
	Index:  "index",
	Middle: "middle",
	Ring:   "ring",
	Pinky:  "pinky",
}

// Valid reports whether f names a known finger.
func (f Finger) Valid() bool {
	return f >= Thumb && f <= Pinky
}

func (f Finger) String() string {
	if !f.Valid() {
		return fmt.Sprintf("finger(%d)", int(f))
	}
	return fingerNames[f]
}

// Chain returns the landmark indices of the finger from base to tip.
func (f Finger) Chain() [4]int {
	return fingerChains[f]
}

// MarshalText encodes the finger by name so it can be used as a JSON map key.
func (f Finger) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid finger %d", int(f))
	}
	return []byte(fingerNames[f]), nil
}

// UnmarshalText decodes a finger name.
func (f *Finger) UnmarshalText(text []byte) error {
	for i, name := range fingerNames {
		if name == string(text) {
			*f = Finger(i)
			return nil
		}
	}
	return fmt.Errorf("unknown finger %q", text)
}

// Point3D represents a 3D point in space with x, y, z coordinates.
// X and Y are normalized to [0,1] image coordinates; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance2D returns the Euclidean distance between a and b in the image plane, ignoring depth.
func Distance2D(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness Handedness            `json:"handedness"`
	Score      float64               `json:"score"`
}

// NewHandLandmarks builds a hand from a landmark slice.
// Any count other than NumLandmarks is rejected rather than padded or truncated.
func NewHandLandmarks(points []Point3D, handedness Handedness) (HandLandmarks, error) {
	var h HandLandmarks
	if len(points) != NumLandmarks {
		return h, fmt.Errorf("%w: got %d landmarks, want %d", ErrMalformedObservation, len(points), NumLandmarks)
	}
	copy(h.Points[:], points)
	h.Handedness = handedness
	return h, nil
}

// Landmark returns the landmark at index i.
func (h *HandLandmarks) Landmark(i int) Point3D {
	return h.Points[i]
}

// Tip returns the fingertip landmark of f.
func (h *HandLandmarks) Tip(f Finger) Point3D {
	return h.Points[fingerChains[f][3]]
}

// Base returns the base (knuckle) landmark of f.
func (h *HandLandmarks) Base(f Finger) Point3D {
	return h.Points[fingerChains[f][0]]
}

// UnmarshalJSON decodes a hand and fails fast when the point count is wrong.
func (h *HandLandmarks) UnmarshalJSON(data []byte) error {
	var raw struct {
		Points     []Point3D  `json:"points"`
		Handedness Handedness `json:"handedness"`
		Score      float64    `json:"score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	hand, err := NewHandLandmarks(raw.Points, raw.Handedness)
	if err != nil {
		return err
	}
	hand.Score = raw.Score
	*h = hand
	return nil
}
