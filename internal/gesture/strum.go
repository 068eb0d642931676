package gesture

import "fmt"

// Strum is the direction of a strum between two consecutive frames.
type Strum int

const (
	StrumNone Strum = iota
	Downstroke
	Upstroke
)

var strumNames = [...]string{
	StrumNone:  "none",
	Downstroke: "downstroke",
	Upstroke:   "upstroke",
}

func (s Strum) String() string {
	if s < StrumNone || s > Upstroke {
		return fmt.Sprintf("strum(%d)", int(s))
	}
	return strumNames[s]
}

// MarshalText encodes the direction by name.
func (s Strum) MarshalText() ([]byte, error) {
	if s < StrumNone || s > Upstroke {
		return nil, fmt.Errorf("invalid strum %d", int(s))
	}
	return []byte(strumNames[s]), nil
}

// UnmarshalText decodes a direction name.
func (s *Strum) UnmarshalText(text []byte) error {
	for i, name := range strumNames {
		if name == string(text) {
			*s = Strum(i)
			return nil
		}
	}
	return fmt.Errorf("unknown strum %q", text)
}

// DetectStrum compares the top edge of the hand across two frames.
// Either side missing or not detected yields StrumNone. Only a movement strictly
// beyond the dead zone counts; image y grows downward, so a positive delta is a downstroke.
//
// The detector only sees one frame step, so a slow sweep whose per-frame delta stays
// inside the dead zone never strums no matter how far the hand travels.
func DetectStrum(prev, cur *HandAnalysis, th Thresholds) Strum {
	if prev == nil || cur == nil || !prev.Detected || !cur.Detected {
		return StrumNone
	}

	movement := cur.BoundingBox.YMin - prev.BoundingBox.YMin
	switch {
	case movement > th.StrumDeadZone:
		return Downstroke
	case movement < -th.StrumDeadZone:
		return Upstroke
	default:
		return StrumNone
	}
}
