package gesture

import "fmt"

// Band is a coarse vertical position of a hand in the frame.
// BandNone is only carried by analyses with no hand; ClassifyPosition never returns it.
type Band int

const (
	BandNone Band = iota
	BandHigh
	BandMiddle
	BandLow
)

var bandNames = [...]string{
	BandNone:   "none",
	BandHigh:   "high",
	BandMiddle: "middle",
	BandLow:    "low",
}

func (b Band) String() string {
	if b < BandNone || b > BandLow {
		return fmt.Sprintf("band(%d)", int(b))
	}
	return bandNames[b]
}

// MarshalText encodes the band by name.
func (b Band) MarshalText() ([]byte, error) {
	if b < BandNone || b > BandLow {
		return nil, fmt.Errorf("invalid band %d", int(b))
	}
	return []byte(bandNames[b]), nil
}

// UnmarshalText decodes a band name.
func (b *Band) UnmarshalText(text []byte) error {
	for i, name := range bandNames {
		if name == string(text) {
			*b = Band(i)
			return nil
		}
	}
	return fmt.Errorf("unknown band %q", text)
}

// ClassifyPosition buckets the vertical center of box.
// Image y grows downward, so a small center means the hand is held high.
// The lower cut is closed: a center equal to HighBelow is Middle, equal to LowFrom is Low.
func ClassifyPosition(box BoundingBox, th Thresholds) Band {
	center := box.VerticalCenter()
	switch {
	case center < th.HighBelow:
		return BandHigh
	case center < th.LowFrom:
		return BandMiddle
	default:
		return BandLow
	}
}
