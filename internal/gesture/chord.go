package gesture

import "fmt"

// Chord is a recognized chord label. The zero value is ChordUnknown.
type Chord int

const (
	ChordUnknown Chord = iota
	CMajor
	GMajor
	DMajor
	AMinor
	EMinor
	FMajor
)

var chordNames = [...]string{
	ChordUnknown: "unknown",
	CMajor:       "C_major",
	GMajor:       "G_major",
	DMajor:       "D_major",
	AMinor:       "A_minor",
	EMinor:       "E_minor",
	FMajor:       "F_major",
}

// KnownChords lists the six chords the classifier can produce.
var KnownChords = [...]Chord{CMajor, GMajor, DMajor, AMinor, EMinor, FMajor}

// Known reports whether c is one of the six recognized chords.
func (c Chord) Known() bool {
	return c >= CMajor && c <= FMajor
}

func (c Chord) String() string {
	if c < ChordUnknown || c > FMajor {
		return fmt.Sprintf("chord(%d)", int(c))
	}
	return chordNames[c]
}

// MarshalText encodes the chord by name.
func (c Chord) MarshalText() ([]byte, error) {
	if c < ChordUnknown || c > FMajor {
		return nil, fmt.Errorf("invalid chord %d", int(c))
	}
	return []byte(chordNames[c]), nil
}

// UnmarshalText decodes a chord name.
func (c *Chord) UnmarshalText(text []byte) error {
	parsed, err := ParseChord(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseChord returns the chord with the given name, such as "C_major".
func ParseChord(name string) (Chord, error) {
	for i, n := range chordNames {
		if n == name {
			return Chord(i), nil
		}
	}
	return ChordUnknown, fmt.Errorf("unknown chord %q", name)
}

// ChordRule is one row of the chord lookup table.
type ChordRule struct {
	ExtendedCount int    `json:"extended_count"`
	Band          Band   `json:"band"`
	Chord         Chord  `json:"chord"`
	Description   string `json:"description"`
}

type chordKey struct {
	count int
	band  Band
}

var chordRules = []ChordRule{
	{ExtendedCount: 2, Band: BandHigh, Chord: CMajor, Description: "two fingers, hand raised"},
	{ExtendedCount: 2, Band: BandLow, Chord: GMajor, Description: "two fingers, hand lowered"},
	{ExtendedCount: 3, Band: BandHigh, Chord: DMajor, Description: "three fingers, hand raised"},
	{ExtendedCount: 3, Band: BandLow, Chord: AMinor, Description: "three fingers, hand lowered"},
	{ExtendedCount: 4, Band: BandHigh, Chord: EMinor, Description: "four fingers, hand raised"},
	{ExtendedCount: 4, Band: BandLow, Chord: FMajor, Description: "four fingers, hand lowered"},
}

var chordLookup = func() map[chordKey]Chord {
	m := make(map[chordKey]Chord, len(chordRules))
	for _, r := range chordRules {
		m[chordKey{r.ExtendedCount, r.Band}] = r.Chord
	}
	return m
}()

// ChordTable returns a copy of the lookup table, in display order.
func ChordTable() []ChordRule {
	out := make([]ChordRule, len(chordRules))
	copy(out, chordRules)
	return out
}

// ClassifyChord maps an extended-finger count and band to a chord.
// It is total: every pair not in the table, including any Middle band, is ChordUnknown.
func ClassifyChord(extendedCount int, band Band) Chord {
	if c, ok := chordLookup[chordKey{extendedCount, band}]; ok {
		return c
	}
	return ChordUnknown
}
