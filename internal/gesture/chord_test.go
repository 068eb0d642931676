package gesture

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyChord_Table(t *testing.T) {
	tests := []struct {
		count int
		band  Band
		want  Chord
	}{
		{2, BandHigh, CMajor},
		{2, BandLow, GMajor},
		{3, BandHigh, DMajor},
		{3, BandLow, AMinor},
		{4, BandHigh, EMinor},
		{4, BandLow, FMajor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyChord(tt.count, tt.band), "count=%d band=%s", tt.count, tt.band)
	}
}

func TestClassifyChord_Total(t *testing.T) {
	known := 0
	for count := 0; count <= 4; count++ {
		for _, band := range []Band{BandHigh, BandMiddle, BandLow} {
			c := ClassifyChord(count, band)
			if c.Known() {
				known++
				assert.NotEqual(t, BandMiddle, band, "middle band must never match")
				assert.GreaterOrEqual(t, count, 2)
			} else {
				assert.Equal(t, ChordUnknown, c)
			}
		}
	}
	assert.Equal(t, 6, known)

	assert.Equal(t, ChordUnknown, ClassifyChord(-1, BandHigh))
	assert.Equal(t, ChordUnknown, ClassifyChord(5, BandLow))
	assert.Equal(t, ChordUnknown, ClassifyChord(2, BandNone))
}

func TestChordTable(t *testing.T) {
	table := ChordTable()
	require.Len(t, table, 6)

	for _, rule := range table {
		assert.Equal(t, rule.Chord, ClassifyChord(rule.ExtendedCount, rule.Band))
		assert.NotEmpty(t, rule.Description)
	}

	// Callers get a copy.
	table[0].Chord = FMajor
	assert.Equal(t, CMajor, ChordTable()[0].Chord)
}

func TestChord_Names(t *testing.T) {
	for _, c := range KnownChords {
		parsed, err := ParseChord(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
		assert.True(t, c.Known())
	}
	assert.False(t, ChordUnknown.Known())

	_, err := ParseChord("B_flat")
	assert.Error(t, err)

	data, err := json.Marshal(struct {
		Chord Chord `json:"chord"`
	}{AMinor})
	require.NoError(t, err)
	assert.JSONEq(t, `{"chord":"A_minor"}`, string(data))
}
