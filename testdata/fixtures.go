// Package testdata embeds recorded hand landmark sessions for tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/ayusman/airguitar/internal/detector"
)

//go:embed recordings/*.json
var recordingsFS embed.FS

// Frame is one recorded camera frame: the hands seen in it, possibly none.
type Frame struct {
	Hands []detector.HandLandmarks `json:"hands"`
}

// Recording returns the raw JSON of a recording by file name.
func Recording(name string) ([]byte, error) {
	data, err := recordingsFS.ReadFile("recordings/" + name)
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", name, err)
	}
	return data, nil
}

// LoadRecording decodes a recording into frames.
// A hand with the wrong number of landmarks fails with detector.ErrMalformedObservation.
func LoadRecording(name string) ([]Frame, error) {
	data, err := Recording(name)
	if err != nil {
		return nil, err
	}

	var frames []Frame
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("decode recording %s: %w", name, err)
	}
	return frames, nil
}

// Names lists the embedded recordings.
func Names() ([]string, error) {
	entries, err := recordingsFS.ReadDir("recordings")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
