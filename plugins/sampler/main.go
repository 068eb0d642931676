// Package main provides a sound plugin that plays one WAV sample per chord and a pick
// noise per strum. Playback is delegated to afplay on macOS and aplay elsewhere.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action    string          `json:"action"`
	Chord     string          `json:"chord"`
	Direction string          `json:"direction"`
	Volume    float64         `json:"volume"`
	Config    json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the per-binding plugin configuration.
type Config struct {
	SoundsDir string `json:"sounds_dir"`
	Player    string `json:"player"`
}

const strumSample = "pick_noise.wav"

var chords = map[string]bool{
	"C_major": true,
	"G_major": true,
	"D_major": true,
	"A_minor": true,
	"E_minor": true,
	"F_major": true,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	cfg, err := parseConfig(req.Config)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	var sample string
	switch req.Action {
	case "play_chord":
		if !chords[req.Chord] {
			writeErrorResponse(fmt.Sprintf("unknown chord: %q", req.Chord))
			return
		}
		sample = req.Chord + ".wav"
	case "play_strum":
		sample = strumSample
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	path := filepath.Join(cfg.SoundsDir, sample)
	if _, err := os.Stat(path); err != nil {
		writeErrorResponse(fmt.Sprintf("sample %s: %v", sample, err))
		return
	}

	if err := play(cfg.Player, path, req.Volume); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse(sample)
}

func parseConfig(raw json.RawMessage) (Config, error) {
	cfg := Config{SoundsDir: "sounds"}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.SoundsDir == "" {
		return cfg, errors.New("sounds_dir is required")
	}
	return cfg, nil
}

// play blocks until the sample has been handed to the system player.
// afplay takes a volume argument; aplay plays at the mixer level.
func play(player, path string, volume float64) error {
	if player == "" {
		player = defaultPlayer()
	}

	args := []string{path}
	if filepath.Base(player) == "afplay" && volume > 0 {
		args = []string{"-v", strconv.FormatFloat(volume, 'f', 2, 64), path}
	} else if filepath.Base(player) == "aplay" {
		args = []string{"-q", path}
	}

	output, err := exec.Command(player, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func defaultPlayer() string {
	if runtime.GOOS == "darwin" {
		return "afplay"
	}
	return "aplay"
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{
		Success: false,
		Error:   errMsg,
	})
}

// writeSuccessResponse writes a success response naming the sample played.
func writeSuccessResponse(sample string) {
	data, _ := json.Marshal(map[string]string{"played": sample})
	json.NewEncoder(os.Stdout).Encode(Response{
		Success: true,
		Data:    data,
	})
}
