package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/airguitar/internal/app"
	"github.com/ayusman/airguitar/internal/detector"
	"github.com/ayusman/airguitar/internal/emitter"
	"github.com/ayusman/airguitar/internal/gesture"
)

// classifyFrameInterval spaces recorded frames as if captured at 15 FPS.
const classifyFrameInterval = time.Second / 15

// recordedFrame is one frame of a landmark recording.
type recordedFrame struct {
	Hands []detector.HandLandmarks `json:"hands"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify [frames.json]",
	Short: "Classify a recording of hand landmarks",
	Long: `Reads a JSON array of frames, each {"hands": [...]}, runs them through the
classifier in order and prints the chord of every frame plus the events it emits.
With --guide, prints the chord table instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if guide, _ := cmd.Flags().GetBool("guide"); guide {
			return printGuide(out)
		}
		if len(args) == 0 {
			return fmt.Errorf("a frames file is required unless --guide is set")
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		asJSON, _ := cmd.Flags().GetBool("json")
		return runClassify(f, out, cfg.Thresholds, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().Bool("guide", false, "Print the chord table")
	classifyCmd.Flags().Bool("json", false, "Print one JSON frame result per line")
}

// printGuide writes the chord table.
func printGuide(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHORD\tFINGERS\tPOSITION\tHOW")
	for _, rule := range gesture.ChordTable() {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", rule.Chord, rule.ExtendedCount, rule.Band, rule.Description)
	}
	return tw.Flush()
}

// runClassify replays frames from r through a fresh session and reports to w.
func runClassify(r io.Reader, w io.Writer, th gesture.Thresholds, asJSON bool) error {
	var frames []recordedFrame
	if err := json.NewDecoder(r).Decode(&frames); err != nil {
		return fmt.Errorf("read frames: %w", err)
	}

	session := app.NewSession(gesture.NewAnalyzer(th))
	rec := emitter.NewRecorder()
	ctx := context.Background()
	start := time.Unix(0, 0).UTC()
	enc := json.NewEncoder(w)

	for i, frame := range frames {
		now := start.Add(time.Duration(i) * classifyFrameInterval)
		result := session.Process(frame.Hands, now)

		if result.Change != nil {
			rec.Emit(ctx, emitter.ChordEvent(result.Change.Chord, result.Change.Time))
		}
		if result.Strum != gesture.StrumNone {
			rec.Emit(ctx, emitter.StrumEvent(result.Strum, now))
		}

		if asJSON {
			if err := enc.Encode(result); err != nil {
				return err
			}
			continue
		}

		line := fmt.Sprintf("frame %d: hands=%d chord=%s strum=%s", i, len(frame.Hands), result.Chord, result.Strum)
		if result.Change != nil {
			line += " change=" + result.Change.Chord.String()
		}
		fmt.Fprintln(w, line)
	}

	if asJSON {
		return nil
	}

	events := rec.Events()
	fmt.Fprintf(w, "\n%d events\n", len(events))
	for _, ev := range events {
		switch ev.Kind {
		case emitter.KindChord:
			fmt.Fprintf(w, "  %s chord %s\n", ev.Time.Sub(start), ev.Chord)
		case emitter.KindStrum:
			fmt.Fprintf(w, "  %s strum %s\n", ev.Time.Sub(start), ev.Direction)
		}
	}
	return nil
}
