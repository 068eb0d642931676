package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/airguitar/internal/config"
	"github.com/ayusman/airguitar/internal/logging"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "airguitar",
	Short: "Air guitar chord and strum recognition",
	Long: `airguitar watches your hands through the webcam, recognizes six chords from
the number of raised fingers and the hand's height, detects strums from vertical
movement, and sends the events to sound plugins, MQTT or Redis.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		mode, _ := cmd.Flags().GetString("log-mode")

		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded

		if mode == "" {
			mode = cfg.Server.Mode
		}
		logger, err = logging.New(mode)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-mode", "", "Log mode: release for JSON logs, anything else for console (default: server.mode)")
}
