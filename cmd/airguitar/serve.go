package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/airguitar/internal/app"
	"github.com/ayusman/airguitar/internal/capture"
	"github.com/ayusman/airguitar/internal/config"
	"github.com/ayusman/airguitar/internal/detector"
	"github.com/ayusman/airguitar/internal/emitter"
	"github.com/ayusman/airguitar/internal/metrics"
	"github.com/ayusman/airguitar/internal/server"
	"github.com/ayusman/airguitar/internal/server/api"
	"github.com/ayusman/airguitar/internal/store"
	"github.com/ayusman/airguitar/internal/tray"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the camera pipeline and the HTTP server",
	Long: `Opens the camera, classifies hands into chord and strum events, delivers them
to the configured emitters and serves the settings UI and API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		withTray, _ := cmd.Flags().GetBool("tray")
		noCamera, _ := cmd.Flags().GetBool("no-camera")
		return serve(cfg, logger, withTray, noCamera)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("tray", false, "Show a system tray menu")
	serveCmd.Flags().Bool("no-camera", false, "Serve the API without starting the camera pipeline")
}

func serve(cfg *config.Config, logger *zap.Logger, withTray, noCamera bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	thresholds, err := st.Settings().LoadThresholds(cfg.Thresholds)
	if err != nil {
		logger.Warn("ignoring stored thresholds", zap.Error(err))
	}

	m := metrics.New()

	emitters, closeEmitters := dialEmitters(ctx, cfg, logger)
	defer closeEmitters()

	a := app.New(app.Config{
		Store:         st,
		PluginDir:     cfg.Plugins.Dir,
		PluginTimeout: cfg.Plugins.Timeout,
		ChordVolume:   cfg.Plugins.Volume,
		StrumVolume:   cfg.Plugins.StrumVolume,
		Camera: capture.Config{
			DeviceID: cfg.Capture.CameraID,
			Width:    cfg.Capture.Width,
			Height:   cfg.Capture.Height,
			FPS:      cfg.Capture.IdleFPS,
		},
		Motion: capture.MotionConfig{Threshold: float64(cfg.Capture.MotionThreshold)},
		Gate: capture.GateConfig{
			IdleFPS:     cfg.Capture.IdleFPS,
			ActiveFPS:   cfg.Capture.ActiveFPS,
			IdleTimeout: cfg.Capture.IdleTimeout,
		},
		Detector: detector.Config{
			MaxHands:        cfg.Detector.MaxHands,
			MinConfidence:   cfg.Detector.MinConfidence,
			MinTrackingConf: cfg.Detector.MinConfidence,
			ScriptPath:      cfg.Detector.ScriptPath,
			IdleTimeout:     cfg.Detector.IdleTimeout,
		},
		Thresholds: thresholds,
		Emitters:   emitters,
		Metrics:    m,
		Logger:     logger,
	})
	defer a.Close()

	if err := a.DiscoverPlugins(); err != nil {
		logger.Warn("plugin discovery failed", zap.Error(err))
	}

	var plugins api.PluginLookup
	if mgr := a.PluginManager(); mgr != nil {
		plugins = mgr
	}

	srvConfig := server.Config{
		StaticDir: cfg.Server.StaticDir,
		Store:     st,
		Pipeline:  a,
		Plugins:   plugins,
		Metrics:   m,
		Logger:    logger.Named("http"),
	}
	if srvConfig.StaticDir == "" {
		srvConfig.StaticDir = findWebDir()
	}

	if !noCamera {
		a.SetEnabled(true)
		if err := a.Start(); err != nil {
			logger.Error("camera pipeline not started", zap.Error(err))
		} else {
			srvConfig.Camera = a.Camera()
		}
	}

	srv := server.New(srvConfig)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Server.Addr), zap.String("static_dir", srvConfig.StaticDir))
		serverErrors <- httpServer.ListenAndServe()
	}()

	if withTray {
		t := tray.New(a.IsEnabled())
		t.OnToggle(a.SetEnabled)
		t.OnSettings(func() { openBrowser(settingsURL(cfg.Server.Addr), logger) })
		t.OnQuit(stop)
		a.OnFrame(t.Observe)

		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
		stop()
	}

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	srv.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown did not complete", zap.Duration("timeout", shutdownTimeout), zap.Error(err))
		httpServer.Close()
	}
	return nil
}

// dialEmitters connects the optional network emitters. Failures are logged and the
// emitter is skipped, so a missing broker never stops the guitar.
func dialEmitters(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]emitter.Emitter, func()) {
	var emitters []emitter.Emitter
	var closers []func()

	if cfg.MQTT.Enabled {
		e := emitter.NewMQTTEmitter(emitter.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
		}, logger.Named("mqtt"))
		if err := e.Connect(ctx); err != nil {
			logger.Error("mqtt emitter disabled", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		} else {
			emitters = append(emitters, e)
			closers = append(closers, func() {
				stats := e.Stats()
				logger.Info("mqtt emitter closed", zap.Any("published", stats.Published), zap.Uint64("errors", stats.Errors))
				e.Disconnect()
			})
		}
	}

	if cfg.Redis.Enabled {
		e, err := emitter.DialRedis(ctx, emitter.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		}, logger.Named("redis"))
		if err != nil {
			logger.Error("redis emitter disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			emitters = append(emitters, e)
			closers = append(closers, func() { e.Close() })
		}
	}

	return emitters, func() {
		for _, c := range closers {
			c()
		}
	}
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web", "../../web" and ~/.airguitar/web.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}

// settingsURL turns a listen address like ":8080" into a browsable URL.
func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string, logger *zap.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("could not open browser", zap.String("url", url), zap.Error(err))
	}
}
