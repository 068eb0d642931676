// Package config loads application settings from YAML, environment and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/airguitar/internal/gesture"
)

// EnvPrefix prefixes every environment override, e.g. AIRGUITAR_SERVER_ADDR.
const EnvPrefix = "AIRGUITAR"

type Config struct {
	Server     ServerConfig       `mapstructure:"server" yaml:"server"`
	Store      StoreConfig        `mapstructure:"store" yaml:"store"`
	Capture    CaptureConfig      `mapstructure:"capture" yaml:"capture"`
	Detector   DetectorConfig     `mapstructure:"detector" yaml:"detector"`
	Thresholds gesture.Thresholds `mapstructure:"thresholds" yaml:"thresholds"`
	Plugins    PluginsConfig      `mapstructure:"plugins" yaml:"plugins"`
	MQTT       MQTTConfig         `mapstructure:"mqtt" yaml:"mqtt"`
	Redis      RedisConfig        `mapstructure:"redis" yaml:"redis"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"`
	Mode      string `mapstructure:"mode" yaml:"mode"`
}

type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type CaptureConfig struct {
	CameraID        int           `mapstructure:"camera_id" yaml:"camera_id"`
	Width           int           `mapstructure:"width" yaml:"width"`
	Height          int           `mapstructure:"height" yaml:"height"`
	IdleFPS         int           `mapstructure:"idle_fps" yaml:"idle_fps"`
	ActiveFPS       int           `mapstructure:"active_fps" yaml:"active_fps"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	MotionThreshold float32       `mapstructure:"motion_threshold" yaml:"motion_threshold"`
}

type DetectorConfig struct {
	MaxHands      int           `mapstructure:"max_hands" yaml:"max_hands"`
	MinConfidence float64       `mapstructure:"min_confidence" yaml:"min_confidence"`
	ScriptPath    string        `mapstructure:"script_path" yaml:"script_path"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

type PluginsConfig struct {
	Dir         string        `mapstructure:"dir" yaml:"dir"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Volume      float64       `mapstructure:"volume" yaml:"volume"`
	StrumVolume float64       `mapstructure:"strum_volume" yaml:"strum_volume"`
}

type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Broker   string `mapstructure:"broker" yaml:"broker"`
	ClientID string `mapstructure:"client_id" yaml:"client_id"`
	Topic    string `mapstructure:"topic" yaml:"topic"`
	QoS      byte   `mapstructure:"qos" yaml:"qos"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Channel  string `mapstructure:"channel" yaml:"channel"`
}

// Load reads the YAML file at configPath over the defaults, then applies
// AIRGUITAR_* environment overrides. An empty path skips the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or environment is given.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: defaults do not validate: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	dataDir := DataDir()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("store.path", filepath.Join(dataDir, "airguitar.db"))

	v.SetDefault("capture.camera_id", 0)
	v.SetDefault("capture.width", 640)
	v.SetDefault("capture.height", 480)
	v.SetDefault("capture.idle_fps", 5)
	v.SetDefault("capture.active_fps", 15)
	v.SetDefault("capture.idle_timeout", 2*time.Second)
	v.SetDefault("capture.motion_threshold", 1.0)

	v.SetDefault("detector.max_hands", 2)
	v.SetDefault("detector.min_confidence", 0.5)
	v.SetDefault("detector.script_path", "")
	v.SetDefault("detector.idle_timeout", 30*time.Second)

	v.SetDefault("thresholds.finger_extension", gesture.DefaultFingerExtension)
	v.SetDefault("thresholds.high_below", gesture.DefaultHighBelow)
	v.SetDefault("thresholds.low_from", gesture.DefaultLowFrom)
	v.SetDefault("thresholds.strum_dead_zone", gesture.DefaultStrumDeadZone)

	v.SetDefault("plugins.dir", filepath.Join(dataDir, "plugins"))
	v.SetDefault("plugins.timeout", 2*time.Second)
	v.SetDefault("plugins.volume", 0.7)
	v.SetDefault("plugins.strum_volume", 0.3)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "localhost:1883")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.topic", "airguitar")
	v.SetDefault("mqtt.qos", 0)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "airguitar")
}

// DataDir is ~/.airguitar, or .airguitar when the home directory is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".airguitar"
	}
	return filepath.Join(home, ".airguitar")
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if c.Capture.IdleFPS <= 0 || c.Capture.ActiveFPS <= 0 {
		return fmt.Errorf("capture: frame rates must be positive, got idle=%d active=%d",
			c.Capture.IdleFPS, c.Capture.ActiveFPS)
	}
	if c.Capture.ActiveFPS < c.Capture.IdleFPS {
		return fmt.Errorf("capture: active_fps %d is below idle_fps %d", c.Capture.ActiveFPS, c.Capture.IdleFPS)
	}
	if c.Plugins.Timeout <= 0 {
		return fmt.Errorf("plugins: timeout must be positive, got %s", c.Plugins.Timeout)
	}
	for name, vol := range map[string]float64{"volume": c.Plugins.Volume, "strum_volume": c.Plugins.StrumVolume} {
		if vol < 0 || vol > 1 {
			return fmt.Errorf("plugins: %s must be in [0,1], got %g", name, vol)
		}
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt: qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: broker is required when enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis: addr is required when enabled")
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
