// Package config loads runtime settings. Sources are applied in order:
// built-in defaults, an optional YAML file, then environment variables
// (after .env is loaded). Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Subject  string         `yaml:"subject"`
	Manual   bool           `yaml:"manual"` // allow manual capture even when detection works
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Reminder ReminderConfig `yaml:"reminder"`
	Store    StoreConfig    `yaml:"store"`
	Upload   UploadConfig   `yaml:"upload"`
	Audio    AudioConfig    `yaml:"audio"`
	Voice    VoiceConfig    `yaml:"voice"`
	Log      LogConfig      `yaml:"log"`
}

// CameraConfig selects the capture device and where stills go.
type CameraConfig struct {
	Device      int    `yaml:"device"`
	StillDir    string `yaml:"still_dir"`
	JPEGQuality int    `yaml:"jpeg_quality"`
}

// DetectorConfig points at the head-pose assets.
type DetectorConfig struct {
	OnnxLib   string        `yaml:"onnx_lib"`
	Model     string        `yaml:"model"`
	ModelURL  string        `yaml:"model_url"` // fetched into Model when missing
	Cascade   string        `yaml:"cascade"`
	InputSize int           `yaml:"input_size"`
	Margin    float64       `yaml:"margin"`
	MinFace   int           `yaml:"min_face"`
	FlipYaw   bool          `yaml:"flip_yaw"`
	FlipPitch bool          `yaml:"flip_pitch"`
	Interval  time.Duration `yaml:"interval"` // never below 100ms
}

// ReminderConfig tunes the nudges sent while the user is stuck.
type ReminderConfig struct {
	Interval time.Duration `yaml:"interval"`
	Cooldown time.Duration `yaml:"cooldown"`
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	Backend string      `yaml:"backend"` // memory | redis
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// UploadConfig enables mirroring stills to S3 before records are saved.
type UploadConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// AudioConfig controls feedback tones.
type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"`
}

// VoiceConfig controls Whisper voice commands.
type VoiceConfig struct {
	Enabled    bool          `yaml:"enabled"`
	WhisperBin string        `yaml:"whisper_bin"`
	Model      string        `yaml:"model"`
	Clip       time.Duration `yaml:"clip"`
	TempDir    string        `yaml:"temp_dir"`
}

// LogConfig controls log level and rotation.
type LogConfig struct {
	Level      string `yaml:"level"` // off | normal | verbose
	File       string `yaml:"file"`  // "stderr" logs to the console
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Subject: "anonymous",
		Camera: CameraConfig{
			StillDir:    ".facecapture/stills",
			JPEGQuality: 80,
		},
		Detector: DetectorConfig{
			OnnxLib:   "bin/libonnxruntime.so",
			Model:     "models/headpose.onnx",
			Cascade:   "models/haarcascade_frontalface_default.xml",
			InputSize: 224,
			Margin:    0.2,
			MinFace:   80,
			Interval:  100 * time.Millisecond,
		},
		Reminder: ReminderConfig{
			Interval: 20 * time.Second,
			Cooldown: 15 * time.Second,
		},
		Store: StoreConfig{
			Backend: "memory",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "facecapture",
			},
		},
		Upload: UploadConfig{
			Prefix: "faces",
			Region: "us-east-1",
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  0.3,
		},
		Voice: VoiceConfig{
			WhisperBin: "whisper-cli",
			Model:      "bin/ggml-small.bin",
			Clip:       2 * time.Second,
			TempDir:    ".facecapture/stt",
		},
		Log: LogConfig{
			Level:      "normal",
			File:       ".facecapture/logs/facecapture.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// A missing .env is normal.
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Subject = envString("FACECAPTURE_SUBJECT", c.Subject)
	c.Manual = envBool("FACECAPTURE_MANUAL", c.Manual)

	c.Camera.Device = envInt("FACECAPTURE_CAMERA_DEVICE", c.Camera.Device)
	c.Camera.StillDir = envString("FACECAPTURE_STILL_DIR", c.Camera.StillDir)
	c.Camera.JPEGQuality = envInt("FACECAPTURE_JPEG_QUALITY", c.Camera.JPEGQuality)

	c.Detector.OnnxLib = envString("FACECAPTURE_ONNX_LIB", c.Detector.OnnxLib)
	c.Detector.Model = envString("FACECAPTURE_MODEL", c.Detector.Model)
	c.Detector.ModelURL = envString("FACECAPTURE_MODEL_URL", c.Detector.ModelURL)
	c.Detector.Cascade = envString("FACECAPTURE_CASCADE", c.Detector.Cascade)
	c.Detector.FlipYaw = envBool("FACECAPTURE_FLIP_YAW", c.Detector.FlipYaw)
	c.Detector.FlipPitch = envBool("FACECAPTURE_FLIP_PITCH", c.Detector.FlipPitch)
	c.Detector.Interval = envDuration("FACECAPTURE_DETECT_INTERVAL", c.Detector.Interval)

	c.Reminder.Interval = envDuration("FACECAPTURE_REMINDER_INTERVAL", c.Reminder.Interval)

	c.Store.Backend = envString("FACECAPTURE_STORE", c.Store.Backend)
	c.Store.Redis.Addr = envString("REDIS_ADDR", c.Store.Redis.Addr)
	c.Store.Redis.Password = envString("REDIS_PASSWORD", c.Store.Redis.Password)
	c.Store.Redis.DB = envInt("REDIS_DB", c.Store.Redis.DB)

	c.Upload.Enabled = envBool("FACECAPTURE_UPLOAD", c.Upload.Enabled)
	c.Upload.Bucket = envString("FACECAPTURE_S3_BUCKET", c.Upload.Bucket)
	c.Upload.Region = envString("AWS_REGION", c.Upload.Region)
	c.Upload.AccessKeyID = envString("AWS_ACCESS_KEY_ID", c.Upload.AccessKeyID)
	c.Upload.SecretAccessKey = envString("AWS_SECRET_ACCESS_KEY", c.Upload.SecretAccessKey)

	c.Audio.Enabled = envBool("FACECAPTURE_AUDIO", c.Audio.Enabled)
	c.Voice.Enabled = envBool("FACECAPTURE_VOICE", c.Voice.Enabled)
	c.Voice.WhisperBin = envString("FACECAPTURE_WHISPER_BIN", c.Voice.WhisperBin)
	c.Voice.Model = envString("FACECAPTURE_WHISPER_MODEL", c.Voice.Model)

	c.Log.Level = envString("FACECAPTURE_LOG_LEVEL", c.Log.Level)
	c.Log.File = envString("FACECAPTURE_LOG_FILE", c.Log.File)
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.Camera.JPEGQuality < 1 || c.Camera.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("camera.jpeg_quality must be 1-100, got %d", c.Camera.JPEGQuality))
	}
	if c.Detector.Interval < 100*time.Millisecond {
		errs = append(errs, fmt.Errorf("detector.interval must be at least 100ms, got %s", c.Detector.Interval))
	}
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("store.backend must be memory or redis, got %q", c.Store.Backend))
	}
	if c.Upload.Enabled && c.Upload.Bucket == "" {
		errs = append(errs, errors.New("upload.bucket is required when upload is enabled"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "off", "normal", "verbose":
	default:
		errs = append(errs, fmt.Errorf("log.level must be off, normal or verbose, got %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}
