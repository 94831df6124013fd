package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facecapture.yaml")
	data := `
subject: alice
camera:
  device: 2
detector:
  interval: 250ms
  flip_yaw: true
  model_url: https://models.example.com/headpose.onnx
store:
  backend: redis
  redis:
    addr: redis:6379
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Subject != "alice" || cfg.Camera.Device != 2 {
		t.Fatalf("yaml values not applied: %+v", cfg)
	}
	if cfg.Detector.Interval != 250*time.Millisecond || !cfg.Detector.FlipYaw ||
		cfg.Detector.ModelURL != "https://models.example.com/headpose.onnx" {
		t.Fatalf("detector section not applied: %+v", cfg.Detector)
	}
	if cfg.Store.Backend != "redis" || cfg.Store.Redis.Addr != "redis:6379" {
		t.Fatalf("store section not applied: %+v", cfg.Store)
	}
	if cfg.Camera.JPEGQuality != 80 {
		t.Fatalf("expected untouched default jpeg quality, got %d", cfg.Camera.JPEGQuality)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facecapture.yaml")
	if err := os.WriteFile(path, []byte("subject: alice\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FACECAPTURE_SUBJECT", "bob")
	t.Setenv("FACECAPTURE_CAMERA_DEVICE", "3")
	t.Setenv("FACECAPTURE_MANUAL", "true")
	t.Setenv("FACECAPTURE_REMINDER_INTERVAL", "45s")
	t.Setenv("FACECAPTURE_MODEL_URL", "http://mirror.local/headpose.onnx")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Subject != "bob" || cfg.Camera.Device != 3 || !cfg.Manual {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Reminder.Interval != 45*time.Second {
		t.Fatalf("reminder interval = %s", cfg.Reminder.Interval)
	}
	if cfg.Detector.ModelURL != "http://mirror.local/headpose.onnx" {
		t.Fatalf("model url = %q", cfg.Detector.ModelURL)
	}
}

func TestBadEnvKeepsDefault(t *testing.T) {
	t.Setenv("FACECAPTURE_CAMERA_DEVICE", "front")
	t.Setenv("FACECAPTURE_AUDIO", "maybe")
	t.Setenv("FACECAPTURE_DETECT_INTERVAL", "-1s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Camera.Device != 0 || !cfg.Audio.Enabled || cfg.Detector.Interval != 100*time.Millisecond {
		t.Fatalf("malformed env should keep defaults: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"jpeg quality", func(c *Config) { c.Camera.JPEGQuality = 0 }, "jpeg_quality"},
		{"interval too short", func(c *Config) { c.Detector.Interval = 50 * time.Millisecond }, "detector.interval"},
		{"backend", func(c *Config) { c.Store.Backend = "sqlite" }, "store.backend"},
		{"bucket", func(c *Config) { c.Upload.Enabled = true }, "upload.bucket"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
