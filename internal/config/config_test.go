package config

import (
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.Preview.CanvasEdge != 800 {
		t.Errorf("preview edge = %d, want 800", cfg.Preview.CanvasEdge)
	}
	if cfg.Export.Edge != 1024 {
		t.Errorf("export edge = %d, want 1024", cfg.Export.Edge)
	}
	if cfg.Export.JPEGQuality != 90 {
		t.Errorf("jpeg quality = %d, want 90", cfg.Export.JPEGQuality)
	}
	if cfg.Animated.Edge != 720 {
		t.Errorf("animated edge = %d, want 720", cfg.Animated.Edge)
	}
	if cfg.Animated.FPS != 30 {
		t.Errorf("animated fps = %d, want 30", cfg.Animated.FPS)
	}
	if cfg.Animated.MaxDuration != 10*time.Second {
		t.Errorf("animated max duration = %v, want 10s", cfg.Animated.MaxDuration)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero preview edge", func(c *Config) { c.Preview.CanvasEdge = 0 }},
		{"zero preview fps", func(c *Config) { c.Preview.FPS = 0 }},
		{"negative export edge", func(c *Config) { c.Export.Edge = -1 }},
		{"jpeg quality too high", func(c *Config) { c.Export.JPEGQuality = 101 }},
		{"jpeg quality too low", func(c *Config) { c.Export.JPEGQuality = 0 }},
		{"webp quality too high", func(c *Config) { c.Export.WebPQuality = 200 }},
		{"empty prefix", func(c *Config) { c.Export.Prefix = "" }},
		{"zero animated edge", func(c *Config) { c.Animated.Edge = 0 }},
		{"zero animated fps", func(c *Config) { c.Animated.FPS = 0 }},
		{"zero max duration", func(c *Config) { c.Animated.MaxDuration = 0 }},
		{"zero frame quality", func(c *Config) { c.Animated.FrameQuality = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvRemovalHost, "http://gpu-box:11434")
	t.Setenv(EnvAPIKey, "secret-token")

	cfg := FromEnv()
	if cfg.Removal.BaseURL != "http://gpu-box:11434" {
		t.Errorf("base URL = %q", cfg.Removal.BaseURL)
	}
	if cfg.Removal.APIKey != "secret-token" {
		t.Errorf("api key = %q", cfg.Removal.APIKey)
	}
}

func TestFromEnvDefaultsWhenUnset(t *testing.T) {
	t.Setenv(EnvRemovalHost, "")
	t.Setenv(EnvAPIKey, "")

	cfg := FromEnv()
	if cfg.Removal.BaseURL != "http://localhost:11434" {
		t.Errorf("base URL = %q, want default", cfg.Removal.BaseURL)
	}
	if cfg.Removal.APIKey != "" {
		t.Errorf("api key = %q, want empty", cfg.Removal.APIKey)
	}
}
