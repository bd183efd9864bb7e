package config

import (
	"fmt"
	"os"
	"time"
)

// Environment variables honored by FromEnv. The credential is the only
// environment-derived behavior in the module.
const (
	EnvRemovalHost = "OLLAMA_HOST"
	EnvAPIKey      = "CIRCLE_CROP_API_KEY"
)

// Config holds the session configuration
type Config struct {
	Preview  PreviewConfig
	Export   ExportConfig
	Animated AnimatedConfig
	Removal  RemovalConfig
}

// PreviewConfig holds configuration for the live preview surface
type PreviewConfig struct {
	// CanvasEdge is the square preview canvas edge in pixels. The circular
	// mask diameter is always 0.8 × this edge.
	CanvasEdge int
	// FPS drives the continuous redraw loop used for video previews.
	FPS int
}

// ExportConfig holds configuration for still exports
type ExportConfig struct {
	// Edge is the square export canvas edge in pixels; the crop circle
	// fills it completely.
	Edge        int
	JPEGQuality int
	WebPQuality int
	// Prefix names downloadable artifacts: prefix-YYYYMMDD-HHMMSS.ext.
	Prefix string
}

// AnimatedConfig holds configuration for animated capture
type AnimatedConfig struct {
	Edge        int
	FPS         int
	MaxDuration time.Duration
	// FrameQuality is the JPEG quality of individual captured frames.
	FrameQuality int
}

// RemovalConfig holds configuration for the background-removal backend
type RemovalConfig struct {
	// BaseURL of the generation endpoint, e.g. http://localhost:11434.
	BaseURL string
	Model   string
	// APIKey authorizes REST-style backends; unused by local Ollama.
	APIKey string
	// Timeout bounds a removal round trip when the caller's context
	// carries no deadline.
	Timeout time.Duration
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Preview: PreviewConfig{
			CanvasEdge: 800,
			FPS:        30,
		},
		Export: ExportConfig{
			Edge:        1024,
			JPEGQuality: 90,
			WebPQuality: 90,
			Prefix:      "circle-crop",
		},
		Animated: AnimatedConfig{
			Edge:         720,
			FPS:          30,
			MaxDuration:  10 * time.Second,
			FrameQuality: 85,
		},
		Removal: RemovalConfig{
			BaseURL: "http://localhost:11434",
			Model:   "qwen2.5vl",
			Timeout: 300 * time.Second,
		},
	}
}

// FromEnv returns the default configuration with the removal host and
// credential taken from the environment when present.
func FromEnv() *Config {
	cfg := Default()
	if host := os.Getenv(EnvRemovalHost); host != "" {
		cfg.Removal.BaseURL = host
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.Removal.APIKey = key
	}
	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Preview.CanvasEdge < 1 {
		return fmt.Errorf("preview.canvas_edge must be positive")
	}

	if c.Preview.FPS < 1 {
		return fmt.Errorf("preview.fps must be positive")
	}

	if c.Export.Edge < 1 {
		return fmt.Errorf("export.edge must be positive")
	}

	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		return fmt.Errorf("export.jpeg_quality must be between 1 and 100")
	}

	if c.Export.WebPQuality < 1 || c.Export.WebPQuality > 100 {
		return fmt.Errorf("export.webp_quality must be between 1 and 100")
	}

	if c.Export.Prefix == "" {
		return fmt.Errorf("export.prefix cannot be empty")
	}

	if c.Animated.Edge < 1 {
		return fmt.Errorf("animated.edge must be positive")
	}

	if c.Animated.FPS < 1 {
		return fmt.Errorf("animated.fps must be positive")
	}

	if c.Animated.MaxDuration <= 0 {
		return fmt.Errorf("animated.max_duration must be positive")
	}

	if c.Animated.FrameQuality < 1 || c.Animated.FrameQuality > 100 {
		return fmt.Errorf("animated.frame_quality must be between 1 and 100")
	}

	return nil
}
