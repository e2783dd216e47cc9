package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	DoctextAPIKey string

	// Vision OCR service
	VisionAPIURL  string
	VisionAPIKey  string
	VisionTimeout time.Duration

	// Hybrid extraction
	OCRWorkers   int // bounded per-document OCR fan-out
	RenderDPI    int
	MinTextChars int // below this, direct extraction is rejected

	// Job pool
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// Upload limits
	MaxUploadBytes int64
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DoctextAPIKey: os.Getenv("DOCTEXT_API_KEY"),

		VisionAPIURL:  envOr("VISION_API_URL", "https://vision.googleapis.com"),
		VisionAPIKey:  os.Getenv("VISION_API_KEY"),
		VisionTimeout: envDuration("VISION_TIMEOUT", 60*time.Second),

		OCRWorkers:   envInt("OCR_WORKERS", 3),
		RenderDPI:    envInt("RENDER_DPI", 300),
		MinTextChars: envInt("MIN_TEXT_CHARS", 50),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),
		JobTTL:       envDuration("JOB_TTL", 1*time.Hour),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
	}

	if cfg.OCRWorkers <= 0 {
		cfg.OCRWorkers = 3
	}
	if cfg.RenderDPI <= 0 {
		cfg.RenderDPI = 300
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 50
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DoctextAPIKey == "" {
		return fmt.Errorf("DOCTEXT_API_KEY is required")
	}
	if c.VisionAPIKey == "" {
		return fmt.Errorf("VISION_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
