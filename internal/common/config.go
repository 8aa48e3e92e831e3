package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	LLM      LLMConfig
	Pipeline PipelineConfig
	Queue    QueueConfig
	Store    StoreConfig
	Metrics  MetricsConfig
}

// LLMConfig holds completion-service configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	// RequestsPerMinute and Burst shape the shared client rate limiter.
	RequestsPerMinute float64
	Burst             int
}

// PipelineConfig holds extraction pipeline settings
type PipelineConfig struct {
	Ranker          string
	FieldCatalog    string
	Seed            int64
	MaxDocChars     int
	DefaultCategory string
	PdfToText       string
	// Pandoc converts .docx when set; empty uses the built-in parser.
	Pandoc string
}

// QueueConfig holds batch worker settings
type QueueConfig struct {
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

// StoreConfig holds run store settings. An empty DSN disables the store.
type StoreConfig struct {
	DSN string
}

type MetricsConfig struct {
	Addr string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:             getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			BaseURL:           getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:       getEnvAsFloat32("OPENAI_TEMPERATURE", 0.2),
			Timeout:           getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			RequestsPerMinute: float64(getEnvAsInt("OPENAI_RPM", 60)),
			Burst:             getEnvAsInt("OPENAI_BURST", 5),
		},
		Pipeline: PipelineConfig{
			Ranker:          getEnv("DOCCOLLATE_RANKER", "bm25"),
			FieldCatalog:    getEnv("DOCCOLLATE_FIELD_CATALOG", ""),
			Seed:            getEnvAsInt64("DOCCOLLATE_SEED", time.Now().UnixNano()),
			MaxDocChars:     getEnvAsInt("DOCCOLLATE_MAX_DOC_CHARS", 200000),
			DefaultCategory: getEnv("DOCCOLLATE_DEFAULT_CATEGORY", "30 其他计算机应用软件和信息服务"),
			PdfToText:       getEnv("DOCCOLLATE_PDFTOTEXT", "pdftotext"),
			Pandoc:          getEnv("DOCCOLLATE_PANDOC", ""),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("DOCCOLLATE_WORKERS", 1),
			Size:           getEnvAsInt("DOCCOLLATE_QUEUE_SIZE", 64),
			ProcessTimeout: getEnvAsDuration("DOCCOLLATE_PROCESS_TIMEOUT", 10*time.Minute),
		},
		Store: StoreConfig{
			DSN: getEnv("DOCCOLLATE_STORE_DSN", ""),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("DOCCOLLATE_METRICS_ADDR", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the settings every command depends on. The API key is
// checked separately by commands that actually call the completion service.
func (c *Config) Validate() error {
	switch c.Pipeline.Ranker {
	case "bm25", "termcount", "bleve":
	default:
		return NewConfigError("DOCCOLLATE_RANKER must be one of bm25, termcount, bleve (got %q)", c.Pipeline.Ranker)
	}
	if c.Queue.Workers < 1 {
		return NewConfigError("DOCCOLLATE_WORKERS must be >= 1")
	}
	if c.Queue.Size < 1 {
		return NewConfigError("DOCCOLLATE_QUEUE_SIZE must be >= 1")
	}
	if c.LLM.RequestsPerMinute <= 0 {
		return NewConfigError("OPENAI_RPM must be > 0")
	}
	if c.Pipeline.DefaultCategory == "" {
		return NewConfigError("DOCCOLLATE_DEFAULT_CATEGORY is required")
	}
	return nil
}

// RequireLLM fails when the completion service is not configured.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrConfiguration)
	}
	return nil
}
