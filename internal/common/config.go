package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Blob       BlobConfig
	Server     ServerConfig
	Extract    ExtractConfig
	Analysis   AnalysisConfig
	Summarizer SummarizerConfig
	LLM        LLMConfig
	Queue      QueueConfig
	Ingest     IngestConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "sqlite" | "postgres"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// BlobConfig says where raw document bytes live: a local dir or gs://bucket/prefix.
type BlobConfig struct {
	Location string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// ExtractConfig holds text extraction configuration
type ExtractConfig struct {
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	TessdataDir   string
	DPI           int
	MaxPages      int
	EnableOCR     bool
	MinOCRChars   int
}

// AnalysisConfig holds detector tuning.
type AnalysisConfig struct {
	MaxEntitiesPerCategory int
	RiskContextChars       int
	RiskNorm               float64
	RiskMaxPerCategory     int
	RulesFile              string // optional YAML with clause/risk overrides
	ReadingWPM             float64
}

// SummarizerConfig holds summarizer configuration
type SummarizerConfig struct {
	Backend         string // "none" | "openai" | "vertex"
	ChunkChars      int
	MaxSummaryChars int
	Sentences       int
	Timeout         time.Duration
	CacheSize       int
	Cooldown        time.Duration
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration

	VertexProject  string
	VertexLocation string
	VertexModel    string
}

// QueueConfig holds worker pool configuration
type QueueConfig struct {
	Workers    int
	Size       int
	JobTimeout time.Duration
}

// IngestConfig holds watch-folder configuration
type IngestConfig struct {
	WatchDir string
	Debounce time.Duration
}

// LoadDotEnv loads a .env file when present. It is a no-op under GO_ENVIRONMENT=test.
func LoadDotEnv(files ...string) {
	if os.Getenv("GO_ENVIRONMENT") == "test" {
		return
	}
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		slog.Warn("config.dotenv.failed", "error", err)
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	LoadDotEnv()
	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:              getEnv("DB_URL", "file:legal-analyzer.db?_pragma=busy_timeout(5000)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Blob: BlobConfig{
			Location: getEnv("BLOB_LOCATION", "./data/blobs"),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Extract: ExtractConfig{
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("EXTRACT_MAX_PAGES", 0),
			EnableOCR:     getEnvAsBool("OCR_ENABLED", true),
			MinOCRChars:   getEnvAsInt("OCR_MIN_CHARS", 10),
		},
		Analysis: AnalysisConfig{
			MaxEntitiesPerCategory: getEnvAsInt("ENTITY_MAX_PER_CATEGORY", 20),
			RiskContextChars:       getEnvAsInt("RISK_CONTEXT_CHARS", 100),
			RiskNorm:               getEnvAsFloat64("RISK_NORM", 5.0),
			RiskMaxPerCategory:     getEnvAsInt("RISK_MAX_PER_CATEGORY", 5),
			RulesFile:              getEnv("RULES_FILE", ""),
			ReadingWPM:             getEnvAsFloat64("READING_WPM", 200),
		},
		Summarizer: SummarizerConfig{
			Backend:         strings.ToLower(getEnv("SUMMARIZER_BACKEND", "none")),
			ChunkChars:      getEnvAsInt("SUMMARY_CHUNK_CHARS", 4000),
			MaxSummaryChars: getEnvAsInt("SUMMARY_MAX_CHARS", 2000),
			Sentences:       getEnvAsInt("SUMMARY_SENTENCES", 5),
			Timeout:         getEnvAsDuration("SUMMARY_TIMEOUT", 30*time.Second),
			CacheSize:       getEnvAsInt("SUMMARY_CACHE_SIZE", 512),
			Cooldown:        getEnvAsDuration("SUMMARY_COOLDOWN", time.Minute),
		},
		LLM: LLMConfig{
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:    getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:        getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			VertexProject:  getEnv("VERTEX_PROJECT", ""),
			VertexLocation: getEnv("VERTEX_LOCATION", "us-central1"),
			VertexModel:    getEnv("VERTEX_MODEL", "gemini-1.5-pro"),
		},
		Queue: QueueConfig{
			Workers:    getEnvAsInt("QUEUE_WORKERS", 4),
			Size:       getEnvAsInt("QUEUE_SIZE", 256),
			JobTimeout: getEnvAsDuration("QUEUE_JOB_TIMEOUT", 5*time.Minute),
		},
		Ingest: IngestConfig{
			WatchDir: getEnv("WATCH_DIR", ""),
			Debounce: getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
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

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("DB_DRIVER", c.Database.Driver, Required, OneOf("sqlite", "postgres")).
		Field("DB_URL", c.Database.DSN, Required).
		Field("GRPC_ADDR", c.Server.GRPCAddr, Required).
		Field("SUMMARIZER_BACKEND", c.Summarizer.Backend, OneOf("none", "openai", "vertex")).
		Field("QUEUE_WORKERS", c.Queue.Workers, Positive).
		Field("SUMMARY_CHUNK_CHARS", c.Summarizer.ChunkChars, Positive)
	if c.Summarizer.Backend == "openai" {
		v.Field("OPENAI_API_KEY", c.LLM.APIKey, Required)
	}
	if c.Summarizer.Backend == "vertex" {
		v.Field("VERTEX_PROJECT", c.LLM.VertexProject, Required)
	}
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// String renders a short, secret-free description for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf("db=%s blob=%s grpc=%s summarizer=%s workers=%d",
		c.Database.Driver, c.Blob.Location, c.Server.GRPCAddr, c.Summarizer.Backend, c.Queue.Workers)
}
