package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	OCR    OCRConfig
	PDF    PDFConfig
	Store  StoreConfig
	Server ServerConfig
	Batch  BatchConfig
	Export ExportConfig
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine        string   // "docker" | "ocrmypdf"
	DockerBinary  string   // used by the docker engine
	Image         string   // container image running ocrmypdf
	Binary        string   // used by the ocrmypdf engine
	Languages     []string // joined with "+" on the command line
	ScanThreshold int      // min stripped chars before a PDF counts as native
	Timeout       time.Duration
}

// PDFConfig holds PDF-related configuration
type PDFConfig struct {
	Validate bool
}

// StoreConfig holds database-related configuration
type StoreConfig struct {
	Driver          string // "sqlite" | "postgres"
	SQLitePath      string
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
}

// BatchConfig holds directory ingestion configuration
type BatchConfig struct {
	Workers    int
	SkipHidden bool
}

// ExportConfig holds record sink configuration
type ExportConfig struct {
	Dir       string
	GCSBucket string
	GCSPrefix string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Engine:        getEnv("OCR_ENGINE", "docker"),
			DockerBinary:  getEnv("OCR_DOCKER_BIN", "docker"),
			Image:         getEnv("OCR_IMAGE", "local-ocr"),
			Binary:        getEnv("OCR_BINARY", "ocrmypdf"),
			Languages:     getEnvAsList("OCR_LANGUAGES", []string{"ron", "eng"}),
			ScanThreshold: getEnvAsInt("OCR_SCAN_THRESHOLD", 50),
			Timeout:       getEnvAsDuration("OCR_TIMEOUT", 10*time.Minute),
		},
		PDF: PDFConfig{
			Validate: getEnvAsBool("PDF_VALIDATE", false),
		},
		Store: StoreConfig{
			Driver:          getEnv("STORE_DRIVER", "sqlite"),
			SQLitePath:      getEnv("SQLITE_PATH", "./data/docingest.db"),
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8081"),
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Batch: BatchConfig{
			Workers:    getEnvAsInt("BATCH_WORKERS", 4),
			SkipHidden: getEnvAsBool("BATCH_SKIP_HIDDEN", true),
		},
		Export: ExportConfig{
			Dir:       getEnv("EXPORT_DIR", ""),
			GCSBucket: getEnv("GCS_BUCKET", ""),
			GCSPrefix: getEnv("GCS_PREFIX", "documents"),
		},
	}
}

// Load reads an optional .env file, builds the env config, then overlays the
// TOML file at path (when path is non-empty).
func Load(path string) (*Config, error) {
	// a missing .env is the normal case
	_ = godotenv.Load()

	cfg := LoadConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, NewAppError("CONFIG_ERROR", "read config file", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(b, &fc); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "parse config file", err)
	}
	if err := fc.apply(cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "apply config file", err)
	}
	return cfg, nil
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

// getEnvAsList splits on "+" or "," so both "ron+eng" and "ron,eng" work.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == '+' || r == ',' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("ocr.engine", c.OCR.Engine, OneOf("docker", "ocrmypdf"))
	v.Field("ocr.languages", c.OCR.Languages, NonEmptyList)
	v.Field("ocr.scan_threshold", c.OCR.ScanThreshold, Positive)
	v.Field("store.driver", c.Store.Driver, OneOf("sqlite", "postgres"))
	v.Field("batch.workers", c.Batch.Workers, Positive)
	if c.OCR.Engine == "docker" {
		v.Field("ocr.image", c.OCR.Image, Required)
	}
	if c.Store.Driver == "postgres" {
		v.Field("store.dsn", c.Store.DSN, Required)
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// String renders a redacted summary suitable for startup logs.
func (c *Config) String() string {
	dsn := ""
	if c.Store.DSN != "" {
		dsn = "<redacted>"
	}
	return fmt.Sprintf("ocr.engine=%s ocr.languages=%s ocr.scan_threshold=%d store.driver=%s store.dsn=%s",
		c.OCR.Engine, strings.Join(c.OCR.Languages, "+"), c.OCR.ScanThreshold, c.Store.Driver, dsn)
}
