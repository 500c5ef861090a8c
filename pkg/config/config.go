package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/types"
)

// Default values and constants
const (
	DefaultLogLevel       = "info"
	DefaultTimeoutMinutes = 30
	DefaultSkipExisting   = true
	DefaultEnableVerbose  = false
	DefaultOCRStrategy    = types.OCRStrategyTesseract

	// Environment variables
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvPrefix  = "DOCRAG_"
	envBaseURL = "OPENAI_BASE_URL"
)

// Config holds application configuration
type Config struct {
	// Persisted settings
	OpenAIBaseURL       string `json:"openai_base_url"`
	ChatModel           string `json:"chat_model"`
	EmbeddingModel      string `json:"embedding_model"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`
	TesseractLanguage   string `json:"tesseract_language"`
	IndexPath           string `json:"index_path"`
	CorrectionsPath     string `json:"corrections_path"`

	// Runtime settings (not persisted to file)
	APIKey             string            `json:"-"`
	OCRStrategy        types.OCRStrategy `json:"-"`
	ColumnThreshold    int               `json:"-"`
	ChunkSize          int               `json:"-"`
	ChunkOverlap       int               `json:"-"`
	SectionHeaderLevel int               `json:"-"`
	REPLTopK           int               `json:"-"`
	HTTPTopK           int               `json:"-"`
	MaxConcurrency     int               `json:"-"`
	TimeoutMinutes     int               `json:"-"`
	LogLevel           string            `json:"-"`
	EnableVerbose      bool              `json:"-"`
	SkipExisting       bool              `json:"-"`
}

// NewDefaults returns a configuration populated only with built-in defaults
func NewDefaults() *Config {
	return &Config{
		ChatModel:           constants.DefaultChatModel,
		EmbeddingModel:      constants.DefaultEmbeddingModel,
		EmbeddingDimensions: constants.DefaultEmbeddingDims,
		TesseractLanguage:   constants.DefaultTesseractLang,
		IndexPath:           constants.DefaultIndexPath,

		OCRStrategy:        DefaultOCRStrategy,
		ColumnThreshold:    constants.DefaultColumnThreshold,
		ChunkSize:          constants.DefaultChunkSize,
		ChunkOverlap:       constants.DefaultChunkOverlap,
		SectionHeaderLevel: constants.DefaultSectionHeaderLevel,
		REPLTopK:           constants.DefaultREPLTopK,
		HTTPTopK:           constants.DefaultHTTPTopK,
		MaxConcurrency:     constants.DefaultMaxConcurrency,
		TimeoutMinutes:     DefaultTimeoutMinutes,
		LogLevel:           DefaultLogLevel,
		EnableVerbose:      DefaultEnableVerbose,
		SkipExisting:       DefaultSkipExisting,
	}
}

// DefaultConfig returns the configuration by loading from file or creating default
func DefaultConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config file, using basic defaults: %v\n", err)
		return NewDefaults()
	}

	return config
}

// LoadConfigWithEnvOverrides loads config from file and applies environment variable overrides
func LoadConfigWithEnvOverrides() *Config {
	config := DefaultConfig()
	ApplyEnvOverrides(config)
	return config
}

// ApplyEnvOverrides copies DOCRAG_* variables and the OpenAI credentials into c
func ApplyEnvOverrides(c *Config) {
	c.APIKey = os.Getenv(EnvAPIKey)
	if value := os.Getenv(envBaseURL); value != "" {
		c.OpenAIBaseURL = value
	}

	setString(&c.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&c.ChatModel, "CHAT_MODEL")
	setString(&c.EmbeddingModel, "EMBEDDING_MODEL")
	setInt(&c.EmbeddingDimensions, "EMBEDDING_DIMENSIONS")
	setString(&c.TesseractLanguage, "TESSERACT_LANGUAGE")
	setString(&c.IndexPath, "INDEX_PATH")
	setString(&c.CorrectionsPath, "CORRECTIONS_PATH")

	if value := os.Getenv(EnvPrefix + "OCR_STRATEGY"); value != "" {
		c.OCRStrategy = types.OCRStrategy(value)
	}
	setInt(&c.ColumnThreshold, "COLUMN_THRESHOLD")
	setInt(&c.ChunkSize, "CHUNK_SIZE")
	setInt(&c.ChunkOverlap, "CHUNK_OVERLAP")
	setInt(&c.REPLTopK, "REPL_TOP_K")
	setInt(&c.HTTPTopK, "HTTP_TOP_K")
	setInt(&c.MaxConcurrency, "MAX_CONCURRENCY")
	setInt(&c.TimeoutMinutes, "TIMEOUT_MINUTES")
	setString(&c.LogLevel, "LOG_LEVEL")
	setBool(&c.EnableVerbose, "VERBOSE")
	setBool(&c.SkipExisting, "SKIP_EXISTING")
}

func setString(dst *string, name string) {
	if value := os.Getenv(EnvPrefix + name); value != "" {
		*dst = value
	}
}

func setInt(dst *int, name string) {
	if value := os.Getenv(EnvPrefix + name); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			*dst = intVal
		}
	}
}

func setBool(dst *bool, name string) {
	if value := os.Getenv(EnvPrefix + name); value != "" {
		*dst = value == "true" || value == "1" || value == "yes"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validator := NewConfigValidator()
	return validator.Validate(c)
}

// Timeout returns the overall deadline for one command run
func (c *Config) Timeout() time.Duration {
	if c.TimeoutMinutes <= 0 {
		return constants.DefaultTimeoutDuration
	}
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the configuration. The API key is never printed.
func (c *Config) String() string {
	return fmt.Sprintf("Config{OCRStrategy: %s, ChatModel: %s, EmbeddingModel: %s, IndexPath: %s, LogLevel: %s, Verbose: %v}",
		c.OCRStrategy, c.ChatModel, c.EmbeddingModel, c.IndexPath, c.LogLevel, c.EnableVerbose)
}
