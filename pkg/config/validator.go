package config

import (
	"fmt"
	"strings"

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
)

// ConfigValidator checks a configuration before any stage runs
type ConfigValidator struct{}

// NewConfigValidator creates a configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// Validate collects every problem in c into a single validation error
func (v *ConfigValidator) Validate(c *Config) error {
	var errors []string

	if err := v.validateOCRStrategy(c.OCRStrategy); err != nil {
		errors = append(errors, err.Error())
	}

	if err := v.validateNumericValues(c); err != nil {
		errors = append(errors, err.Error())
	}

	if err := v.validateChunking(c); err != nil {
		errors = append(errors, err.Error())
	}

	if err := v.validateLogLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return utils.NewValidationError("configuration validation failed",
			fmt.Errorf("validation errors: %s", strings.Join(errors, "; ")))
	}

	return nil
}

func (v *ConfigValidator) validateOCRStrategy(strategy types.OCRStrategy) error {
	validStrategies := []types.OCRStrategy{
		types.OCRStrategyTesseract,
		types.OCRStrategyLLM,
	}

	for _, valid := range validStrategies {
		if strategy == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid OCR strategy: %s", strategy)
}

func (v *ConfigValidator) validateNumericValues(c *Config) error {
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be at least 1")
	}
	if c.MaxConcurrency > constants.MaxConcurrencyLimit {
		return fmt.Errorf("max concurrency should not exceed %d", constants.MaxConcurrencyLimit)
	}
	if c.ColumnThreshold < 1 {
		return fmt.Errorf("column threshold must be at least 1")
	}
	if c.REPLTopK < 1 || c.HTTPTopK < 1 {
		return fmt.Errorf("top-k must be at least 1")
	}
	if c.EmbeddingDimensions < 0 {
		return fmt.Errorf("embedding dimensions must be non-negative")
	}
	if c.TimeoutMinutes < 1 {
		return fmt.Errorf("timeout must be at least 1 minute")
	}

	return nil
}

func (v *ConfigValidator) validateChunking(c *Config) error {
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be at least 1")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, chunk size)")
	}
	if c.SectionHeaderLevel < 1 || c.SectionHeaderLevel > 6 {
		return fmt.Errorf("section header level must be between 1 and 6")
	}
	return nil
}

func (v *ConfigValidator) validateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}

	for _, valid := range validLevels {
		if strings.ToLower(level) == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid log level: %s", level)
}
