package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/utils"
)

const (
	ConfigFileName = "config.json"
	AppDirName     = ".docrag"
)

// ConfigFile represents the JSON configuration file structure
type ConfigFile struct {
	OpenAIBaseURL       string `json:"openai_base_url"`
	ChatModel           string `json:"chat_model"`
	EmbeddingModel      string `json:"embedding_model"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`
	TesseractLanguage   string `json:"tesseract_language"`
	IndexPath           string `json:"index_path"`
	CorrectionsPath     string `json:"corrections_path"`
}

// GetConfigDir returns the user configuration directory (~/.docrag)
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", utils.WrapError(err, utils.ErrorTypeIO, "failed to get user home directory")
	}

	return filepath.Join(homeDir, AppDirName), nil
}

// GetConfigFilePath returns the full path to the configuration file
func GetConfigFilePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, ConfigFileName), nil
}

// LoadConfig loads configuration from file or creates default if not exists
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigFilePath()
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to get config file path")
	}

	return LoadConfigFrom(configPath)
}

// LoadConfigFrom loads the configuration stored at configPath, writing a
// default file there first when none exists
func LoadConfigFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return createDefaultConfigFile(configPath)
	}

	return loadConfigFromFile(configPath)
}

// createDefaultConfigFile creates a default configuration file
func createDefaultConfigFile(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, constants.DefaultDirPermission); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to create config directory")
	}

	config := NewDefaults()
	if err := saveConfigFile(configPath, configToConfigFile(config)); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to save default config file")
	}

	fmt.Fprintf(os.Stderr, "✅ Created default configuration file: %s\n", configPath)
	return config, nil
}

// loadConfigFromFile loads configuration from an existing file
func loadConfigFromFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to read config file")
	}

	var configFile ConfigFile
	if err := json.Unmarshal(data, &configFile); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeConversion, "failed to parse config file")
	}

	return configFileToConfig(&configFile), nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config) error {
	configPath, err := GetConfigFilePath()
	if err != nil {
		return err
	}

	return SaveConfigTo(configPath, config)
}

// SaveConfigTo saves the persisted part of config to configPath
func SaveConfigTo(configPath string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), constants.DefaultDirPermission); err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to create config directory")
	}
	return saveConfigFile(configPath, configToConfigFile(config))
}

// saveConfigFile saves ConfigFile to disk
func saveConfigFile(configPath string, configFile *ConfigFile) error {
	data, err := json.MarshalIndent(configFile, "", "  ")
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeConversion, "failed to marshal config")
	}

	if err := os.WriteFile(configPath, data, constants.DefaultFilePermission); err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to write config file")
	}

	return nil
}

// configFileToConfig converts ConfigFile to Config. Empty fields keep their defaults.
func configFileToConfig(cf *ConfigFile) *Config {
	config := NewDefaults()
	if cf.OpenAIBaseURL != "" {
		config.OpenAIBaseURL = cf.OpenAIBaseURL
	}
	if cf.ChatModel != "" {
		config.ChatModel = cf.ChatModel
	}
	if cf.EmbeddingModel != "" {
		config.EmbeddingModel = cf.EmbeddingModel
	}
	if cf.EmbeddingDimensions > 0 {
		config.EmbeddingDimensions = cf.EmbeddingDimensions
	}
	if cf.TesseractLanguage != "" {
		config.TesseractLanguage = cf.TesseractLanguage
	}
	if cf.IndexPath != "" {
		config.IndexPath = cf.IndexPath
	}
	config.CorrectionsPath = cf.CorrectionsPath
	return config
}

// configToConfigFile converts Config to ConfigFile
func configToConfigFile(c *Config) *ConfigFile {
	return &ConfigFile{
		OpenAIBaseURL:       c.OpenAIBaseURL,
		ChatModel:           c.ChatModel,
		EmbeddingModel:      c.EmbeddingModel,
		EmbeddingDimensions: c.EmbeddingDimensions,
		TesseractLanguage:   c.TesseractLanguage,
		IndexPath:           c.IndexPath,
		CorrectionsPath:     c.CorrectionsPath,
	}
}

// GetConfigValue gets a specific configuration value by key
func GetConfigValue(key string) (interface{}, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return config.Get(key)
}

// SetConfigValue sets a specific configuration value by key and saves the file
func SetConfigValue(key, value string) error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}

	if err := config.Set(key, value); err != nil {
		return err
	}

	return SaveConfig(config)
}

// Get returns the persisted setting named key
func (c *Config) Get(key string) (interface{}, error) {
	switch key {
	case "openai_base_url":
		return c.OpenAIBaseURL, nil
	case "chat_model":
		return c.ChatModel, nil
	case "embedding_model":
		return c.EmbeddingModel, nil
	case "embedding_dimensions":
		return c.EmbeddingDimensions, nil
	case "tesseract_language":
		return c.TesseractLanguage, nil
	case "index_path":
		return c.IndexPath, nil
	case "corrections_path":
		return c.CorrectionsPath, nil
	default:
		return nil, utils.NewValidationError(fmt.Sprintf("unknown config key: %s", key), nil)
	}
}

// Set updates the persisted setting named key from its string form
func (c *Config) Set(key, value string) error {
	switch key {
	case "openai_base_url":
		c.OpenAIBaseURL = value
	case "chat_model":
		c.ChatModel = value
	case "embedding_model":
		c.EmbeddingModel = value
	case "embedding_dimensions":
		dims, err := strconv.Atoi(value)
		if err != nil || dims <= 0 {
			return utils.NewValidationError("embedding_dimensions must be a positive integer", err)
		}
		c.EmbeddingDimensions = dims
	case "tesseract_language":
		c.TesseractLanguage = value
	case "index_path":
		c.IndexPath = value
	case "corrections_path":
		c.CorrectionsPath = value
	default:
		return utils.NewValidationError(fmt.Sprintf("unknown config key: %s", key), nil)
	}
	return nil
}

// ListConfigKeys returns all available configuration keys
func ListConfigKeys() []string {
	return []string{
		"openai_base_url",
		"chat_model",
		"embedding_model",
		"embedding_dimensions",
		"tesseract_language",
		"index_path",
		"corrections_path",
	}
}
