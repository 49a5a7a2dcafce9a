// Package app wires configuration, logging, the generation provider, speech
// playback and export into one application instance.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Nhatlinh9898/novelvip/internal/storage"
	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

var (
	ErrConfigNotFound   = errors.New("configuration file not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrProviderNotFound = errors.New("provider not configured")
)

// ConfigManager loads and saves the global configuration.
type ConfigManager struct {
	globalConfigPath string
	globalConfig     *types.GlobalConfig
	validate         *validator.Validate
}

// NewConfigManager creates a manager for the default config location.
func NewConfigManager() (*ConfigManager, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return NewConfigManagerAt(filepath.Join(configDir, "config.yaml")), nil
}

// NewConfigManagerAt creates a manager for the config file at path.
func NewConfigManagerAt(path string) *ConfigManager {
	return &ConfigManager{
		globalConfigPath: path,
		validate:         validator.New(),
	}
}

// getConfigDir returns the configuration directory path.
func getConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "novelvip"), nil
}

// Path returns the config file path.
func (cm *ConfigManager) Path() string {
	return cm.globalConfigPath
}

// LoadEnv loads variables from .env files into the environment. Missing files
// are ignored and variables already set are kept.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// LoadGlobalConfig loads the global configuration. A missing file yields the
// defaults. Fields absent from the file keep their default values.
func (cm *ConfigManager) LoadGlobalConfig() (*types.GlobalConfig, error) {
	if cm.globalConfig != nil {
		return cm.globalConfig, nil
	}

	config := types.DefaultGlobalConfig()
	data, err := os.ReadFile(cm.globalConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			cm.globalConfig = config
			return cm.globalConfig, nil
		}
		return nil, fmt.Errorf("failed to read global config: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, cm.globalConfigPath, err)
	}
	if config.Providers == nil {
		config.Providers = make(map[string]*types.ProviderConfig)
	}

	for _, provider := range config.Providers {
		if provider == nil {
			continue
		}
		provider.APIKey = expandEnv(provider.APIKey)
		provider.BaseURL = expandEnv(provider.BaseURL)
	}
	config.ExportDir = expandPath(config.ExportDir)
	config.Logging.File = expandPath(config.Logging.File)

	if err := cm.Validate(config); err != nil {
		return nil, err
	}

	cm.globalConfig = config
	return cm.globalConfig, nil
}

// Validate checks the config's field constraints.
func (cm *ConfigManager) Validate(config *types.GlobalConfig) error {
	if err := cm.validate.Struct(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SaveGlobalConfig validates and saves the global configuration. The file
// holds API keys, so it is written owner-only.
func (cm *ConfigManager) SaveGlobalConfig(config *types.GlobalConfig) error {
	if err := cm.Validate(config); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := storage.WriteFile(cm.globalConfigPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	cm.globalConfig = config
	return nil
}

// GetProviderConfig returns the configuration for a specific provider.
func (cm *ConfigManager) GetProviderConfig(providerName string) (*types.ProviderConfig, error) {
	config, err := cm.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}

	provider, ok := config.Providers[providerName]
	if !ok || provider == nil {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, providerName)
	}
	return provider, nil
}

// SetProviderConfig stores a provider configuration and saves the file.
func (cm *ConfigManager) SetProviderConfig(providerName string, provider *types.ProviderConfig) error {
	config, err := cm.LoadGlobalConfig()
	if err != nil {
		return err
	}
	config.Providers[providerName] = provider
	return cm.SaveGlobalConfig(config)
}

// RemoveProvider deletes a provider configuration and saves the file.
func (cm *ConfigManager) RemoveProvider(providerName string) error {
	config, err := cm.LoadGlobalConfig()
	if err != nil {
		return err
	}
	if _, ok := config.Providers[providerName]; !ok {
		return fmt.Errorf("%w: %q", ErrProviderNotFound, providerName)
	}
	delete(config.Providers, providerName)
	return cm.SaveGlobalConfig(config)
}

// expandEnv replaces ${VAR} and $VAR references with environment values.
func expandEnv(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.ExpandEnv(s)
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
