package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	environmentKeyReplacerSourceConstant           = "."
	environmentKeyReplacerTargetConstant           = "_"
	embeddedConfigurationReadErrorTemplateConstant = "failed to read embedded configuration: %w"
	configurationFileReadErrorTemplateConstant     = "failed to read configuration file: %w"
	configurationDecodeErrorTemplateConstant       = "failed to decode configuration: %w"
)

// LoadedConfiguration reports which configuration sources were consulted during loading.
type LoadedConfiguration struct {
	// ConfigFileUsed holds the path of the configuration file that was merged, when one was found.
	ConfigFileUsed string
}

// ConfigurationLoader layers embedded defaults, configuration files, and environment variables.
//
// Precedence from lowest to highest: explicit defaults, embedded configuration,
// configuration file, environment variables.
type ConfigurationLoader struct {
	configurationName string
	configurationType string
	environmentPrefix string
	searchPaths       []string
	embeddedContent   []byte
	embeddedType      string
}

// NewConfigurationLoader constructs a ConfigurationLoader for the provided name, type, environment prefix, and search paths.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: strings.TrimSpace(configurationName),
		configurationType: strings.TrimSpace(configurationType),
		environmentPrefix: strings.TrimSpace(environmentPrefix),
		searchPaths:       append([]string{}, searchPaths...),
	}
}

// SetEmbeddedConfiguration registers embedded configuration content merged beneath file and environment layers.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(content []byte, configurationType string) {
	loader.embeddedContent = append([]byte{}, content...)
	loader.embeddedType = strings.TrimSpace(configurationType)
}

// LoadConfiguration resolves configuration into target and reports the configuration file that was used.
//
// An empty configurationFilePath triggers a search across the configured search
// paths; a missing file is not an error in that mode. An explicit path that
// cannot be read is always an error.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(loader.configurationType)
	for _, searchPath := range loader.searchPaths {
		trimmedSearchPath := strings.TrimSpace(searchPath)
		if len(trimmedSearchPath) == 0 {
			continue
		}
		viperInstance.AddConfigPath(trimmedSearchPath)
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(environmentKeyReplacerSourceConstant, environmentKeyReplacerTargetConstant))
	viperInstance.AutomaticEnv()

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(loader.embeddedContent) > 0 {
		embeddedType := loader.embeddedType
		if len(embeddedType) == 0 {
			embeddedType = loader.configurationType
		}
		viperInstance.SetConfigType(embeddedType)
		if embeddedReadError := viperInstance.ReadConfig(bytes.NewReader(loader.embeddedContent)); embeddedReadError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationReadErrorTemplateConstant, embeddedReadError)
		}
	}

	trimmedConfigurationFilePath := strings.TrimSpace(configurationFilePath)
	if len(trimmedConfigurationFilePath) > 0 {
		viperInstance.SetConfigFile(trimmedConfigurationFilePath)
	}

	if mergeError := viperInstance.MergeInConfig(); mergeError != nil {
		var configurationFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(mergeError, &configurationFileNotFoundError) {
			return LoadedConfiguration{}, fmt.Errorf(configurationFileReadErrorTemplateConstant, mergeError)
		}
	}

	if decodeError := viperInstance.Unmarshal(target); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplateConstant, decodeError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}
