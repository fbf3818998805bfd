package sweep

import (
	"path/filepath"
	"strings"

	sweepservice "github.com/tyemirov/vanix/internal/sweep"
)

const (
	defaultMinimumLengthConstant = 3
	defaultMaximumLengthConstant = 3
	defaultWorkerCountConstant   = 8
)

// Configuration captures configuration values for the sweep command.
type Configuration struct {
	// Endpoint selects the community namespace to probe.
	Endpoint string `mapstructure:"endpoint"`
	// Pattern filters generated candidates to matching names.
	Pattern string `mapstructure:"pattern"`
	// MinimumLength bounds the shortest generated candidate.
	MinimumLength int `mapstructure:"minimum_length"`
	// MaximumLength bounds the longest generated candidate.
	MaximumLength int `mapstructure:"maximum_length"`
	// OutputFile receives the sorted availability list.
	OutputFile string `mapstructure:"output_file"`
	// InputFile feeds candidates into file-based sweeps.
	InputFile string `mapstructure:"input_file"`
	// Workers caps concurrent availability probes.
	Workers int `mapstructure:"workers"`
	// BaseURL overrides the community profile base URL when set.
	BaseURL string `mapstructure:"base_url"`
}

// DefaultConfiguration provides baseline configuration for the sweep command.
func DefaultConfiguration() Configuration {
	return Configuration{
		Endpoint:      string(sweepservice.EndpointID),
		Pattern:       sweepservice.PatternAnyConstant,
		MinimumLength: defaultMinimumLengthConstant,
		MaximumLength: defaultMaximumLengthConstant,
		OutputFile:    filepath.Join(sweepservice.DefaultDataDirectoryConstant, sweepservice.DefaultOutputFileNameConstant),
		InputFile:     filepath.Join(sweepservice.DefaultDataDirectoryConstant, sweepservice.DefaultInputFileNameConstant),
		Workers:       defaultWorkerCountConstant,
	}
}

// Sanitize normalizes configuration values and fills defaults for blanks.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.Endpoint = strings.ToLower(strings.TrimSpace(configuration.Endpoint))
	if len(sanitized.Endpoint) == 0 {
		sanitized.Endpoint = defaults.Endpoint
	}

	sanitized.Pattern = strings.TrimSpace(configuration.Pattern)
	if len(sanitized.Pattern) == 0 {
		sanitized.Pattern = defaults.Pattern
	}

	if configuration.MinimumLength <= 0 {
		sanitized.MinimumLength = defaults.MinimumLength
	}
	if configuration.MaximumLength <= 0 {
		sanitized.MaximumLength = defaults.MaximumLength
	}

	sanitized.OutputFile = strings.TrimSpace(configuration.OutputFile)
	if len(sanitized.OutputFile) == 0 {
		sanitized.OutputFile = defaults.OutputFile
	}

	sanitized.InputFile = strings.TrimSpace(configuration.InputFile)
	if len(sanitized.InputFile) == 0 {
		sanitized.InputFile = defaults.InputFile
	}

	if configuration.Workers <= 0 {
		sanitized.Workers = defaults.Workers
	}

	sanitized.BaseURL = strings.TrimSpace(configuration.BaseURL)

	return sanitized
}
