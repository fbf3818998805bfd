package jobs

import (
	"strings"
)

const defaultListenAddressConstant = ":8080"

// Configuration captures configuration values shared by the job commands.
type Configuration struct {
	// Definition points at a job definition file. Blank selects the
	// embedded uid-action preset.
	Definition    string `mapstructure:"definition"`
	ListenAddress string `mapstructure:"listen_address"`
}

// DefaultConfiguration provides baseline configuration.
func DefaultConfiguration() Configuration {
	return Configuration{
		ListenAddress: defaultListenAddressConstant,
	}
}

// Sanitize normalizes configuration values.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Definition = strings.TrimSpace(configuration.Definition)

	listenAddress := strings.TrimSpace(configuration.ListenAddress)
	if listenAddress == "" {
		listenAddress = defaultListenAddressConstant
	}
	sanitized.ListenAddress = listenAddress

	return sanitized
}
