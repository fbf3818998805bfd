package cli

import (
	_ "embed"

	jobscmd "github.com/tyemirov/vanix/cmd/cli/jobs"
	sweepcmd "github.com/tyemirov/vanix/cmd/cli/sweep"
)

//go:embed config.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration exposes the built-in configuration document and its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return embeddedDefaultConfigurationContent, configurationTypeConstant
}

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Job    jobscmd.Configuration          `mapstructure:"job"`
	Sweep  sweepcmd.Configuration         `mapstructure:"sweep"`
}

// ApplicationCommonConfiguration stores logging defaults shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

type configurationInitializationPlan struct {
	DirectoryPath string
	FilePath      string
}
