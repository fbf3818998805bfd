// Package flags provides helpers for binding and reading standardized command flags.
package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// WorkspaceFlagName exposes the shared workspace flag name.
	WorkspaceFlagName = "workspace"
	// WorkspaceFlagUsage describes the shared workspace flag purpose.
	WorkspaceFlagUsage = "Working directory holding the checked out repository"
	// RemoteFlagName exposes the shared remote flag name.
	RemoteFlagName = "remote"
	// RemoteFlagUsage describes the shared remote flag purpose.
	RemoteFlagUsage = "Remote name to target"

	trueToggleValueConstant     = "true"
	falseToggleValueConstant    = "false"
	toggleParseErrorTemplate    = "unsupported toggle value %q"
	normalizedToggleTemplate    = "--%s=%s"
	flagArgumentPrefixConstant  = "--"
	flagAssignmentRuneConstant  = "="
	choiceUsageTemplateConstant = "%s (%s)"
	choiceSeparatorConstant     = "|"
)

var (
	toggleFlagNameRegistry      = map[string]struct{}{}
	toggleFlagNameRegistryMutex sync.RWMutex
)

// AddToggleFlag registers a boolean flag that also accepts yes/no style values on the command line.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, flagName string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(flagName) == 0 {
		return
	}

	if flagSet.Lookup(flagName) == nil {
		switch {
		case target != nil && len(shorthand) > 0:
			flagSet.BoolVarP(target, flagName, shorthand, defaultValue, usage)
		case target != nil:
			flagSet.BoolVar(target, flagName, defaultValue, usage)
		case len(shorthand) > 0:
			flagSet.BoolP(flagName, shorthand, defaultValue, usage)
		default:
			flagSet.Bool(flagName, defaultValue, usage)
		}
	}

	if registeredFlag := flagSet.Lookup(flagName); registeredFlag != nil {
		registeredFlag.NoOptDefVal = trueToggleValueConstant
	}

	registerToggleFlagName(flagName)
}

// NormalizeToggleArguments rewrites "--flag yes" style toggle arguments into "--flag=true" form.
func NormalizeToggleArguments(arguments []string) []string {
	normalizedArguments := make([]string, 0, len(arguments))
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		currentArgument := arguments[argumentIndex]
		toggleFlagName, toggleRecognized := toggleFlagNameFromArgument(currentArgument)
		if !toggleRecognized || argumentIndex+1 >= len(arguments) {
			normalizedArguments = append(normalizedArguments, currentArgument)
			continue
		}

		toggleValue, parseError := parseToggleValue(arguments[argumentIndex+1])
		if parseError != nil {
			normalizedArguments = append(normalizedArguments, currentArgument)
			continue
		}

		normalizedValue := falseToggleValueConstant
		if toggleValue {
			normalizedValue = trueToggleValueConstant
		}
		normalizedArguments = append(normalizedArguments, fmt.Sprintf(normalizedToggleTemplate, toggleFlagName, normalizedValue))
		argumentIndex++
	}
	return normalizedArguments
}

// EnsureWorkspaceFlag guarantees the shared workspace flag is available on the command.
func EnsureWorkspaceFlag(command *cobra.Command, defaultValue string, usage string) {
	ensureStringFlag(command, WorkspaceFlagName, defaultValue, usage)
}

// EnsureRemoteFlag guarantees the shared remote flag is available on the command.
func EnsureRemoteFlag(command *cobra.Command, defaultValue string, usage string) {
	ensureStringFlag(command, RemoteFlagName, defaultValue, usage)
}

// FormatChoiceUsage renders flag usage text with the accepted choice values appended.
func FormatChoiceUsage(usageText string, choiceValues []string) string {
	if len(choiceValues) == 0 {
		return usageText
	}
	return fmt.Sprintf(choiceUsageTemplateConstant, usageText, strings.Join(choiceValues, choiceSeparatorConstant))
}

func ensureStringFlag(command *cobra.Command, flagName string, defaultValue string, usage string) {
	if command == nil {
		return
	}

	persistentSet := command.PersistentFlags()
	if persistentSet.Lookup(flagName) == nil {
		persistentSet.String(flagName, defaultValue, usage)
	}

	if command.Flags().Lookup(flagName) == nil {
		if persistentFlag := persistentSet.Lookup(flagName); persistentFlag != nil {
			command.Flags().AddFlag(persistentFlag)
		}
	}
}

func registerToggleFlagName(flagName string) {
	toggleFlagNameRegistryMutex.Lock()
	defer toggleFlagNameRegistryMutex.Unlock()
	toggleFlagNameRegistry[flagName] = struct{}{}
}

func toggleFlagNameFromArgument(argument string) (string, bool) {
	if !strings.HasPrefix(argument, flagArgumentPrefixConstant) {
		return "", false
	}
	if strings.Contains(argument, flagAssignmentRuneConstant) {
		return "", false
	}

	flagName := strings.TrimPrefix(argument, flagArgumentPrefixConstant)
	if len(flagName) == 0 {
		return "", false
	}

	toggleFlagNameRegistryMutex.RLock()
	defer toggleFlagNameRegistryMutex.RUnlock()
	_, registered := toggleFlagNameRegistry[flagName]
	return flagName, registered
}

func parseToggleValue(rawValue string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(rawValue)) {
	case "yes", "on", "true", "1":
		return true, nil
	case "no", "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
	}
}
