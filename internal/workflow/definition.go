// Package workflow loads scheduled job definitions and drives their five step pipeline.
package workflow

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	definitionLoadErrorTemplateConstant      = "failed to load job definition: %w"
	definitionParseErrorTemplateConstant     = "failed to parse job definition: %w"
	definitionPathRequiredMessageConstant    = "job definition path must be provided"
	definitionJobMappingMessageConstant      = "job block must be defined as a mapping"
	definitionNameRequiredMessageConstant    = "job definition must include a name"
	definitionWorkspaceRequiredMessage       = "job definition must include a workspace path"
	definitionRuntimeToolRequiredMessage     = "job definition must pin a runtime tool"
	definitionRuntimeVersionRequiredMessage  = "job definition must pin a runtime version"
	definitionScriptCommandRequiredMessage   = "job definition must include a script command"
	defaultRemoteNameConstant                = "origin"
	defaultAuthorNameConstant                = "vanix-bot"
	defaultAuthorEmailConstant               = "vanix-bot@users.noreply.github.com"
	defaultCommitMessageConstant             = "Refresh availability lists"
	defaultCredentialEnvironmentNameConstant = "VANIX_PUSH_TOKEN"
	// DefaultScheduleExpressionConstant is the nightly sweep slot shared by all presets.
	DefaultScheduleExpressionConstant = "59 20 * * *"
)

// ErrDefinitionNameRequired indicates the job definition lacked a name.
var ErrDefinitionNameRequired = errors.New(definitionNameRequiredMessageConstant)

// ErrDefinitionWorkspaceRequired indicates the job definition lacked a workspace path.
var ErrDefinitionWorkspaceRequired = errors.New(definitionWorkspaceRequiredMessage)

// ErrDefinitionRuntimeToolRequired indicates the job definition lacked a runtime tool.
var ErrDefinitionRuntimeToolRequired = errors.New(definitionRuntimeToolRequiredMessage)

// ErrDefinitionRuntimeVersionRequired indicates the job definition lacked a runtime version pin.
var ErrDefinitionRuntimeVersionRequired = errors.New(definitionRuntimeVersionRequiredMessage)

// ErrDefinitionScriptCommandRequired indicates the job definition lacked a script command.
var ErrDefinitionScriptCommandRequired = errors.New(definitionScriptCommandRequiredMessage)

// RepositoryDefinition selects the remote and reference the job operates on.
type RepositoryDefinition struct {
	// Remote defaults to origin when blank.
	Remote string `yaml:"remote"`
	// Reference is resolved from the checked out branch when blank. A run
	// always pushes back to whichever reference it resolved.
	Reference string `yaml:"reference"`
}

// RuntimeDefinition pins the runtime executable and version the job expects.
type RuntimeDefinition struct {
	Tool             string   `yaml:"tool"`
	Version          string   `yaml:"version"`
	InstallCommand   string   `yaml:"install_command"`
	InstallArguments []string `yaml:"install_arguments"`
}

// InstallDefinition describes the optional dependency installation command.
type InstallDefinition struct {
	Command   string   `yaml:"command"`
	Arguments []string `yaml:"arguments"`
}

// ScriptDefinition describes the job's main command.
type ScriptDefinition struct {
	Command     string            `yaml:"command"`
	Arguments   []string          `yaml:"arguments"`
	Environment map[string]string `yaml:"environment"`
}

// PublishDefinition describes how run results are committed and pushed.
type PublishDefinition struct {
	Remote                string `yaml:"remote"`
	AuthorName            string `yaml:"author_name"`
	AuthorEmail           string `yaml:"author_email"`
	Message               string `yaml:"message"`
	CredentialEnvironment string `yaml:"credential_environment"`
}

// Definition describes a complete scheduled job.
type Definition struct {
	Name         string               `yaml:"name"`
	Schedule     string               `yaml:"schedule"`
	Workspace    string               `yaml:"workspace"`
	Repository   RepositoryDefinition `yaml:"repository"`
	Runtime      RuntimeDefinition    `yaml:"runtime"`
	Dependencies InstallDefinition    `yaml:"dependencies"`
	Script       ScriptDefinition     `yaml:"script"`
	Publish      PublishDefinition    `yaml:"publish"`
}

type definitionFile struct {
	Job Definition `yaml:"job"`
}

// LoadDefinition reads a job definition from disk and validates it.
func LoadDefinition(filePath string) (Definition, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Definition{}, errors.New(definitionPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Definition{}, fmt.Errorf(definitionLoadErrorTemplateConstant, readError)
	}

	return ParseDefinition(contentBytes)
}

// ParseDefinition decodes and validates a job definition document.
func ParseDefinition(contentBytes []byte) (Definition, error) {
	var parsedFile definitionFile
	if unmarshalError := yaml.Unmarshal(contentBytes, &parsedFile); unmarshalError != nil {
		return Definition{}, fmt.Errorf(definitionParseErrorTemplateConstant, unmarshalError)
	}

	if structureError := ensureJobMapping(contentBytes); structureError != nil {
		return Definition{}, fmt.Errorf(definitionParseErrorTemplateConstant, structureError)
	}

	normalizedDefinition := normalizeDefinition(parsedFile.Job)
	if validationError := validateDefinition(normalizedDefinition); validationError != nil {
		return Definition{}, validationError
	}

	return normalizedDefinition, nil
}

func ensureJobMapping(contentBytes []byte) error {
	var jobWrapper struct {
		Job yaml.Node `yaml:"job"`
	}

	if unmarshalError := yaml.Unmarshal(contentBytes, &jobWrapper); unmarshalError != nil {
		return unmarshalError
	}

	if jobWrapper.Job.Kind == 0 {
		return nil
	}

	switch jobWrapper.Job.Kind {
	case yaml.MappingNode:
		return nil
	default:
		return errors.New(definitionJobMappingMessageConstant)
	}
}

func normalizeDefinition(definition Definition) Definition {
	definition.Name = strings.TrimSpace(definition.Name)
	definition.Schedule = strings.TrimSpace(definition.Schedule)
	definition.Workspace = strings.TrimSpace(definition.Workspace)
	definition.Repository.Remote = strings.TrimSpace(definition.Repository.Remote)
	definition.Repository.Reference = strings.TrimSpace(definition.Repository.Reference)
	definition.Runtime.Tool = strings.TrimSpace(definition.Runtime.Tool)
	definition.Runtime.Version = strings.TrimSpace(definition.Runtime.Version)
	definition.Runtime.InstallCommand = strings.TrimSpace(definition.Runtime.InstallCommand)
	definition.Dependencies.Command = strings.TrimSpace(definition.Dependencies.Command)
	definition.Script.Command = strings.TrimSpace(definition.Script.Command)
	definition.Publish.Remote = strings.TrimSpace(definition.Publish.Remote)
	definition.Publish.AuthorName = strings.TrimSpace(definition.Publish.AuthorName)
	definition.Publish.AuthorEmail = strings.TrimSpace(definition.Publish.AuthorEmail)
	definition.Publish.Message = strings.TrimSpace(definition.Publish.Message)
	definition.Publish.CredentialEnvironment = strings.TrimSpace(definition.Publish.CredentialEnvironment)

	if len(definition.Repository.Remote) == 0 {
		definition.Repository.Remote = defaultRemoteNameConstant
	}
	if len(definition.Publish.Remote) == 0 {
		definition.Publish.Remote = definition.Repository.Remote
	}
	if len(definition.Publish.AuthorName) == 0 {
		definition.Publish.AuthorName = defaultAuthorNameConstant
	}
	if len(definition.Publish.AuthorEmail) == 0 {
		definition.Publish.AuthorEmail = defaultAuthorEmailConstant
	}
	if len(definition.Publish.Message) == 0 {
		definition.Publish.Message = defaultCommitMessageConstant
	}
	if len(definition.Publish.CredentialEnvironment) == 0 {
		definition.Publish.CredentialEnvironment = defaultCredentialEnvironmentNameConstant
	}

	return definition
}

func validateDefinition(definition Definition) error {
	if len(definition.Name) == 0 {
		return ErrDefinitionNameRequired
	}
	if len(definition.Workspace) == 0 {
		return ErrDefinitionWorkspaceRequired
	}
	if len(definition.Runtime.Tool) == 0 {
		return ErrDefinitionRuntimeToolRequired
	}
	if len(definition.Runtime.Version) == 0 {
		return ErrDefinitionRuntimeVersionRequired
	}
	if len(definition.Script.Command) == 0 {
		return ErrDefinitionScriptCommandRequired
	}
	return nil
}
