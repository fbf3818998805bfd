package workflow

import (
	"embed"
	"sort"
	"strings"
)

//go:embed presets/*.yaml
var embeddedJobPresets embed.FS

// PresetMetadata describes an embedded job definition.
type PresetMetadata struct {
	Name        string
	Description string
}

// PresetCatalog loads embedded job definitions.
type PresetCatalog interface {
	List() []PresetMetadata
	Load(name string) (Definition, bool, error)
}

type presetEntry struct {
	Name        string
	Description string
	FileName    string
}

var embeddedPresetEntries = []presetEntry{
	{
		Name:        "uid-action",
		Description: "Refresh Steam vanity id and group availability lists nightly.",
		FileName:    "presets/uid-action.yaml",
	},
}

type embeddedPresetCatalog struct {
	files   embed.FS
	entries []presetEntry
}

// NewEmbeddedPresetCatalog constructs a PresetCatalog backed by embedded YAML definitions.
func NewEmbeddedPresetCatalog() PresetCatalog {
	return &embeddedPresetCatalog{
		files:   embeddedJobPresets,
		entries: embeddedPresetEntries,
	}
}

func (catalog *embeddedPresetCatalog) List() []PresetMetadata {
	if catalog == nil || len(catalog.entries) == 0 {
		return nil
	}

	metadata := make([]PresetMetadata, 0, len(catalog.entries))
	for index := range catalog.entries {
		entry := catalog.entries[index]
		metadata = append(metadata, PresetMetadata{
			Name:        entry.Name,
			Description: entry.Description,
		})
	}

	sort.Slice(metadata, func(firstIndex int, secondIndex int) bool {
		return metadata[firstIndex].Name < metadata[secondIndex].Name
	})

	return metadata
}

func (catalog *embeddedPresetCatalog) Load(name string) (Definition, bool, error) {
	if catalog == nil {
		return Definition{}, false, nil
	}

	for index := range catalog.entries {
		entry := catalog.entries[index]
		if !strings.EqualFold(name, entry.Name) {
			continue
		}

		content, readError := catalog.files.ReadFile(entry.FileName)
		if readError != nil {
			return Definition{}, true, readError
		}

		definition, parseError := ParseDefinition(content)
		if parseError != nil {
			return Definition{}, true, parseError
		}

		return definition, true, nil
	}

	return Definition{}, false, nil
}
