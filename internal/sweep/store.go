package sweep

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

const (
	listFilePermissionsConstant     = 0o644
	filePathRequiredMessageConstant = "list file path must be provided"
	saveListTemplateConstant        = "failed to save availability list: %w"
	createListTemplateConstant      = "failed to create candidate list: %w"
	readListTemplateConstant        = "failed to read candidate list: %w"
)

// ErrListFilePathRequired indicates a blank list file path.
var ErrListFilePathRequired = errors.New(filePathRequiredMessageConstant)

// SaveNames writes the names to the file sorted ascending, one per line,
// without a trailing newline.
func SaveNames(filePath string, names []string) error {
	trimmedFilePath := strings.TrimSpace(filePath)
	if len(trimmedFilePath) == 0 {
		return ErrListFilePathRequired
	}

	sortedNames := make([]string, len(names))
	copy(sortedNames, names)
	sort.Strings(sortedNames)

	writeError := os.WriteFile(trimmedFilePath, []byte(strings.Join(sortedNames, "\n")), listFilePermissionsConstant)
	if writeError != nil {
		return fmt.Errorf(saveListTemplateConstant, writeError)
	}

	return nil
}

// LoadNames reads candidate names from the file, one per line, dropping
// blank lines. A missing file is created empty so later sweeps have a
// place to read from.
func LoadNames(filePath string) ([]string, error) {
	trimmedFilePath := strings.TrimSpace(filePath)
	if len(trimmedFilePath) == 0 {
		return nil, ErrListFilePathRequired
	}

	if _, statError := os.Stat(trimmedFilePath); errors.Is(statError, os.ErrNotExist) {
		if createError := os.WriteFile(trimmedFilePath, nil, listFilePermissionsConstant); createError != nil {
			return nil, fmt.Errorf(createListTemplateConstant, createError)
		}
		return nil, nil
	}

	listContent, readError := os.ReadFile(trimmedFilePath)
	if readError != nil {
		return nil, fmt.Errorf(readListTemplateConstant, readError)
	}

	var candidateNames []string
	for _, candidateLine := range strings.Split(string(listContent), "\n") {
		trimmedCandidate := strings.TrimSpace(candidateLine)
		if len(trimmedCandidate) == 0 {
			continue
		}
		candidateNames = append(candidateNames, trimmedCandidate)
	}

	return candidateNames, nil
}
