package sweep

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// PatternAnyConstant accepts every candidate name.
	PatternAnyConstant = ".*"
	// PatternDigitsOnlyConstant accepts candidates made of digits alone.
	PatternDigitsOnlyConstant = "^[0-9]+$"
	// PatternLettersOnlyConstant accepts candidates made of letters alone.
	PatternLettersOnlyConstant = "^[a-z]+$"

	minimumLengthMessageConstant   = "minimum candidate length must be at least 1"
	lengthRangeMessageConstant     = "maximum candidate length must not be below the minimum"
	patternCompileTemplateConstant = "failed to compile candidate pattern: %w"
)

// ErrMinimumLengthInvalid indicates a candidate length bound below 1.
var ErrMinimumLengthInvalid = errors.New(minimumLengthMessageConstant)

// ErrLengthRangeInvalid indicates a maximum length below the minimum.
var ErrLengthRangeInvalid = errors.New(lengthRangeMessageConstant)

// GeneratorOptions bound the candidate enumeration.
type GeneratorOptions struct {
	MinimumLength int
	MaximumLength int
	Pattern       string
}

// GenerateCandidates enumerates every candidate name whose length falls
// inside the configured bounds and keeps the ones the pattern finds a match
// in. The enumeration walks the bijective numeral range from the shortest
// all-first-digit name up to but excluding the longest all-last-digit name.
func GenerateCandidates(options GeneratorOptions) ([]string, error) {
	if options.MinimumLength < 1 {
		return nil, ErrMinimumLengthInvalid
	}
	if options.MaximumLength < options.MinimumLength {
		return nil, ErrLengthRangeInvalid
	}

	candidatePattern := strings.TrimSpace(options.Pattern)
	if len(candidatePattern) == 0 {
		candidatePattern = PatternAnyConstant
	}

	compiledPattern, patternError := regexp.Compile(candidatePattern)
	if patternError != nil {
		return nil, fmt.Errorf(patternCompileTemplateConstant, patternError)
	}

	firstDigit := string(candidateAlphabetConstant[0])
	lastDigit := string(candidateAlphabetConstant[len(candidateAlphabetConstant)-1])

	lowerOrdinal, lowerDecodeError := DecodeName(strings.Repeat(firstDigit, options.MinimumLength))
	if lowerDecodeError != nil {
		return nil, lowerDecodeError
	}
	upperOrdinal, upperDecodeError := DecodeName(strings.Repeat(lastDigit, options.MaximumLength))
	if upperDecodeError != nil {
		return nil, upperDecodeError
	}

	var candidateNames []string
	for candidateOrdinal := lowerOrdinal; candidateOrdinal < upperOrdinal; candidateOrdinal++ {
		candidateName, encodeError := EncodeName(candidateOrdinal)
		if encodeError != nil {
			return nil, encodeError
		}
		if compiledPattern.MatchString(candidateName) {
			candidateNames = append(candidateNames, candidateName)
		}
	}

	return candidateNames, nil
}
