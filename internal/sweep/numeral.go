// Package sweep enumerates vanity name candidates, probes their
// availability against the community profile endpoints, and persists the
// available names as flat text lists.
package sweep

import (
	"errors"
	"fmt"
	"strings"
)

const (
	candidateAlphabetConstant            = "abcdefghijklmnopqrstuvwxyz0123456789-_"
	ordinalBelowRangeMessageConstant     = "ordinal must be at least 1"
	digitOutsideAlphabetTemplateConstant = "character %q is not part of the candidate alphabet"
)

// ErrOrdinalBelowRange indicates an encode request for a value below 1.
var ErrOrdinalBelowRange = errors.New(ordinalBelowRangeMessageConstant)

// DigitOutsideAlphabetError reports a decode character missing from the candidate alphabet.
type DigitOutsideAlphabetError struct {
	Digit rune
}

// Error describes the offending character.
func (decodeError DigitOutsideAlphabetError) Error() string {
	return fmt.Sprintf(digitOutsideAlphabetTemplateConstant, decodeError.Digit)
}

// EncodeName converts a positive ordinal into its candidate name using a
// bijective numeral system over the candidate alphabet. The system has no
// zero digit, so ordinal 1 maps to "a" and ordinal 39 maps to "aa".
func EncodeName(ordinal int64) (string, error) {
	if ordinal < 1 {
		return "", ErrOrdinalBelowRange
	}

	alphabetLength := int64(len(candidateAlphabetConstant))

	var encodedDigits []byte
	for ordinal > 0 {
		remainder := (ordinal - 1) % alphabetLength
		encodedDigits = append(encodedDigits, candidateAlphabetConstant[remainder])
		ordinal = (ordinal - remainder) / alphabetLength
	}

	for leftIndex, rightIndex := 0, len(encodedDigits)-1; leftIndex < rightIndex; leftIndex, rightIndex = leftIndex+1, rightIndex-1 {
		encodedDigits[leftIndex], encodedDigits[rightIndex] = encodedDigits[rightIndex], encodedDigits[leftIndex]
	}

	return string(encodedDigits), nil
}

// DecodeName converts a candidate name back into its ordinal.
func DecodeName(candidateName string) (int64, error) {
	alphabetLength := int64(len(candidateAlphabetConstant))

	var ordinal int64
	for _, candidateCharacter := range candidateName {
		characterIndex := strings.IndexRune(candidateAlphabetConstant, candidateCharacter)
		if characterIndex < 0 {
			return 0, DigitOutsideAlphabetError{Digit: candidateCharacter}
		}
		ordinal = ordinal*alphabetLength + int64(characterIndex) + 1
	}

	return ordinal, nil
}
