package sweep_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/vanix/internal/sweep"
)

func TestEncodeNameMapsOrdinalsToNames(testInstance *testing.T) {
	testCases := []struct {
		name         string
		ordinal      int64
		expectedName string
	}{
		{name: "first_letter", ordinal: 1, expectedName: "a"},
		{name: "last_letter", ordinal: 26, expectedName: "z"},
		{name: "first_digit", ordinal: 27, expectedName: "0"},
		{name: "last_digit", ordinal: 36, expectedName: "9"},
		{name: "hyphen", ordinal: 37, expectedName: "-"},
		{name: "underscore", ordinal: 38, expectedName: "_"},
		{name: "first_two_character_name", ordinal: 39, expectedName: "aa"},
		{name: "second_two_character_name", ordinal: 40, expectedName: "ab"},
		{name: "last_two_character_name_with_leading_a", ordinal: 76, expectedName: "a_"},
		{name: "rollover_to_second_leading_letter", ordinal: 77, expectedName: "ba"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			encodedName, encodeError := sweep.EncodeName(testCase.ordinal)
			require.NoError(subtestInstance, encodeError)
			require.Equal(subtestInstance, testCase.expectedName, encodedName)
		})
	}
}

func TestEncodeNameRejectsOrdinalsBelowOne(testInstance *testing.T) {
	for testCaseIndex, invalidOrdinal := range []int64{0, -1, -38} {
		testInstance.Run(fmt.Sprintf("%d_ordinal_%d", testCaseIndex, invalidOrdinal), func(subtestInstance *testing.T) {
			_, encodeError := sweep.EncodeName(invalidOrdinal)
			require.ErrorIs(subtestInstance, encodeError, sweep.ErrOrdinalBelowRange)
		})
	}
}

func TestDecodeNameMapsNamesToOrdinals(testInstance *testing.T) {
	testCases := []struct {
		name            string
		candidateName   string
		expectedOrdinal int64
	}{
		{name: "first_letter", candidateName: "a", expectedOrdinal: 1},
		{name: "underscore", candidateName: "_", expectedOrdinal: 38},
		{name: "first_two_character_name", candidateName: "aa", expectedOrdinal: 39},
		{name: "rollover_name", candidateName: "ba", expectedOrdinal: 77},
		{name: "empty_name", candidateName: "", expectedOrdinal: 0},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			decodedOrdinal, decodeError := sweep.DecodeName(testCase.candidateName)
			require.NoError(subtestInstance, decodeError)
			require.Equal(subtestInstance, testCase.expectedOrdinal, decodedOrdinal)
		})
	}
}

func TestDecodeNameRejectsForeignCharacters(testInstance *testing.T) {
	for testCaseIndex, foreignName := range []string{"ab!", "ABC", "name with space", "émile"} {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, foreignName), func(subtestInstance *testing.T) {
			_, decodeError := sweep.DecodeName(foreignName)

			var digitError sweep.DigitOutsideAlphabetError
			require.ErrorAs(subtestInstance, decodeError, &digitError)
			require.Contains(subtestInstance, decodeError.Error(), "is not part of the candidate alphabet")
		})
	}
}

func TestEncodeDecodeRoundTrip(testInstance *testing.T) {
	for ordinal := int64(1); ordinal <= 2000; ordinal++ {
		encodedName, encodeError := sweep.EncodeName(ordinal)
		require.NoError(testInstance, encodeError)

		decodedOrdinal, decodeError := sweep.DecodeName(encodedName)
		require.NoError(testInstance, decodeError)
		require.Equal(testInstance, ordinal, decodedOrdinal)
	}
}
