package forms

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrepareSubmissionPhoneNormalization(t *testing.T) {
	got := PrepareSubmission(map[string]string{
		"phone_fields": "4",
		"4":            "(999) 999-9999",
		"1":            "Jane",
	})

	require.Equal(t, "%2B19999999999", got["4"])
	require.Equal(t, "Jane", got["1"])

	// The control field itself never reaches the vendor.
	_, ok := got[PhoneFieldsKey]
	require.False(t, ok)
}

func TestPrepareSubmissionEmptyPhoneStaysEmpty(t *testing.T) {
	got := PrepareSubmission(map[string]string{
		"phone_fields": "4,8",
		"4":            "",
		"8":            "ext.",
	})

	require.Empty(t, got["4"])
	// No digits at all also means empty, not a bare prefix.
	require.Empty(t, got["8"])
}

func TestPrepareSubmissionOptInCoercion(t *testing.T) {
	got := PrepareSubmission(map[string]string{
		"5-text-opt-in": "on",
	})

	require.Equal(t, "1", got["5-text-opt-in"])
}

func TestPrepareSubmissionSanitizesText(t *testing.T) {
	got := PrepareSubmission(map[string]string{
		"1": "  Jane <script>alert(1)</script> Doe  ",
	})

	require.Equal(t, "Jane Doe", got["1"])
}

func TestPrepareSubmissionMultiplePhoneFields(t *testing.T) {
	got := PrepareSubmission(map[string]string{
		"phone_fields": "4, 17",
		"4":            "617-555-0100",
		"17":           "+1 617 555 0101",
	})

	require.Equal(t, "%2B16175550100", got["4"])
	require.Equal(t, "%2B116175550101", got["17"])
}
