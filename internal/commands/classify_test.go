package commands

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/triage/pkg/triage"
)

func TestClassifyCmd(t *testing.T) {
	setupCLIEnv(t)

	tests := []struct {
		args      []string
		category  triage.Category
		severity  triage.Severity
		retryable bool
	}{
		{[]string{"Network", "Error:", "Failed", "to", "fetch"}, triage.CategoryNetwork, triage.SeverityMedium, true},
		{[]string{"401 Unauthorized"}, triage.CategoryAuth, triage.SeverityHigh, false},
		{[]string{"503 Service Unavailable"}, triage.CategoryAPI, triage.SeverityMedium, true},
		{[]string{"404 Not Found"}, triage.CategoryAPI, triage.SeverityMedium, false},
		{[]string{"email is invalid"}, triage.CategoryValidation, triage.SeverityLow, false},
		{[]string{"something odd"}, triage.CategoryUnknown, triage.SeverityMedium, true},
	}

	for _, tc := range tests {
		t.Run(tc.args[0], func(t *testing.T) {
			out, err := runCLI(t, append([]string{"classify"}, tc.args...)...)
			require.NoError(t, err)

			env := decodeEnvelope(t, out)
			require.True(t, env.Success)
			got := decodeData[struct {
				Message     string          `json:"message"`
				Category    triage.Category `json:"category"`
				Severity    triage.Severity `json:"severity"`
				Retryable   bool            `json:"retryable"`
				UserMessage string          `json:"user_message"`
				Suggestions []string        `json:"suggestions"`
			}](t, env)
			require.Equal(t, tc.category, got.Category)
			require.Equal(t, tc.severity, got.Severity)
			require.Equal(t, tc.retryable, got.Retryable)
			require.NotEmpty(t, got.UserMessage)
			require.NotEmpty(t, got.Suggestions)
		})
	}
}

func TestClassifyCmd_RequiresMessage(t *testing.T) {
	setupCLIEnv(t)
	_, err := runCLI(t, "classify")
	require.Error(t, err)
}
