package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/triage/pkg/triage"
)

type processedData struct {
	ID          string          `json:"id"`
	Category    triage.Category `json:"category"`
	Severity    triage.Severity `json:"severity"`
	Message     string          `json:"message"`
	Context     map[string]any  `json:"context"`
	UserMessage string          `json:"user_message"`
	Suggestions []string        `json:"suggestions"`
	Retryable   bool            `json:"retryable"`
	Journaled   bool            `json:"journaled"`
}

func TestProcessCmd_FlagSetup(t *testing.T) {
	cmd := NewProcessCmd()
	requireFlagExists(t, cmd, "component")
	requireFlagExists(t, cmd, "action")
	requireFlagExists(t, cmd, "subject")
	requireFlagExists(t, cmd, "meta")
}

func TestProcessCmd_WithoutJournal(t *testing.T) {
	setupCLIEnv(t)

	out, err := runCLI(t, "process", "--component", "ProjectList", "--action", "load",
		"--subject", "proj-7", "--meta", "route=/projects", "--env", "staging",
		"Network Error: Failed to fetch")
	require.NoError(t, err)

	got := decodeData[processedData](t, decodeEnvelope(t, out))
	require.True(t, strings.HasPrefix(got.ID, "err_"))
	require.Equal(t, triage.CategoryNetwork, got.Category)
	require.Equal(t, "Network Error: Failed to fetch", got.Message)
	require.Equal(t, "Connection problem detected. Please check your internet connection.", got.UserMessage)
	require.True(t, got.Retryable)
	require.False(t, got.Journaled)

	require.Equal(t, "ProjectList", got.Context["component"])
	require.Equal(t, "load", got.Context["action"])
	require.Equal(t, "proj-7", got.Context["subject_id"])
	require.Equal(t, "/projects", got.Context["route"])
	require.Equal(t, "staging", got.Context["environment"])
	require.Contains(t, got.Context["user_agent"], "triage/")
}

func TestProcessCmd_JournalThenShow(t *testing.T) {
	setupCLIEnv(t)

	out, err := runCLI(t, "--journal", "process", "--component", "Settings", "403 Forbidden")
	require.NoError(t, err)
	processed := decodeData[processedData](t, decodeEnvelope(t, out))
	require.True(t, processed.Journaled)
	require.Equal(t, triage.CategoryAuth, processed.Category)

	out, err = runCLI(t, "show", processed.ID)
	require.NoError(t, err)
	shown := decodeData[processedData](t, decodeEnvelope(t, out))
	require.Equal(t, processed.ID, shown.ID)
	require.Equal(t, processed.UserMessage, shown.UserMessage)
	require.Equal(t, "Settings", shown.Context["component"])
}

func TestMetaToAdditional(t *testing.T) {
	require.Nil(t, metaToAdditional(nil))
	require.Equal(t, map[string]any{"a": "1"}, metaToAdditional(map[string]string{"a": "1"}))
}
