package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/triage/internal/output"
	"github.com/dotcommander/triage/pkg/triage"
)

func NewClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <message...>",
		Short: "Classify an error message without logging or journaling it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			c := triage.Classify(message)
			userMessage, suggestions := triage.UserMessage(message, c.Category)

			type resp struct {
				Message string `json:"message"`
				triage.Classification
				UserMessage string   `json:"user_message"`
				Suggestions []string `json:"suggestions"`
			}
			return output.PrintSuccess(resp{
				Message:        message,
				Classification: c,
				UserMessage:    userMessage,
				Suggestions:    suggestions,
			})
		},
	}
}
