package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/triage/internal/output"
	"github.com/dotcommander/triage/pkg/triage"
)

func NewProcessCmd() *cobra.Command {
	var (
		component string
		action    string
		subject   string
		meta      map[string]string
	)

	cmd := &cobra.Command{
		Use:   "process <message...>",
		Short: "Process an error: classify, explain, log and optionally journal it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openProcessor()
			if err != nil {
				return cmdErr(err)
			}
			defer session.close()

			ec := &triage.ErrorContext{
				Component:  component,
				Action:     action,
				SubjectID:  subject,
				Additional: metaToAdditional(meta),
			}
			pe := session.processor.Process(errors.New(strings.Join(args, " ")), ec)

			type resp struct {
				triage.ProcessedError
				Journaled bool `json:"journaled"`
			}
			return output.PrintSuccess(resp{ProcessedError: pe, Journaled: session.journaling()})
		},
	}

	cmd.Flags().StringVar(&component, "component", "", "Component where the error surfaced")
	cmd.Flags().StringVar(&action, "action", "", "Action being performed")
	cmd.Flags().StringVar(&subject, "subject", "", "Identifier of the record involved")
	cmd.Flags().StringToStringVar(&meta, "meta", nil, "Extra context as key=value pairs")

	return cmd
}

func metaToAdditional(meta map[string]string) map[string]any {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
