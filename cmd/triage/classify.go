package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/inbox-triage/internal/cli"
	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/engine"
	"github.com/Veraticus/inbox-triage/internal/model"
)

// classifyOutput is the --json document.
type classifyOutput struct {
	Summary  engine.Summary  `json:"summary"`
	Messages []model.Message `json:"messages"`
}

func classifyCmd() *cobra.Command {
	var (
		input     string
		asJSON    bool
		tasksOnly bool
		noBar     bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a collection of messages",
		Long: `Classify the messages of a JSON file with the current settings.

The input is either a JSON array of messages or a mail API page holding them
under "value". Use "-" to read from stdin.`,
		Example: `  triage classify --input inbox.json
  triage classify --input inbox.json --json > results.json
  triage classify --input inbox.json --tasks`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msgs, err := cli.ReadMessagesFile(input)
			if err != nil {
				return common.NewUserError("Could not read messages", err)
			}

			a, err := openApp(cmd.Context(), appConfig, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			var progress *cli.Progress
			var onProgress func(done, total int)
			if !asJSON && !noBar {
				progress = cli.NewProgress(cmd.ErrOrStderr())
				onProgress = progress.Update
			}

			results, summary := a.newBatch(onProgress).Run(msgs, a.store.Get())
			if progress != nil {
				progress.Finish()
			}

			if tasksOnly {
				results = engine.TaskCandidates(results)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return cli.WriteJSON(out, classifyOutput{Summary: summary, Messages: results})
			}

			fmt.Fprintln(out, cli.RenderMessages(results))
			fmt.Fprintln(out, cli.RenderSummary(summary))
			if summary.Stats.Errors > 0 {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d messages could not be classified", summary.Stats.Errors)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "messages JSON file, or - for stdin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&tasksOnly, "tasks", false, "only list messages proposed as tasks")
	cmd.Flags().BoolVar(&noBar, "no-progress", false, "disable the progress bar")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

