package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/listview/internal/log"
	"github.com/charmbracelet/listview/internal/replay"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script>",
	Short: "Replay a scripted session without a terminal",
	Long: heredoc.Doc(`
		Load a YAML script of items and steps, apply every step to a list
		view that is never drawn, and print the patch plans, animation
		batches and resulting state after each step.
	`),
	Example: heredoc.Doc(`
		# Print a summary of each step
		listview replay testdata/edits.yaml

		# Print the full report as JSON
		listview replay -f json testdata/edits.yaml
	`),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := setup(cmd); err != nil {
			return err
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			slog.SetDefault(slog.New(log.Console(cmd.ErrOrStderr(), true)))
		}
		format, _ := cmd.Flags().GetString("format")
		script, err := replay.Load(args[0])
		if err != nil {
			return err
		}
		report, err := replay.Run(cmd.Context(), script)
		if err != nil {
			return err
		}
		return formatReport(cmd.OutOrStdout(), report, format)
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolP("verbose", "v", false, "Log every step to stderr")
	replayCmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
}

func formatReport(w io.Writer, report *replay.Report, format string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Fprint(w, string(data))
		return nil
	case "text":
		formatReportText(w, report)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func formatReportText(w io.Writer, report *replay.Report) {
	for i, s := range report.Steps {
		fmt.Fprintf(w, "%d. %s\n", i, s.Step)
		if s.Error != "" {
			fmt.Fprintf(w, "   error: %s\n", s.Error)
		}
		for _, p := range s.Plans {
			reload := ""
			if p.Reload {
				reload = " reload"
			}
			fmt.Fprintf(w, "   plan: +%d -%d ~%d ↻%d headers=%d window=[%d,%d)%s\n",
				p.Enter, p.Exit, p.Move, p.Reflow, p.Headers, p.Window[0], p.Window[1], reload)
		}
		for _, b := range s.Batches {
			skip := ""
			if b.Skip {
				skip = " skipped"
			}
			fmt.Fprintf(w, "   batch: %s transitions=%d%s\n", b.Kind, b.Transitions, skip)
		}
		fmt.Fprintf(w, "   count=%d window=[%d,%d) offset=%d focus=%s selected=%v\n",
			s.Count, s.Window[0], s.Window[1], s.Offset, s.Focus, s.Selected)
		fmt.Fprintf(w, "   aria: %s … %s\n", s.Start, s.End)
	}
}
