package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/timer"
)

type outputFormat string

const (
	outputTable outputFormat = "table"
	outputJSON  outputFormat = "json"
	outputYAML  outputFormat = "yaml"
)

// isTerminal reports whether a writer is a TTY.
var isTerminal = defaultIsTerminal

func defaultIsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// resolveOutput picks the output format. auto renders a table on a TTY and
// JSON everywhere else.
func resolveOutput(cmd *cobra.Command) (outputFormat, error) {
	raw, _ := cmd.Flags().GetString("output")
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		if isTerminal(cmd.OutOrStdout()) {
			return outputTable, nil
		}
		return outputJSON, nil
	case "table":
		return outputTable, nil
	case "json":
		return outputJSON, nil
	case "yaml":
		return outputYAML, nil
	default:
		return "", fmt.Errorf("invalid output format %q (expected auto|table|json|yaml)", raw)
	}
}

// render writes v in the selected format; table is used for outputTable.
func render(cmd *cobra.Command, v interface{}, table func(w io.Writer)) error {
	format, err := resolveOutput(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		table(w)
		return nil
	}
}

func rule(w io.Writer, width int) {
	fmt.Fprintln(w, strings.Repeat("─", width))
}

func writeResultTable(w io.Writer, r model.ResultSet) {
	fmt.Fprintf(w, "%-24s  %7s  %9s  %11s  %8s\n", "Subject", "Correct", "Incorrect", "Unattempted", "Marks")
	rule(w, 67)
	for _, s := range r.Subjects {
		fmt.Fprintf(w, "%-24s  %7d  %9d  %11d  %8.2f\n",
			s.Subject, s.CorrectCount, s.IncorrectCount, s.UnattemptedCount, s.Marks)
	}
	rule(w, 67)
	fmt.Fprintf(w, "%-24s  %7d  %9d  %11d  %8.2f\n",
		"Total", r.CorrectCount, r.IncorrectCount, r.UnattemptedCount, r.TotalMarks)
	fmt.Fprintf(w, "\nScore %.2f / %.2f (%.2f%%)\n", r.TotalMarks, r.MaxMarks, r.Percentage)
}

func writeReviewTable(w io.Writer, review []model.QuestionReview) {
	fmt.Fprintf(w, "%5s  %-24s  %8s  %7s  %-11s  %6s\n", "No", "Subject", "Selected", "Correct", "Verdict", "Marks")
	rule(w, 72)
	for _, q := range review {
		selected := q.Selected
		if selected == "" {
			selected = "-"
		}
		fmt.Fprintf(w, "%5d  %-24s  %8s  %7s  %-11s  %6.2f\n",
			q.Index+1, q.Subject, selected, q.CorrectAnswer, q.Verdict, q.Marks)
	}
}

func writeOutcomeTable(w io.Writer, o *model.Outcome) {
	fmt.Fprintf(w, "Session    %s\n", o.SessionID)
	fmt.Fprintf(w, "Title      %s\n", o.Title)
	fmt.Fprintf(w, "Reason     %s\n", o.Reason)
	fmt.Fprintf(w, "Elapsed    %s\n", timer.Format(int(o.SubmittedAt.Sub(o.StartedAt).Seconds())))
	fmt.Fprintf(w, "Integrity  %d tab switch(es), flagged=%t\n\n", o.Integrity.TabSwitches, o.Integrity.Flagged)
	writeResultTable(w, o.Result)
}
