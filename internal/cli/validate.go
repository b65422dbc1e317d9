package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/stemsi/exstem-engine/internal/loader"
	"github.com/stemsi/exstem-engine/internal/model"
)

type setSummary struct {
	Title           string               `json:"title" yaml:"title"`
	DurationMinutes int                  `json:"duration_minutes" yaml:"duration_minutes"`
	Questions       int                  `json:"questions" yaml:"questions"`
	Subjects        []model.SubjectBlock `json:"subjects" yaml:"subjects"`
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <question-set>",
		Short: "Check a question set file (JSON or YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadSet(args[0])
			if err != nil {
				return err
			}

			paper := set.Paper()
			summary := setSummary{
				Title:           set.Title,
				DurationMinutes: set.DurationMinutes,
				Questions:       set.Len(),
				Subjects:        paper.Subjects,
			}
			return render(cmd, summary, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %d questions, %d minutes\n\n", summary.Title, summary.Questions, summary.DurationMinutes)
				fmt.Fprintf(w, "%-24s  %5s  %5s\n", "Subject", "From", "To")
				rule(w, 38)
				for _, b := range summary.Subjects {
					fmt.Fprintf(w, "%-24s  %5d  %5d\n", b.Subject, b.Start+1, b.End)
				}
			})
		},
	}
}

// loadSet reads and validates a question set file.
func loadSet(path string) (*model.QuestionSet, error) {
	set, err := loader.LoadQuestionSet(path)
	if err != nil {
		return nil, err
	}
	if err := loader.Prepare(set); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}
