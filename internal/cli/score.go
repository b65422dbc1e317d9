package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/stemsi/exstem-engine/internal/loader"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/scoring"
)

type scoreReport struct {
	Result model.ResultSet        `json:"result" yaml:"result"`
	Review []model.QuestionReview `json:"review,omitempty" yaml:"review,omitempty"`
}

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <question-set> <answers>",
		Short: "Grade an answer file against a question set",
		Long: "Grade an answer file against a question set. The answer file maps\n" +
			"zero-based question indices to the selected option key.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadSet(args[0])
			if err != nil {
				return err
			}
			answers, err := loader.LoadAnswers(args[1])
			if err != nil {
				return err
			}

			scheme := schemeFlags(cmd)
			report := scoreReport{Result: scoring.Score(set, answers, scheme)}
			withReview, _ := cmd.Flags().GetBool("review")
			if withReview {
				report.Review = scoring.Review(set, answers, scheme)
			}

			return render(cmd, report, func(w io.Writer) {
				writeResultTable(w, report.Result)
				if withReview {
					io.WriteString(w, "\n")
					writeReviewTable(w, report.Review)
				}
			})
		},
	}
	cmd.Flags().Bool("review", false, "Include the per-question review")
	return cmd
}
