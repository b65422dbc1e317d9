// Package cli implements examctl, the offline companion of the exam engine:
// it checks question sets, grades answer files and replays sessions on a
// logical clock.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/scoring"
	"github.com/stemsi/exstem-engine/internal/validator"
)

// version is set via -ldflags at build time.
var version = "(devel)"

// NewRootCmd builds the examctl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "examctl",
		Short:         "Offline tools for the ExStem exam engine",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			validator.Setup()
		},
	}

	defaults := config.DefaultExam()
	root.PersistentFlags().StringP("output", "o", "auto", "Output format: auto|table|json|yaml")
	root.PersistentFlags().Float64("marks-correct", defaults.MarksCorrect, "Marks for a correct answer")
	root.PersistentFlags().Float64("marks-incorrect", defaults.MarksIncorrect, "Marks for an incorrect answer")
	root.PersistentFlags().String("log-level", "warn", "Log level for engine diagnostics")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newScoreCmd())
	root.AddCommand(newSimulateCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("examctl", version)
		},
	}
}

// schemeFlags reads the marking scheme from the persistent flags.
func schemeFlags(cmd *cobra.Command) scoring.Scheme {
	correct, _ := cmd.Flags().GetFloat64("marks-correct")
	incorrect, _ := cmd.Flags().GetFloat64("marks-incorrect")
	return scoring.Scheme{Correct: correct, Incorrect: incorrect}
}
