package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/integrity"
	"github.com/stemsi/exstem-engine/internal/loader"
	"github.com/stemsi/exstem-engine/internal/logger"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/session"
	"github.com/stemsi/exstem-engine/internal/timer"
)

// scheduledSignal is an integrity signal fired after At elapsed seconds.
type scheduledSignal struct {
	Kind model.IntegrityKind
	At   int
}

// parseSignal accepts KIND or KIND@SECONDS.
func parseSignal(raw string) (scheduledSignal, error) {
	kind, at, found := strings.Cut(strings.TrimSpace(raw), "@")
	sig := scheduledSignal{Kind: model.IntegrityKind(strings.ToUpper(kind))}
	if !sig.Kind.Valid() {
		return sig, fmt.Errorf("unknown signal kind %q", kind)
	}
	if found {
		n, err := strconv.Atoi(at)
		if err != nil || n < 0 {
			return sig, fmt.Errorf("invalid signal offset %q", at)
		}
		sig.At = n
	}
	return sig, nil
}

// countingFullscreen stands in for the exam page.
type countingFullscreen struct{ requests int }

func (f *countingFullscreen) RequestFullscreen() error {
	f.requests++
	return nil
}

type simulationReport struct {
	Outcome            *model.Outcome  `json:"outcome" yaml:"outcome"`
	Warnings           []model.Warning `json:"warnings" yaml:"warnings"`
	FullscreenRequests int             `json:"fullscreen_requests" yaml:"fullscreen_requests"`
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <question-set>",
		Short: "Replay a session on a logical clock",
		Long: "Replay a session on a logical clock: answers are entered at the start,\n" +
			"signals fire at their offsets, and the session is submitted after\n" +
			"--elapsed seconds or when the countdown reaches zero.",
		Example: "  examctl simulate tryout.yaml --answers answers.yaml --signal TAB_SWITCH@30 --elapsed 600",
		Args:    cobra.ExactArgs(1),
		RunE:    runSimulate,
	}
	cmd.Flags().String("answers", "", "Answer file to enter at the start")
	cmd.Flags().StringSlice("signal", nil, "Integrity signal KIND[@SECONDS], repeatable")
	cmd.Flags().Int("duration", 0, "Duration in seconds (default: the set's duration)")
	cmd.Flags().Int("elapsed", 0, "Seconds to run before a manual submit (default: run until expiry)")
	cmd.Flags().Int("threshold", config.DefaultExam().TabSwitchThreshold, "Tab switches before the session is flagged")
	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	set, err := loadSet(args[0])
	if err != nil {
		return err
	}

	var answers model.AnswerRecord
	if path, _ := cmd.Flags().GetString("answers"); path != "" {
		if answers, err = loader.LoadAnswers(path); err != nil {
			return err
		}
	}

	rawSignals, _ := cmd.Flags().GetStringSlice("signal")
	signals := make([]scheduledSignal, 0, len(rawSignals))
	for _, raw := range rawSignals {
		sig, err := parseSignal(raw)
		if err != nil {
			return err
		}
		signals = append(signals, sig)
	}
	sort.SliceStable(signals, func(i, j int) bool { return signals[i].At < signals[j].At })

	duration, _ := cmd.Flags().GetInt("duration")
	if duration <= 0 {
		duration = set.DurationSeconds()
	}
	elapsed, _ := cmd.Flags().GetInt("elapsed")
	if elapsed <= 0 {
		elapsed = duration
	}
	threshold, _ := cmd.Flags().GetInt("threshold")
	level, _ := cmd.Flags().GetString("log-level")

	clock := timer.NewManualClock()
	bus := integrity.NewBus()
	fullscreen := &countingFullscreen{}

	s := session.New(session.Options{
		Clock:              clock,
		Signals:            bus,
		Fullscreen:         fullscreen,
		Scheme:             schemeFlags(cmd),
		TabSwitchThreshold: threshold,
	}, logger.New(cmd.ErrOrStderr(), level, "pretty"))

	if err := s.Start(set, duration); err != nil {
		return err
	}

	indices := make([]int, 0, len(answers))
	for i := range answers {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	for _, i := range indices {
		if err := s.SelectOption(i, answers[i]); err != nil {
			return fmt.Errorf("answer for question %d: %w", i, err)
		}
	}

	now := 0
	for _, sig := range signals {
		if sig.At > elapsed {
			break
		}
		clock.Advance(sig.At - now)
		now = sig.At
		if _, err := bus.Emit(model.IntegrityEvent{Kind: sig.Kind}); err != nil {
			return err
		}
	}
	clock.Advance(elapsed - now)

	outcome, err := s.Submit(cmd.Context())
	if err != nil {
		return err
	}

	report := simulationReport{
		Outcome:            outcome,
		Warnings:           s.Snapshot().Warnings,
		FullscreenRequests: fullscreen.requests,
	}
	return render(cmd, report, func(w io.Writer) {
		writeOutcomeTable(w, outcome)
		if len(report.Warnings) > 0 {
			fmt.Fprintln(w)
			for _, warn := range report.Warnings {
				fmt.Fprintf(w, "[%s] %s\n", warn.Severity, warn.Message)
			}
		}
	})
}
