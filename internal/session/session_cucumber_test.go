//go:build cucumber

package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-engine/internal/integrity"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/scoring"
	"github.com/stemsi/exstem-engine/internal/timer"
)

// TestExamSessionScenarios runs the exam session feature scenarios.
func TestExamSessionScenarios(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "exam-session",
		ScenarioInitializer: InitializeExamSessionScenario,
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("..", "..", "features", "exam_session.feature")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeExamSessionScenario wires steps for exam session scenarios.
func InitializeExamSessionScenario(ctx *godog.ScenarioContext) {
	state := &examScenarioState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.Step(`^a question set with (\d+) questions answered "([^"]+)"$`, state.givenQuestionSet)
	ctx.Step(`^a marking scheme of \+(\d+) for correct and (-?\d+) for incorrect$`, state.givenScheme)
	ctx.Step(`^a tab-switch threshold of (\d+)$`, state.givenThreshold)
	ctx.Step(`^the session is started for (\d+) seconds?$`, state.givenStarted)
	ctx.Step(`^the candidate selects "([^"]+)" for question (\d+)$`, state.whenSelect)
	ctx.Step(`^the candidate marks question (\d+) for review$`, state.whenMark)
	ctx.Step(`^the candidate is on question (\d+)$`, state.givenOnQuestion)
	ctx.Step(`^the candidate navigates to question (-?\d+)$`, state.whenNavigate)
	ctx.Step(`^the candidate submits$`, state.whenSubmit)
	ctx.Step(`^(\d+) seconds? elapses?$`, state.whenElapse)
	ctx.Step(`^the page reports (\d+) "([^"]+)" signals?$`, state.whenSignals)
	ctx.Step(`^the session phase is "([^"]+)"$`, state.thenPhase)
	ctx.Step(`^the submit reason is "([^"]+)"$`, state.thenReason)
	ctx.Step(`^the result has (\d+) correct, (\d+) incorrect and (\d+) unattempted$`, state.thenCounts)
	ctx.Step(`^the total marks are (-?\d+)$`, state.thenTotalMarks)
	ctx.Step(`^the percentage is (\d+)$`, state.thenPercentage)
	ctx.Step(`^question (\d+) has status "([^"]+)"$`, state.thenStatus)
	ctx.Step(`^the session is not flagged$`, state.thenNotFlagged)
	ctx.Step(`^the tab-switch count is (\d+)$`, state.thenTabSwitches)
	ctx.Step(`^exactly (\d+) flagged warnings? (?:was|were) raised$`, state.thenFlaggedWarnings)
	ctx.Step(`^the navigation is rejected as out of range$`, state.thenOutOfRange)
	ctx.Step(`^the current question is (\d+)$`, state.thenCurrent)
}

type examScenarioState struct {
	set       *model.QuestionSet
	scheme    scoring.Scheme
	threshold int

	clock   *timer.ManualClock
	bus     *integrity.Bus
	session *Session
	lastErr error
}

// reset clears scenario state.
func (s *examScenarioState) reset() {
	*s = examScenarioState{}
}

func (s *examScenarioState) givenQuestionSet(count int, keys string) error {
	answers := strings.Split(keys, ",")
	if len(answers) != count {
		return fmt.Errorf("want %d answer keys, got %d", count, len(answers))
	}
	opts := []model.Option{{Key: "A"}, {Key: "B"}, {Key: "C"}, {Key: "D"}}
	s.set = &model.QuestionSet{Title: "Tryout"}
	for i, key := range answers {
		subject := "Fisika"
		if i >= count/2 {
			subject = "Kimia"
		}
		s.set.Questions = append(s.set.Questions, model.Question{
			Index:         i,
			Subject:       subject,
			Text:          fmt.Sprintf("Soal %d", i+1),
			Options:       opts,
			CorrectAnswer: key,
		})
	}
	return nil
}

func (s *examScenarioState) givenScheme(correct, incorrect int) error {
	s.scheme = scoring.Scheme{Correct: float64(correct), Incorrect: float64(incorrect)}
	return nil
}

func (s *examScenarioState) givenThreshold(n int) error {
	s.threshold = n
	return nil
}

func (s *examScenarioState) givenStarted(seconds int) error {
	s.clock = timer.NewManualClock()
	s.bus = integrity.NewBus()
	s.session = New(Options{
		Clock:              s.clock,
		Signals:            s.bus,
		Scheme:             s.scheme,
		TabSwitchThreshold: s.threshold,
	}, zerolog.Nop())
	return s.session.Start(s.set, seconds)
}

func (s *examScenarioState) whenSelect(option string, index int) error {
	return s.session.SelectOption(index, option)
}

func (s *examScenarioState) whenMark(index int) error {
	return s.session.MarkForReview(index)
}

func (s *examScenarioState) givenOnQuestion(index int) error {
	return s.session.Navigate(index)
}

func (s *examScenarioState) whenNavigate(index int) error {
	s.lastErr = s.session.Navigate(index)
	return nil
}

func (s *examScenarioState) whenSubmit() error {
	_, err := s.session.Submit(context.Background())
	return err
}

func (s *examScenarioState) whenElapse(seconds int) error {
	s.clock.Advance(seconds)
	return nil
}

func (s *examScenarioState) whenSignals(count int, kind string) error {
	for i := 0; i < count; i++ {
		if _, err := s.bus.Emit(model.IntegrityEvent{Kind: model.IntegrityKind(kind)}); err != nil {
			return err
		}
	}
	return nil
}

func (s *examScenarioState) outcome() (*model.Outcome, error) {
	out, ok := s.session.Outcome()
	if !ok {
		return nil, errors.New("session has not been submitted")
	}
	return out, nil
}

func (s *examScenarioState) thenPhase(phase string) error {
	if got := s.session.Phase(); got != model.Phase(phase) {
		return fmt.Errorf("expected phase %s, got %s", phase, got)
	}
	return nil
}

func (s *examScenarioState) thenReason(reason string) error {
	out, err := s.outcome()
	if err != nil {
		return err
	}
	if out.Reason != model.SubmitReason(reason) {
		return fmt.Errorf("expected reason %s, got %s", reason, out.Reason)
	}
	return nil
}

func (s *examScenarioState) thenCounts(correct, incorrect, unattempted int) error {
	out, err := s.outcome()
	if err != nil {
		return err
	}
	r := out.Result
	if r.CorrectCount != correct || r.IncorrectCount != incorrect || r.UnattemptedCount != unattempted {
		return fmt.Errorf("expected %d/%d/%d, got %d/%d/%d",
			correct, incorrect, unattempted, r.CorrectCount, r.IncorrectCount, r.UnattemptedCount)
	}
	return nil
}

func (s *examScenarioState) thenTotalMarks(marks int) error {
	out, err := s.outcome()
	if err != nil {
		return err
	}
	if out.Result.TotalMarks != float64(marks) {
		return fmt.Errorf("expected total marks %d, got %v", marks, out.Result.TotalMarks)
	}
	return nil
}

func (s *examScenarioState) thenPercentage(pct int) error {
	out, err := s.outcome()
	if err != nil {
		return err
	}
	if out.Result.Percentage != float64(pct) {
		return fmt.Errorf("expected percentage %d, got %v", pct, out.Result.Percentage)
	}
	return nil
}

func (s *examScenarioState) thenStatus(index int, status string) error {
	statuses := s.session.Snapshot().Statuses
	if index < 0 || index >= len(statuses) {
		return fmt.Errorf("no question %d", index)
	}
	if statuses[index] != model.QuestionStatus(status) {
		return fmt.Errorf("expected status %s, got %s", status, statuses[index])
	}
	return nil
}

func (s *examScenarioState) thenNotFlagged() error {
	if s.session.Snapshot().Flagged {
		return errors.New("session is flagged")
	}
	return nil
}

func (s *examScenarioState) thenTabSwitches(n int) error {
	if got := s.session.Snapshot().TabSwitches; got != n {
		return fmt.Errorf("expected %d tab switches, got %d", n, got)
	}
	return nil
}

func (s *examScenarioState) thenFlaggedWarnings(n int) error {
	got := 0
	for _, w := range s.session.Snapshot().Warnings {
		if w.Severity == model.SeverityFlagged {
			got++
		}
	}
	if got != n {
		return fmt.Errorf("expected %d flagged warnings, got %d", n, got)
	}
	return nil
}

func (s *examScenarioState) thenOutOfRange() error {
	if !errors.Is(s.lastErr, ErrIndexOutOfRange) {
		return fmt.Errorf("expected index out of range, got %v", s.lastErr)
	}
	return nil
}

func (s *examScenarioState) thenCurrent(index int) error {
	if got := s.session.Snapshot().Current; got != index {
		return fmt.Errorf("expected current question %d, got %d", index, got)
	}
	return nil
}
