// Package navigator tracks per-question palette state and the current
// question of an exam. It performs no I/O and holds no clock.
package navigator

import (
	"errors"
	"fmt"

	"github.com/stemsi/exstem-engine/internal/model"
)

var (
	// ErrIndexOutOfRange is returned for an index outside [0, count).
	ErrIndexOutOfRange = errors.New("question index out of range")

	// ErrInvalidOption is returned when the selected key is not an option
	// of the question.
	ErrInvalidOption = errors.New("option is not valid for question")

	// ErrUnknownSubject is returned by JumpToSubject for an unknown label.
	ErrUnknownSubject = errors.New("unknown subject")
)

type entry struct {
	visited bool
	marked  bool
}

// Navigator is the state vector of one exam: visit/review flags, the
// answer record and the current index. It is not safe for concurrent use;
// the owning session serializes access.
type Navigator struct {
	set     *model.QuestionSet
	blocks  []model.SubjectBlock
	entries []entry
	answers model.AnswerRecord
	current int
}

// New creates a navigator with every question NOT_VISITED and no current
// question. The set must already be validated.
func New(set *model.QuestionSet) *Navigator {
	blocks, _ := set.SubjectBlocks()
	return &Navigator{
		set:     set,
		blocks:  blocks,
		entries: make([]entry, set.Len()),
		answers: make(model.AnswerRecord),
		current: -1,
	}
}

// Count returns the number of questions.
func (n *Navigator) Count() int { return len(n.entries) }

// Current returns the current index, or -1 before the first visit.
func (n *Navigator) Current() int { return n.current }

func (n *Navigator) check(index int) error {
	if index < 0 || index >= len(n.entries) {
		return fmt.Errorf("%w: %d (count %d)", ErrIndexOutOfRange, index, len(n.entries))
	}
	return nil
}

// Visit makes index the current question and marks it visited. Answered or
// marked questions keep their status.
func (n *Navigator) Visit(index int) error {
	if err := n.check(index); err != nil {
		return err
	}
	n.entries[index].visited = true
	n.current = index
	return nil
}

// Next visits the question after the current one. At the last question it
// stays put and returns ErrIndexOutOfRange.
func (n *Navigator) Next() error {
	return n.Visit(n.current + 1)
}

// Previous visits the question before the current one.
func (n *Navigator) Previous() error {
	return n.Visit(n.current - 1)
}

// JumpToSubject visits the first question of the named subject block.
func (n *Navigator) JumpToSubject(subject string) error {
	for _, b := range n.blocks {
		if b.Subject == subject {
			return n.Visit(b.Start)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownSubject, subject)
}

// SelectOption records the answer for index. Selecting implies a visit.
func (n *Navigator) SelectOption(index int, key string) error {
	if err := n.check(index); err != nil {
		return err
	}
	if !n.set.Questions[index].HasOption(key) {
		return fmt.Errorf("%w: %q on question %d", ErrInvalidOption, key, index)
	}
	n.entries[index].visited = true
	n.answers[index] = key
	return nil
}

// Clear removes the answer for index. The review flag is kept.
func (n *Navigator) Clear(index int) error {
	if err := n.check(index); err != nil {
		return err
	}
	delete(n.answers, index)
	return nil
}

// MarkForReview sets the review flag. A question cannot be marked without
// having been visited, so marking implies a visit.
func (n *Navigator) MarkForReview(index int) error {
	if err := n.check(index); err != nil {
		return err
	}
	n.entries[index].visited = true
	n.entries[index].marked = true
	return nil
}

// Unmark clears the review flag.
func (n *Navigator) Unmark(index int) error {
	if err := n.check(index); err != nil {
		return err
	}
	n.entries[index].marked = false
	return nil
}

// Status computes the palette status of index.
func (n *Navigator) Status(index int) (model.QuestionStatus, error) {
	if err := n.check(index); err != nil {
		return "", err
	}
	return n.status(index), nil
}

func (n *Navigator) status(index int) model.QuestionStatus {
	e := n.entries[index]
	_, answered := n.answers[index]

	switch {
	case answered && e.marked:
		return model.StatusAnsweredMarked
	case answered:
		return model.StatusAnswered
	case e.marked:
		return model.StatusMarked
	case e.visited:
		return model.StatusVisited
	default:
		return model.StatusNotVisited
	}
}

// Statuses returns the palette status of every question in order.
func (n *Navigator) Statuses() []model.QuestionStatus {
	out := make([]model.QuestionStatus, len(n.entries))
	for i := range n.entries {
		out[i] = n.status(i)
	}
	return out
}

// Summary counts questions per palette bucket.
func (n *Navigator) Summary() model.StatusSummary {
	var s model.StatusSummary
	for i := range n.entries {
		switch st := n.status(i); {
		case st.IsAnswered():
			s.Answered++
		case st == model.StatusMarked:
			s.MarkedOnly++
		case st == model.StatusVisited:
			s.NotAnswered++
		default:
			s.NotVisited++
		}
	}
	return s
}

// Answers returns a copy of the answer record.
func (n *Navigator) Answers() model.AnswerRecord {
	return n.answers.Clone()
}
