package model

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuestionSet is returned when a question set has no questions.
	ErrEmptyQuestionSet = errors.New("question set has no questions")

	// ErrInvalidQuestionSet is returned when a question set violates a
	// structural invariant (indices, subject blocks, answer keys).
	ErrInvalidQuestionSet = errors.New("invalid question set")
)

// QuestionSet is the finished paper handed to the engine by the paper
// generation collaborator.
type QuestionSet struct {
	Title           string     `json:"title" yaml:"title" binding:"max=255"`
	DurationMinutes int        `json:"duration_minutes" yaml:"duration_minutes" binding:"min=0,max=600"`
	Questions       []Question `json:"questions" yaml:"questions" binding:"required,min=1,dive"`
}

// SubjectBlock is a contiguous, half-open range [Start, End) of question
// indices that belong to one subject.
type SubjectBlock struct {
	Subject string `json:"subject" yaml:"subject"`
	Start   int    `json:"start" yaml:"start"`
	End     int    `json:"end" yaml:"end"`
}

// Len returns the number of questions in the block.
func (b SubjectBlock) Len() int { return b.End - b.Start }

// Contains reports whether index falls inside the block.
func (b SubjectBlock) Contains(index int) bool {
	return index >= b.Start && index < b.End
}

// Len returns the number of questions in the set.
func (s *QuestionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Questions)
}

// Clone returns a deep copy of s that shares no mutable state with it.
func (s *QuestionSet) Clone() *QuestionSet {
	c := *s
	c.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		c.Questions[i] = q.Clone()
	}
	return &c
}

// DurationSeconds converts the configured duration to whole seconds.
func (s *QuestionSet) DurationSeconds() int {
	return s.DurationMinutes * 60
}

// Normalize assigns positional indices when the input omitted them
// (every index zero). Sets with explicit indices are left untouched so that
// Validate can reject a mismatch.
func (s *QuestionSet) Normalize() {
	for _, q := range s.Questions {
		if q.Index != 0 {
			return
		}
	}
	for i := range s.Questions {
		s.Questions[i].Index = i
	}
}

// Validate checks the structural invariants that struct tags cannot
// express: positional indices, contiguous subject blocks and answer keys
// that point at an existing option.
func (s *QuestionSet) Validate() error {
	if s.Len() == 0 {
		return ErrEmptyQuestionSet
	}

	for i, q := range s.Questions {
		if q.Index != i {
			return fmt.Errorf("%w: question at position %d has index %d", ErrInvalidQuestionSet, i, q.Index)
		}
		if !q.HasOption(q.CorrectAnswer) {
			return fmt.Errorf("%w: question %d answer key %q is not an option", ErrInvalidQuestionSet, i, q.CorrectAnswer)
		}
		seen := make(map[string]struct{}, len(q.Options))
		for _, o := range q.Options {
			if _, dup := seen[o.Key]; dup {
				return fmt.Errorf("%w: question %d has duplicate option %q", ErrInvalidQuestionSet, i, o.Key)
			}
			seen[o.Key] = struct{}{}
		}
	}

	if _, err := s.SubjectBlocks(); err != nil {
		return err
	}
	return nil
}

// SubjectBlocks derives the subject segmentation from contiguous runs of
// Question.Subject. A subject that re-appears after another subject breaks
// contiguity and is rejected.
func (s *QuestionSet) SubjectBlocks() ([]SubjectBlock, error) {
	if s.Len() == 0 {
		return nil, ErrEmptyQuestionSet
	}

	var blocks []SubjectBlock
	closed := make(map[string]struct{})

	for i, q := range s.Questions {
		if n := len(blocks); n > 0 && blocks[n-1].Subject == q.Subject {
			blocks[n-1].End = i + 1
			continue
		}
		if _, ok := closed[q.Subject]; ok {
			return nil, fmt.Errorf("%w: subject %q is not contiguous (re-appears at %d)", ErrInvalidQuestionSet, q.Subject, i)
		}
		if n := len(blocks); n > 0 {
			closed[blocks[n-1].Subject] = struct{}{}
		}
		blocks = append(blocks, SubjectBlock{Subject: q.Subject, Start: i, End: i + 1})
	}

	return blocks, nil
}

// SubjectOf returns the block containing index.
func (s *QuestionSet) SubjectOf(index int) (SubjectBlock, bool) {
	blocks, err := s.SubjectBlocks()
	if err != nil {
		return SubjectBlock{}, false
	}
	for _, b := range blocks {
		if b.Contains(index) {
			return b, true
		}
	}
	return SubjectBlock{}, false
}

// Paper is the candidate-facing view of a question set (no answer keys).
type Paper struct {
	Title           string                 `json:"title" yaml:"title"`
	DurationMinutes int                    `json:"duration_minutes" yaml:"duration_minutes"`
	Subjects        []SubjectBlock         `json:"subjects" yaml:"subjects"`
	Questions       []QuestionForCandidate `json:"questions" yaml:"questions"`
}

// Paper builds the candidate-facing view of s.
func (s *QuestionSet) Paper() Paper {
	blocks, _ := s.SubjectBlocks()
	qs := make([]QuestionForCandidate, 0, s.Len())
	for _, q := range s.Questions {
		qs = append(qs, q.ForCandidate())
	}
	return Paper{
		Title:           s.Title,
		DurationMinutes: s.DurationMinutes,
		Subjects:        blocks,
		Questions:       qs,
	}
}
