package model

// Option is a single selectable answer of a multiple-choice question.
type Option struct {
	Key  string `json:"key" yaml:"key" binding:"required,max=10"`
	Text string `json:"text" yaml:"text" binding:"max=2000"`
}

// Question represents a single exam question. It is immutable for the
// lifetime of a session.
type Question struct {
	Index         int      `json:"index" yaml:"index" binding:"min=0"`
	Subject       string   `json:"subject" yaml:"subject" binding:"required,max=100"`
	Text          string   `json:"text" yaml:"text" binding:"required,max=5000"`
	Options       []Option `json:"options" yaml:"options" binding:"dive"`
	CorrectAnswer string   `json:"correct_answer" yaml:"correct_answer" binding:"required,max=10"`
	// MarksCorrect and MarksIncorrect override the configured marking scheme
	// when set.
	MarksCorrect   *float64 `json:"marks_correct,omitempty" yaml:"marks_correct,omitempty"`
	MarksIncorrect *float64 `json:"marks_incorrect,omitempty" yaml:"marks_incorrect,omitempty"`
}

// Clone returns a deep copy of q: the option list and the mark overrides
// are not shared with the original.
func (q Question) Clone() Question {
	c := q
	if q.Options != nil {
		c.Options = append([]Option(nil), q.Options...)
	}
	c.MarksCorrect = cloneMarks(q.MarksCorrect)
	c.MarksIncorrect = cloneMarks(q.MarksIncorrect)
	return c
}

func cloneMarks(m *float64) *float64 {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}

// HasOption reports whether key is a selectable option of the question.
// Questions without an option list (numeric entry) accept any non-empty key.
func (q Question) HasOption(key string) bool {
	if key == "" {
		return false
	}
	if len(q.Options) == 0 {
		return true
	}
	for _, o := range q.Options {
		if o.Key == key {
			return true
		}
	}
	return false
}

// QuestionForCandidate is a question without the correct answer, safe to
// send to the exam page.
type QuestionForCandidate struct {
	Index   int      `json:"index"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// ForCandidate strips the answer key from q.
func (q Question) ForCandidate() QuestionForCandidate {
	return QuestionForCandidate{
		Index:   q.Index,
		Subject: q.Subject,
		Text:    q.Text,
		Options: append([]Option(nil), q.Options...),
	}
}
