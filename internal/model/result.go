package model

// ResultSet is the derived score of a session. It is never stored as a
// source of truth and can always be recomputed from the question set and the
// answer record.
type ResultSet struct {
	TotalQuestions   int             `json:"total_questions" yaml:"total_questions"`
	CorrectCount     int             `json:"correct_count" yaml:"correct_count"`
	IncorrectCount   int             `json:"incorrect_count" yaml:"incorrect_count"`
	UnattemptedCount int             `json:"unattempted_count" yaml:"unattempted_count"`
	TotalMarks       float64         `json:"total_marks" yaml:"total_marks"`
	MaxMarks         float64         `json:"max_marks" yaml:"max_marks"`
	Percentage       float64         `json:"percentage" yaml:"percentage"`
	Subjects         []SubjectResult `json:"subjects" yaml:"subjects"`
}

// SubjectResult is the per-subject breakdown of a ResultSet.
type SubjectResult struct {
	Subject          string  `json:"subject" yaml:"subject"`
	CorrectCount     int     `json:"correct_count" yaml:"correct_count"`
	IncorrectCount   int     `json:"incorrect_count" yaml:"incorrect_count"`
	UnattemptedCount int     `json:"unattempted_count" yaml:"unattempted_count"`
	Marks            float64 `json:"marks" yaml:"marks"`
}

// Verdict classifies a single scored question.
type Verdict string

const (
	VerdictCorrect     Verdict = "CORRECT"
	VerdictIncorrect   Verdict = "INCORRECT"
	VerdictUnattempted Verdict = "UNATTEMPTED"
)

// QuestionReview is one row of the review-mode answer sheet.
type QuestionReview struct {
	Index         int     `json:"index" yaml:"index"`
	Subject       string  `json:"subject" yaml:"subject"`
	Selected      string  `json:"selected,omitempty" yaml:"selected,omitempty"`
	CorrectAnswer string  `json:"correct_answer" yaml:"correct_answer"`
	Verdict       Verdict `json:"verdict" yaml:"verdict"`
	Marks         float64 `json:"marks" yaml:"marks"`
}
