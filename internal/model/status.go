package model

// QuestionStatus is the palette state of a question.
type QuestionStatus string

const (
	StatusNotVisited     QuestionStatus = "NOT_VISITED"
	StatusVisited        QuestionStatus = "VISITED"
	StatusAnswered       QuestionStatus = "ANSWERED"
	StatusMarked         QuestionStatus = "MARKED"
	StatusAnsweredMarked QuestionStatus = "ANSWERED_MARKED"
)

// IsAnswered reports whether the status carries an answer.
func (s QuestionStatus) IsAnswered() bool {
	return s == StatusAnswered || s == StatusAnsweredMarked
}

// IsMarked reports whether the status carries a review flag.
func (s QuestionStatus) IsMarked() bool {
	return s == StatusMarked || s == StatusAnsweredMarked
}

// StatusSummary counts questions by palette bucket. The four counts always
// add up to the number of questions; answered-and-marked questions count as
// answered.
type StatusSummary struct {
	Answered    int `json:"answered" yaml:"answered"`
	MarkedOnly  int `json:"marked_only" yaml:"marked_only"`
	NotAnswered int `json:"not_answered" yaml:"not_answered"`
	NotVisited  int `json:"not_visited" yaml:"not_visited"`
}

// Total returns the sum of all buckets.
func (s StatusSummary) Total() int {
	return s.Answered + s.MarkedOnly + s.NotAnswered + s.NotVisited
}
