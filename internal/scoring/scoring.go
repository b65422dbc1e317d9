// Package scoring turns a question set and an answer record into a result
// set. Every function here is pure: identical inputs give identical output.
package scoring

import (
	"math"

	"github.com/stemsi/exstem-engine/internal/model"
)

// Scheme is the default negative-marking scheme, applied to questions that
// carry no per-question override.
type Scheme struct {
	Correct   float64 `json:"correct"`
	Incorrect float64 `json:"incorrect"`
}

// DefaultScheme is +4 for a correct answer and -1 for a wrong one.
func DefaultScheme() Scheme {
	return Scheme{Correct: 4, Incorrect: -1}
}

func (s Scheme) marksFor(q model.Question) (correct, incorrect float64) {
	correct, incorrect = s.Correct, s.Incorrect
	if q.MarksCorrect != nil {
		correct = *q.MarksCorrect
	}
	if q.MarksIncorrect != nil {
		incorrect = *q.MarksIncorrect
	}
	return correct, incorrect
}

// ScoreQuestion grades a single question against the answer record.
func ScoreQuestion(q model.Question, answers model.AnswerRecord, scheme Scheme) model.QuestionReview {
	review := model.QuestionReview{
		Index:         q.Index,
		Subject:       q.Subject,
		CorrectAnswer: q.CorrectAnswer,
		Verdict:       model.VerdictUnattempted,
	}

	selected, ok := answers.Selected(q.Index)
	if !ok || selected == "" {
		return review
	}

	plus, minus := scheme.marksFor(q)
	review.Selected = selected
	if selected == q.CorrectAnswer {
		review.Verdict = model.VerdictCorrect
		review.Marks = plus
	} else {
		review.Verdict = model.VerdictIncorrect
		review.Marks = minus
	}
	return review
}

// Review grades every question in order.
func Review(set *model.QuestionSet, answers model.AnswerRecord, scheme Scheme) []model.QuestionReview {
	out := make([]model.QuestionReview, 0, set.Len())
	for _, q := range set.Questions {
		out = append(out, ScoreQuestion(q, answers, scheme))
	}
	return out
}

// Score aggregates the per-question verdicts into a ResultSet with a
// per-subject breakdown ordered by first appearance of each subject.
func Score(set *model.QuestionSet, answers model.AnswerRecord, scheme Scheme) model.ResultSet {
	res := model.ResultSet{
		TotalQuestions: set.Len(),
		Subjects:       []model.SubjectResult{},
	}
	bySubject := make(map[string]int)

	for _, q := range set.Questions {
		r := ScoreQuestion(q, answers, scheme)
		plus, _ := scheme.marksFor(q)
		res.MaxMarks += plus

		pos, ok := bySubject[q.Subject]
		if !ok {
			pos = len(res.Subjects)
			bySubject[q.Subject] = pos
			res.Subjects = append(res.Subjects, model.SubjectResult{Subject: q.Subject})
		}
		sub := &res.Subjects[pos]

		switch r.Verdict {
		case model.VerdictCorrect:
			res.CorrectCount++
			sub.CorrectCount++
		case model.VerdictIncorrect:
			res.IncorrectCount++
			sub.IncorrectCount++
		default:
			res.UnattemptedCount++
			sub.UnattemptedCount++
		}
		res.TotalMarks += r.Marks
		sub.Marks += r.Marks
	}

	res.TotalMarks = Round(res.TotalMarks, 2)
	res.MaxMarks = Round(res.MaxMarks, 2)
	for i := range res.Subjects {
		res.Subjects[i].Marks = Round(res.Subjects[i].Marks, 2)
	}
	if res.TotalQuestions > 0 {
		res.Percentage = Round(float64(res.CorrectCount)/float64(res.TotalQuestions)*100, 2)
	}
	return res
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
