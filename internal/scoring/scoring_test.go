package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exstem-engine/internal/model"
)

func opts() []model.Option {
	return []model.Option{{Key: "A"}, {Key: "B"}, {Key: "C"}, {Key: "D"}}
}

func fourQuestions() *model.QuestionSet {
	return &model.QuestionSet{
		Questions: []model.Question{
			{Index: 0, Subject: "Physics", Text: "q0", Options: opts(), CorrectAnswer: "A"},
			{Index: 1, Subject: "Physics", Text: "q1", Options: opts(), CorrectAnswer: "B"},
			{Index: 2, Subject: "Chemistry", Text: "q2", Options: opts(), CorrectAnswer: "C"},
			{Index: 3, Subject: "Chemistry", Text: "q3", Options: opts(), CorrectAnswer: "D"},
		},
	}
}

func TestScore_CorrectIncorrectUnattempted(t *testing.T) {
	answers := model.AnswerRecord{0: "A", 1: "C", 3: "D"}

	res := Score(fourQuestions(), answers, DefaultScheme())

	assert.Equal(t, 4, res.TotalQuestions)
	assert.Equal(t, 2, res.CorrectCount)
	assert.Equal(t, 1, res.IncorrectCount)
	assert.Equal(t, 1, res.UnattemptedCount)
	assert.Equal(t, 7.0, res.TotalMarks)
	assert.Equal(t, 16.0, res.MaxMarks)
	assert.Equal(t, 50.0, res.Percentage)

	require.Len(t, res.Subjects, 2)
	assert.Equal(t, model.SubjectResult{Subject: "Physics", CorrectCount: 1, IncorrectCount: 1, Marks: 3}, res.Subjects[0])
	assert.Equal(t, model.SubjectResult{Subject: "Chemistry", CorrectCount: 1, UnattemptedCount: 1, Marks: 4}, res.Subjects[1])
}

func TestScore_Pure(t *testing.T) {
	set := fourQuestions()
	answers := model.AnswerRecord{0: "B", 2: "C"}

	first := Score(set, answers, DefaultScheme())
	second := Score(set, answers, DefaultScheme())
	assert.Equal(t, first, second)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	assert.Equal(t, model.AnswerRecord{0: "B", 2: "C"}, answers, "scoring must not mutate its input")
}

func TestScore_EmptyAnswers(t *testing.T) {
	res := Score(fourQuestions(), nil, DefaultScheme())

	assert.Equal(t, 4, res.UnattemptedCount)
	assert.Zero(t, res.TotalMarks)
	assert.Zero(t, res.Percentage)
}

func TestScore_PerQuestionOverride(t *testing.T) {
	set := fourQuestions()
	three, zero := 3.0, 0.0
	set.Questions[0].MarksCorrect = &three
	set.Questions[1].MarksIncorrect = &zero

	res := Score(set, model.AnswerRecord{0: "A", 1: "A"}, DefaultScheme())

	assert.Equal(t, 3.0, res.TotalMarks)
	assert.Equal(t, 15.0, res.MaxMarks)
}

func TestScore_CustomScheme(t *testing.T) {
	res := Score(fourQuestions(), model.AnswerRecord{0: "A", 1: "A", 2: "A"}, Scheme{Correct: 1, Incorrect: -0.33})

	assert.Equal(t, 0.34, res.TotalMarks)
	assert.Equal(t, 25.0, res.Percentage)
}

func TestScore_PercentageRounding(t *testing.T) {
	set := &model.QuestionSet{Questions: []model.Question{
		{Index: 0, Subject: "Maths", Text: "q0", CorrectAnswer: "1"},
		{Index: 1, Subject: "Maths", Text: "q1", CorrectAnswer: "2"},
		{Index: 2, Subject: "Maths", Text: "q2", CorrectAnswer: "3"},
	}}

	res := Score(set, model.AnswerRecord{0: "1"}, DefaultScheme())
	assert.Equal(t, 33.33, res.Percentage)

	res = Score(set, model.AnswerRecord{0: "1", 1: "2"}, DefaultScheme())
	assert.Equal(t, 66.67, res.Percentage)
}

func TestScore_IgnoresUnknownIndices(t *testing.T) {
	res := Score(fourQuestions(), model.AnswerRecord{7: "A", -1: "B"}, DefaultScheme())
	assert.Equal(t, 4, res.UnattemptedCount)
}

func TestReview(t *testing.T) {
	rows := Review(fourQuestions(), model.AnswerRecord{0: "A", 1: "C"}, DefaultScheme())

	require.Len(t, rows, 4)
	assert.Equal(t, model.QuestionReview{Index: 0, Subject: "Physics", Selected: "A", CorrectAnswer: "A", Verdict: model.VerdictCorrect, Marks: 4}, rows[0])
	assert.Equal(t, model.QuestionReview{Index: 1, Subject: "Physics", Selected: "C", CorrectAnswer: "B", Verdict: model.VerdictIncorrect, Marks: -1}, rows[1])
	assert.Equal(t, model.VerdictUnattempted, rows[2].Verdict)
	assert.Zero(t, rows[2].Marks)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.23, Round(1.234, 2))
	assert.Equal(t, -0.67, Round(-0.666, 2))
	assert.Equal(t, 50.0, Round(50, 2))
}
